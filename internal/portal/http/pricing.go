package http

import (
	"net/http"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
)

// PricingHandler quotes VPS configurations. Quoting is public and stateless.
type PricingHandler struct {
	Pricing *service.PricingService
	Metrics *Metrics
}

// HandleQuote handles POST /api/pricing/quote.
func (h *PricingHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req quoteRequest
	if apiErr := decode(r, &req); apiErr != nil {
		apiErr.Write(w)
		return
	}

	quote, err := h.Pricing.Quote(req.Config)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.Metrics.Quotes.Inc()
	httpx.WriteSuccess(w, http.StatusOK, "", map[string]any{"quote": quote})
}
