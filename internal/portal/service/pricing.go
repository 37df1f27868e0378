package service

import (
	"github.com/nimbushost/vps-portal/internal/portal/domain"
)

// Configurator bounds. Requests outside these ranges are rejected before
// pricing.
const (
	MinCPUCores    = 1
	MaxCPUCores    = 32
	MinMemoryGB    = 1
	MaxMemoryGB    = 128
	MinStorageGB   = 10
	MaxStorageGB   = 2000
	MinBandwidthTB = 1
	MaxBandwidthTB = 50
)

// PricingService quotes VPS configurations against a price book. Quoting is
// pure: no state is read or written, identical configs always price
// identically.
type PricingService struct {
	Book domain.PriceBook
}

// NewPricingService returns a service over the published rates.
func NewPricingService() *PricingService {
	return &PricingService{Book: domain.DefaultPriceBook}
}

// Quote validates cfg against the configurator bounds and prices it.
func (s *PricingService) Quote(cfg domain.PlanConfig) (domain.Quote, error) {
	if cfg.CPUCores < MinCPUCores || cfg.CPUCores > MaxCPUCores ||
		cfg.MemoryGB < MinMemoryGB || cfg.MemoryGB > MaxMemoryGB ||
		cfg.StorageGB < MinStorageGB || cfg.StorageGB > MaxStorageGB ||
		cfg.BandwidthTB < MinBandwidthTB || cfg.BandwidthTB > MaxBandwidthTB {
		return domain.Quote{}, ErrInvalidPlanConfig
	}
	return s.Book.Price(cfg), nil
}
