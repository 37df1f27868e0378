package domain

// PlanConfig is a VPS configuration as chosen in the configurator.
type PlanConfig struct {
	CPUCores    int `json:"cpuCores"`
	MemoryGB    int `json:"memoryGb"`
	StorageGB   int `json:"storageGb"`
	BandwidthTB int `json:"bandwidthTb"`
}

// PriceBook holds the monthly unit rates in cents. Prices are integer cents
// so quoting stays exact and deterministic.
type PriceBook struct {
	BaseCents        int64
	PerCPUCents      int64
	PerMemoryGBCents int64
	PerStorageCents  int64
	PerBandwidthTB   int64
}

// DefaultPriceBook mirrors the published plan rates.
var DefaultPriceBook = PriceBook{
	BaseCents:        500,  // $5.00 platform base
	PerCPUCents:      300,  // $3.00 per vCPU core
	PerMemoryGBCents: 200,  // $2.00 per GB RAM
	PerStorageCents:  10,   // $0.10 per GB SSD
	PerBandwidthTB:   100,  // $1.00 per TB transfer
}

// Quote is a priced plan configuration. Each term is the contribution of one
// dimension; MonthlyCents is their sum plus the base.
type Quote struct {
	Config         PlanConfig `json:"config"`
	BaseCents      int64      `json:"baseCents"`
	CPUCents       int64      `json:"cpuCents"`
	MemoryCents    int64      `json:"memoryCents"`
	StorageCents   int64      `json:"storageCents"`
	BandwidthCents int64      `json:"bandwidthCents"`
	MonthlyCents   int64      `json:"monthlyCents"`
}

// Price computes the monthly quote for cfg. Pure and linear in each
// dimension: doubling one dimension changes only that dimension's term.
func (b PriceBook) Price(cfg PlanConfig) Quote {
	q := Quote{
		Config:         cfg,
		BaseCents:      b.BaseCents,
		CPUCents:       int64(cfg.CPUCores) * b.PerCPUCents,
		MemoryCents:    int64(cfg.MemoryGB) * b.PerMemoryGBCents,
		StorageCents:   int64(cfg.StorageGB) * b.PerStorageCents,
		BandwidthCents: int64(cfg.BandwidthTB) * b.PerBandwidthTB,
	}
	q.MonthlyCents = q.BaseCents + q.CPUCents + q.MemoryCents + q.StorageCents + q.BandwidthCents
	return q
}
