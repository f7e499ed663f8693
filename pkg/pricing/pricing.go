// Package pricing is the deterministic driver-cost calculator: rate-card
// base rate + dynamic fuel + depreciation + labor + flat toll.
package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// Settings are the System_Config knobs the engine reads, with their
// production defaults baked in for missing keys.
type Settings struct {
	DieselPrice       float64
	Fuel4W            float64 // km per liter
	Fuel6W            float64
	Fuel10W           float64
	DepreciationPerKM float64
	LaborPerDrop      float64
	DefaultToll       float64
}

// DefaultSettings returns the documented fallbacks.
func DefaultSettings() Settings {
	return Settings{
		DieselPrice:       30.00,
		Fuel4W:            11.5,
		Fuel6W:            5.5,
		Fuel10W:           3.5,
		DepreciationPerKM: 3.00,
		LaborPerDrop:      50.00,
		DefaultToll:       100.00,
	}
}

// Input is one haul to price.
type Input struct {
	PlanDate    string
	DistanceKM  float64
	VehicleType string
	// DieselPrice of 0 falls back to the configured pump price.
	DieselPrice float64
	TotalDrops  int
}

// Breakdown is the itemized result; Total is the driver-payable cost.
type Breakdown struct {
	BaseRate     decimal.Decimal `json:"base_rate"`
	FuelCost     decimal.Decimal `json:"fuel_cost"`
	Depreciation decimal.Decimal `json:"depreciation_cost"`
	Labor        decimal.Decimal `json:"labor_cost"`
	Toll         decimal.Decimal `json:"toll"`
	Total        decimal.Decimal `json:"total_driver_cost"`
}

// vehicleOffset maps a vehicle class onto the rate-card column group.
// Trailer hauls price off the 10W column (the card has no trailer
// columns; trailer economics differ only in the fuel term).
func vehicleOffset(vt string) (int, error) {
	switch vt {
	case "4W":
		return 0, nil
	case "6W":
		return 1, nil
	case "10W", "Trailer":
		return 2, nil
	default:
		return 0, fmt.Errorf("vehicle type %q: %w", vt, models.ErrValidation)
	}
}

// dieselTier buckets the pump price into the card's four price groups.
func dieselTier(price float64) int {
	switch {
	case price <= 27.00:
		return 0
	case price <= 30.00:
		return 1
	case price <= 32.00:
		return 2
	default:
		return 3
	}
}

func kmPerLiter(vt string, cfg Settings) float64 {
	switch vt {
	case "Trailer":
		return 2.75
	case "10W":
		return cfg.Fuel10W
	case "6W":
		return cfg.Fuel6W
	default:
		return cfg.Fuel4W
	}
}

// baseRate resolves the rate-card cell for (distance, diesel tier,
// vehicle class). A missing or unparseable card yields 0; the other
// terms still price the haul.
func baseRate(distanceKM, dieselPrice float64, vt string, card []schema.Row) decimal.Decimal {
	if len(card) == 0 {
		return decimal.Zero
	}
	voff, err := vehicleOffset(vt)
	if err != nil {
		return decimal.Zero
	}

	bands := make([]schema.Row, len(card))
	copy(bands, card)
	sort.Slice(bands, func(i, j int) bool {
		return schema.Float(bands[i], "Distance_KM") < schema.Float(bands[j], "Distance_KM")
	})
	// smallest band whose end covers the distance; largest band otherwise
	row := bands[len(bands)-1]
	for _, b := range bands {
		if schema.Float(b, "Distance_KM") >= distanceKM {
			row = b
			break
		}
	}

	cols := schema.Columns(schema.RateCard)
	distIdx := 0
	for i, c := range cols {
		if c == "Distance_KM" {
			distIdx = i
			break
		}
	}
	idx := distIdx + 1 + dieselTier(dieselPrice)*3 + voff
	if idx >= len(cols) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(schema.Float(row, cols[idx]))
}

// Compute prices one haul against a rate card and settings. Negative
// distance is rejected; every other parse failure zeroes only its own
// term.
func Compute(in Input, card []schema.Row, cfg Settings) (Breakdown, error) {
	if in.DistanceKM < 0 {
		return Breakdown{}, fmt.Errorf("distance %.2f km: %w", in.DistanceKM, models.ErrValidation)
	}
	if _, err := vehicleOffset(in.VehicleType); err != nil {
		return Breakdown{}, err
	}
	diesel := in.DieselPrice
	if diesel <= 0 {
		diesel = cfg.DieselPrice
	}
	drops := in.TotalDrops
	if drops <= 0 {
		drops = 1
	}

	dist := decimal.NewFromFloat(in.DistanceKM)
	kpl := kmPerLiter(in.VehicleType, cfg)

	var bd Breakdown
	bd.BaseRate = baseRate(in.DistanceKM, diesel, in.VehicleType, card)
	if kpl > 0 {
		bd.FuelCost = dist.Mul(decimal.NewFromFloat(diesel).Div(decimal.NewFromFloat(kpl)))
	}
	bd.Depreciation = dist.Mul(decimal.NewFromFloat(cfg.DepreciationPerKM))
	bd.Labor = decimal.NewFromInt(int64(drops)).Mul(decimal.NewFromFloat(cfg.LaborPerDrop))
	bd.Toll = decimal.NewFromFloat(cfg.DefaultToll)
	bd.Total = bd.BaseRate.Add(bd.FuelCost).Add(bd.Depreciation).Add(bd.Labor).Add(bd.Toll)
	return bd, nil
}

// Service wires the engine to the repository.
type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service { return &Service{repo: repo} }

// Quote loads the rate card and settings and prices one haul.
func (s *Service) Quote(rc repository.Request, in Input) (Breakdown, error) {
	card, err := s.repo.GetData(rc, repository.Query{Table: schema.RateCard})
	if err != nil {
		// missing rate card is not fatal: base_rate becomes 0
		card = nil
	}
	return Compute(in, card, s.LoadSettings(rc))
}

// LoadSettings reads System_Config, falling back to defaults per key.
func (s *Service) LoadSettings(rc repository.Request) Settings {
	cfg := DefaultSettings()
	rows, err := s.repo.GetData(rc, repository.Query{Table: schema.SystemConfig})
	if err != nil {
		return cfg
	}
	vals := map[string]float64{}
	for _, row := range rows {
		if f := schema.Float(row, "Config_Value"); f != 0 {
			vals[schema.Str(row, "Config_Key")] = f
		}
	}
	if v, ok := vals[models.CfgDieselPrice]; ok {
		cfg.DieselPrice = v
	}
	if v, ok := vals[models.CfgFuel4W]; ok {
		cfg.Fuel4W = v
	}
	if v, ok := vals[models.CfgFuel6W]; ok {
		cfg.Fuel6W = v
	}
	if v, ok := vals[models.CfgFuel10W]; ok {
		cfg.Fuel10W = v
	}
	if v, ok := vals[models.CfgDepreciationPerKM]; ok {
		cfg.DepreciationPerKM = v
	}
	if v, ok := vals[models.CfgLaborPerDrop]; ok {
		cfg.LaborPerDrop = v
	}
	if v, ok := vals[models.CfgDefaultToll]; ok {
		cfg.DefaultToll = v
	}
	return cfg
}
