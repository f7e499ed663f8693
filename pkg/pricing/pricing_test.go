package pricing

import (
	"errors"
	"math"
	"testing"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/schema"
)

func testCard() []schema.Row {
	return []schema.Row{
		{"Band_ID": 1, "Distance_KM": 50.0,
			"P1_4W": "800", "P1_6W": "1,200", "P1_10W": "1,800",
			"P2_4W": "850", "P2_6W": "1,280", "P2_10W": "1,900",
			"P3_4W": "900", "P3_6W": "1,350", "P3_10W": "2,000",
			"P4_4W": "950", "P4_6W": "1,430", "P4_10W": "2,100"},
		{"Band_ID": 2, "Distance_KM": 150.0,
			"P1_4W": "1,350", "P1_6W": "2,100", "P1_10W": "3,200",
			"P2_4W": "1,420", "P2_6W": "2,220", "P2_10W": "3,380",
			"P3_4W": "1,500", "P3_6W": "2,350", "P3_10W": "3,550",
			"P4_4W": "1,580", "P4_6W": "2,480", "P4_10W": "3,750"},
		{"Band_ID": 3, "Distance_KM": 400.0,
			"P1_4W": "2,800", "P1_6W": "4,300", "P1_10W": "6,500",
			"P2_4W": "2,950", "P2_6W": "4,550", "P2_10W": "6,850",
			"P3_4W": "3,100", "P3_6W": "4,800", "P3_10W": "7,250",
			"P4_4W": "3,300", "P4_6W": "5,050", "P4_10W": "7,650"},
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.001 {
		t.Errorf("%s = %.4f, want %.4f", name, got, want)
	}
}

func TestComputeStandardHaul(t *testing.T) {
	bd, err := Compute(Input{
		DistanceKM:  120,
		VehicleType: "4W",
		DieselPrice: 31.00,
		TotalDrops:  2,
	}, testCard(), DefaultSettings())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// diesel 31 hits the P3 price group, 120 km falls in the 150 km band
	approx(t, "BaseRate", bd.BaseRate.InexactFloat64(), 1500)
	approx(t, "FuelCost", bd.FuelCost.InexactFloat64(), 120*31.0/11.5)
	approx(t, "Depreciation", bd.Depreciation.InexactFloat64(), 360)
	approx(t, "Labor", bd.Labor.InexactFloat64(), 100)
	approx(t, "Toll", bd.Toll.InexactFloat64(), 100)
	approx(t, "Total", bd.Total.InexactFloat64(), 2383.478260869565)
}

func TestComputeNegativeDistance(t *testing.T) {
	_, err := Compute(Input{DistanceKM: -5, VehicleType: "4W"}, testCard(), DefaultSettings())
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestComputeUnknownVehicle(t *testing.T) {
	_, err := Compute(Input{DistanceKM: 10, VehicleType: "18W"}, testCard(), DefaultSettings())
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestComputeZeroDistance(t *testing.T) {
	bd, err := Compute(Input{DistanceKM: 0, VehicleType: "4W"}, testCard(), DefaultSettings())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// only fixed terms remain: smallest band base, one drop, flat toll
	approx(t, "FuelCost", bd.FuelCost.InexactFloat64(), 0)
	approx(t, "Depreciation", bd.Depreciation.InexactFloat64(), 0)
	approx(t, "Labor", bd.Labor.InexactFloat64(), 50)
	approx(t, "Toll", bd.Toll.InexactFloat64(), 100)
}

func TestComputeDropsDefaultToOne(t *testing.T) {
	bd, err := Compute(Input{DistanceKM: 30, VehicleType: "4W", TotalDrops: 0}, testCard(), DefaultSettings())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	approx(t, "Labor", bd.Labor.InexactFloat64(), 50)
}

func TestComputeMissingRateCard(t *testing.T) {
	bd, err := Compute(Input{DistanceKM: 100, VehicleType: "6W", DieselPrice: 29}, nil, DefaultSettings())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	approx(t, "BaseRate", bd.BaseRate.InexactFloat64(), 0)
	if bd.Total.IsZero() {
		t.Error("total should still include fuel, depreciation, labor and toll")
	}
}

func TestDieselTiers(t *testing.T) {
	tests := []struct {
		price float64
		tier  int
	}{
		{25, 0}, {27, 0}, {27.01, 1}, {30, 1}, {30.5, 2}, {32, 2}, {32.01, 3}, {40, 3},
	}
	for _, tc := range tests {
		if got := dieselTier(tc.price); got != tc.tier {
			t.Errorf("dieselTier(%.2f) = %d, want %d", tc.price, got, tc.tier)
		}
	}
}

func TestTierMonotonicity(t *testing.T) {
	// a higher diesel tier must never produce a cheaper base rate
	card := testCard()
	prev := -1.0
	for _, price := range []float64{26, 29, 31, 35} {
		rate := baseRate(200, price, "10W", card)
		got := rate.InexactFloat64()
		if got < prev {
			t.Errorf("base rate decreased at diesel %.0f: %.2f < %.2f", price, got, prev)
		}
		prev = got
	}
}

func TestTrailerUses10WColumnAndOwnFuelBurn(t *testing.T) {
	cfg := DefaultSettings()
	trailer, err := Compute(Input{DistanceKM: 200, VehicleType: "Trailer", DieselPrice: 31}, testCard(), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	tenW, err := Compute(Input{DistanceKM: 200, VehicleType: "10W", DieselPrice: 31}, testCard(), cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !trailer.BaseRate.Equal(tenW.BaseRate) {
		t.Errorf("trailer base %s, 10W base %s", trailer.BaseRate, tenW.BaseRate)
	}
	approx(t, "trailer fuel", trailer.FuelCost.InexactFloat64(), 200*31.0/2.75)
	if trailer.FuelCost.LessThanOrEqual(tenW.FuelCost) {
		t.Error("trailer burns more fuel per km than a 10W")
	}
}
