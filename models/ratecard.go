package models

// RateCardRow is one distance band of the Rate_Card matrix. The twelve
// price columns are ordered diesel tier 1..4 × vehicle class 4W/6W/10W,
// matching the column order the pricing engine indexes into.
type RateCardRow struct {
	BandID     int     `gorm:"column:Band_ID;primaryKey;autoIncrement" json:"Band_ID"`
	DistanceKM float64 `gorm:"column:Distance_KM" json:"Distance_KM"`

	P1_4W  string `gorm:"column:P1_4W" json:"P1_4W"`
	P1_6W  string `gorm:"column:P1_6W" json:"P1_6W"`
	P1_10W string `gorm:"column:P1_10W" json:"P1_10W"`
	P2_4W  string `gorm:"column:P2_4W" json:"P2_4W"`
	P2_6W  string `gorm:"column:P2_6W" json:"P2_6W"`
	P2_10W string `gorm:"column:P2_10W" json:"P2_10W"`
	P3_4W  string `gorm:"column:P3_4W" json:"P3_4W"`
	P3_6W  string `gorm:"column:P3_6W" json:"P3_6W"`
	P3_10W string `gorm:"column:P3_10W" json:"P3_10W"`
	P4_4W  string `gorm:"column:P4_4W" json:"P4_4W"`
	P4_6W  string `gorm:"column:P4_6W" json:"P4_6W"`
	P4_10W string `gorm:"column:P4_10W" json:"P4_10W"`
}

func (RateCardRow) TableName() string { return "Rate_Card" }
