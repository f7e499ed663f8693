package models

import "github.com/lib/pq"

// Fuel log approval states.
const (
	FuelPending  = "Pending"
	FuelApproved = "Approved"
	FuelRejected = "Rejected"
)

// FuelLog is a Fuel_Logs per-refuel row submitted from the driver app.
type FuelLog struct {
	LogID         string         `gorm:"column:Log_ID;primaryKey" json:"Log_ID"`
	DateTime      JSONTime       `gorm:"column:Date_Time;index" json:"Date_Time"`
	VehiclePlate  string         `gorm:"column:Vehicle_Plate;index" json:"Vehicle_Plate"`
	DriverID      string         `gorm:"column:Driver_ID;index" json:"Driver_ID"`
	DriverName    string         `gorm:"column:Driver_Name" json:"Driver_Name"`
	Odometer      float64        `gorm:"column:Odometer" json:"Odometer"`
	Liters        float64        `gorm:"column:Liters" json:"Liters"`
	PricePerLiter float64        `gorm:"column:Price_Per_Liter" json:"Price_Per_Liter"`
	PriceTotal    float64        `gorm:"column:Price_Total" json:"Price_Total"`
	StationName   string         `gorm:"column:Station_Name" json:"Station_Name"`
	BillPhotoURLs pq.StringArray `gorm:"column:Bill_Photo_Urls;type:text[]" json:"Bill_Photo_Urls"`
	Status        string         `gorm:"column:Status;default:Pending" json:"Status"`
	BranchID      string         `gorm:"column:Branch_ID;index" json:"Branch_ID"`
}

func (FuelLog) TableName() string { return "Fuel_Logs" }
