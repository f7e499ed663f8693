package models

// Driver is a Master_Drivers row: identity, assigned truck, maintenance
// counters, document expiries, bank details and the latest GPS snapshot.
type Driver struct {
	DriverID     string `gorm:"column:Driver_ID;primaryKey" json:"Driver_ID"`
	DriverName   string `gorm:"column:Driver_Name;not null" json:"Driver_Name"`
	Phone        string `gorm:"column:Phone" json:"Phone"`
	BranchID     string `gorm:"column:Branch_ID;index" json:"Branch_ID"`
	VehiclePlate string `gorm:"column:Vehicle_Plate;index" json:"Vehicle_Plate"`
	VehicleType  string `gorm:"column:Vehicle_Type" json:"Vehicle_Type"`

	CurrentMileage     float64 `gorm:"column:Current_Mileage" json:"Current_Mileage"`
	NextServiceMileage float64 `gorm:"column:Next_Service_Mileage" json:"Next_Service_Mileage"`

	InsuranceExpiry *JSONTime `gorm:"column:Insurance_Expiry" json:"Insurance_Expiry,omitempty"`
	TaxExpiry       *JSONTime `gorm:"column:Tax_Expiry" json:"Tax_Expiry,omitempty"`
	ActExpiry       *JSONTime `gorm:"column:Act_Expiry" json:"Act_Expiry,omitempty"`

	BankName        string `gorm:"column:Bank_Name" json:"Bank_Name"`
	BankAccountNo   string `gorm:"column:Bank_Account_No" json:"Bank_Account_No"`
	BankAccountName string `gorm:"column:Bank_Account_Name" json:"Bank_Account_Name"`

	CurrentLat float64   `gorm:"column:Current_Lat" json:"Current_Lat"`
	CurrentLon float64   `gorm:"column:Current_Lon" json:"Current_Lon"`
	LastUpdate *JSONTime `gorm:"column:Last_Update" json:"Last_Update,omitempty"`

	ActiveStatus string `gorm:"column:Active_Status;default:Active" json:"Active_Status"`
	PhotoURL     string `gorm:"column:Photo_Url" json:"Photo_Url"`
}

func (Driver) TableName() string { return "Master_Drivers" }

func (d Driver) IsActive() bool {
	return d.ActiveStatus == "" || d.ActiveStatus == "Active"
}
