package models

// Customer is a Master_Customers row.
type Customer struct {
	CustomerID     string  `gorm:"column:Customer_ID;primaryKey" json:"Customer_ID"`
	CustomerName   string  `gorm:"column:Customer_Name;not null" json:"Customer_Name"`
	Address        string  `gorm:"column:Address" json:"Address"`
	TaxID          string  `gorm:"column:Tax_ID" json:"Tax_ID"`
	Phone          string  `gorm:"column:Phone" json:"Phone"`
	Email          string  `gorm:"column:Email" json:"Email"`
	CreditTermDays int     `gorm:"column:Credit_Term_Days;default:30" json:"Credit_Term_Days"`
	DefaultLat     float64 `gorm:"column:Default_Lat" json:"Default_Lat"`
	DefaultLon     float64 `gorm:"column:Default_Lon" json:"Default_Lon"`
	BranchID       string  `gorm:"column:Branch_ID;index" json:"Branch_ID"`
}

func (Customer) TableName() string { return "Master_Customers" }

// Route is a Master_Routes row with standard prices per vehicle class.
type Route struct {
	RouteID       string  `gorm:"column:Route_ID;primaryKey" json:"Route_ID"`
	RouteName     string  `gorm:"column:Route_Name;not null" json:"Route_Name"`
	Origin        string  `gorm:"column:Origin_Location" json:"Origin_Location"`
	Dest          string  `gorm:"column:Dest_Location" json:"Dest_Location"`
	DistanceKM    float64 `gorm:"column:Distance_KM" json:"Distance_KM"`
	Price4W       float64 `gorm:"column:Price_4W" json:"Price_4W"`
	Price6W       float64 `gorm:"column:Price_6W" json:"Price_6W"`
	Price10W      float64 `gorm:"column:Price_10W" json:"Price_10W"`
	PriceTrailer  float64 `gorm:"column:Price_Trailer" json:"Price_Trailer"`
	CostDriverStd float64 `gorm:"column:Cost_Driver_Std" json:"Cost_Driver_Std"`
	BranchID      string  `gorm:"column:Branch_ID;index" json:"Branch_ID"`
}

func (Route) TableName() string { return "Master_Routes" }

// Vehicle is a Master_Vehicles row, keyed by plate.
type Vehicle struct {
	VehiclePlate string `gorm:"column:Vehicle_Plate;primaryKey" json:"Vehicle_Plate"`
	VehicleType  string `gorm:"column:Vehicle_Type" json:"Vehicle_Type"`
	Brand        string `gorm:"column:Brand" json:"Brand"`
	Model        string `gorm:"column:Model" json:"Model"`
	BranchID     string `gorm:"column:Branch_ID;index" json:"Branch_ID"`
	ActiveStatus string `gorm:"column:Active_Status;default:Active" json:"Active_Status"`
}

func (Vehicle) TableName() string { return "Master_Vehicles" }

// User is a Master_Users back-office account. PasswordHash holds an
// argon2id encoded string; legacy rows may still carry SHA-256 hex or
// plaintext and are rehashed on first successful login.
type User struct {
	Username     string    `gorm:"column:Username;primaryKey" json:"Username"`
	PasswordHash string    `gorm:"column:Password_Hash" json:"-"`
	DisplayName  string    `gorm:"column:Display_Name" json:"Display_Name"`
	Role         string    `gorm:"column:Role;default:staff" json:"Role"`
	BranchID     string    `gorm:"column:Branch_ID" json:"Branch_ID"`
	ActiveStatus string    `gorm:"column:Active_Status;default:Active" json:"Active_Status"`
	LastLogin    *JSONTime `gorm:"column:Last_Login" json:"Last_Login,omitempty"`
}

func (User) TableName() string { return "Master_Users" }
