package models

import (
	"fmt"
	"time"
)

// Job is the central row of Jobs_Main. Column names mirror the sheet-era
// schema the mobile and admin clients still speak, so every field carries
// an explicit column tag.
type Job struct {
	JobID      string `gorm:"column:Job_ID;primaryKey" json:"Job_ID"`
	PlanDate   string `gorm:"column:Plan_Date;index" json:"Plan_Date"`
	BranchID   string `gorm:"column:Branch_ID;index" json:"Branch_ID"`
	CustomerID string `gorm:"column:Customer_ID;index" json:"Customer_ID"`
	CustName   string `gorm:"column:Customer_Name" json:"Customer_Name"`
	RouteName  string `gorm:"column:Route_Name" json:"Route_Name"`
	Origin     string `gorm:"column:Origin_Location" json:"Origin_Location"`
	Dest       string `gorm:"column:Dest_Location" json:"Dest_Location"`
	// 4W, 6W, 10W or Trailer
	VehicleType string  `gorm:"column:Vehicle_Type" json:"Vehicle_Type"`
	DistanceKM  float64 `gorm:"column:Distance_KM" json:"Distance_KM"`
	TotalDrops  int     `gorm:"column:Total_Drops;default:1" json:"Total_Drops"`

	DriverID     string `gorm:"column:Driver_ID;index" json:"Driver_ID"`
	DriverName   string `gorm:"column:Driver_Name" json:"Driver_Name"`
	VehiclePlate string `gorm:"column:Vehicle_Plate" json:"Vehicle_Plate"`

	JobStatus string `gorm:"column:Job_Status;index" json:"Job_Status"`

	PriceCustBase    float64 `gorm:"column:Price_Cust_Base" json:"Price_Cust_Base"`
	PriceCustExtra   float64 `gorm:"column:Price_Cust_Extra" json:"Price_Cust_Extra"`
	ChargeLabor      float64 `gorm:"column:Charge_Labor" json:"Charge_Labor"`
	ChargeWait       float64 `gorm:"column:Charge_Wait" json:"Charge_Wait"`
	PriceCustReturn  float64 `gorm:"column:Price_Cust_Return" json:"Price_Cust_Return"`
	PriceCustFuel    float64 `gorm:"column:Price_Cust_Fuel" json:"Price_Cust_Fuel"`
	PriceCustTrailer float64 `gorm:"column:Price_Cust_Trailer" json:"Price_Cust_Trailer"`
	PriceCustOther   float64 `gorm:"column:Price_Cust_Other" json:"Price_Cust_Other"`
	PriceCustTotal   float64 `gorm:"column:Price_Cust_Total" json:"Price_Cust_Total"`

	CostDriverBase    float64 `gorm:"column:Cost_Driver_Base" json:"Cost_Driver_Base"`
	CostDriverExtra   float64 `gorm:"column:Cost_Driver_Extra" json:"Cost_Driver_Extra"`
	CostDriverLabor   float64 `gorm:"column:Cost_Driver_Labor" json:"Cost_Driver_Labor"`
	CostDriverWait    float64 `gorm:"column:Cost_Driver_Wait" json:"Cost_Driver_Wait"`
	CostDriverReturn  float64 `gorm:"column:Cost_Driver_Return" json:"Cost_Driver_Return"`
	CostDriverFuel    float64 `gorm:"column:Cost_Driver_Fuel" json:"Cost_Driver_Fuel"`
	CostDriverTrailer float64 `gorm:"column:Cost_Driver_Trailer" json:"Cost_Driver_Trailer"`
	CostDriverOther   float64 `gorm:"column:Cost_Driver_Other" json:"Cost_Driver_Other"`
	CostDriverTotal   float64 `gorm:"column:Cost_Driver_Total" json:"Cost_Driver_Total"`

	PaymentStatus  string    `gorm:"column:Payment_Status;index" json:"Payment_Status"`
	PaymentDate    *JSONTime `gorm:"column:Payment_Date" json:"Payment_Date,omitempty"`
	PaymentSlipURL string    `gorm:"column:Payment_Slip_Url" json:"Payment_Slip_Url"`

	BillingStatus       string    `gorm:"column:Billing_Status;index" json:"Billing_Status"`
	InvoiceNo           string    `gorm:"column:Invoice_No;index" json:"Invoice_No"`
	BillingDate         *JSONTime `gorm:"column:Billing_Date" json:"Billing_Date,omitempty"`
	CustPaymentStatus   string    `gorm:"column:Customer_Payment_Status" json:"Customer_Payment_Status"`
	CustPaymentDate     *JSONTime `gorm:"column:Customer_Payment_Date" json:"Customer_Payment_Date,omitempty"`
	CustPaymentSlipURL  string    `gorm:"column:Customer_Payment_Slip_Url" json:"Customer_Payment_Slip_Url"`

	ActualPickupTime   *JSONTime `gorm:"column:Actual_Pickup_Time" json:"Actual_Pickup_Time,omitempty"`
	ArriveDestTime     *JSONTime `gorm:"column:Arrive_Dest_Time" json:"Arrive_Dest_Time,omitempty"`
	ActualDeliveryTime *JSONTime `gorm:"column:Actual_Delivery_Time" json:"Actual_Delivery_Time,omitempty"`
	DeliveryLat        float64   `gorm:"column:Delivery_Lat" json:"Delivery_Lat"`
	DeliveryLon        float64   `gorm:"column:Delivery_Lon" json:"Delivery_Lon"`
	PhotoProofURL      string    `gorm:"column:Photo_Proof_Url" json:"Photo_Proof_Url"`
	SignatureURL       string    `gorm:"column:Signature_Url" json:"Signature_Url"`

	Remark string `gorm:"column:Remark" json:"Remark"`
}

func (Job) TableName() string { return "Jobs_Main" }

// NewJobID generates the app-side job key, e.g. JOB-20250115-142233-512.
func NewJobID(now time.Time) string {
	return fmt.Sprintf("JOB-%s-%03d",
		now.Format("20060102-150405"), now.Nanosecond()/int(time.Millisecond))
}
