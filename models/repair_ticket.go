package models

import "strings"

// Repair ticket workshop states (Thai, as the workshop staff enter them).
const (
	RepairOpen       = "รอดำเนินการ"
	RepairInProgress = "กำลังซ่อม"
	RepairWaitParts  = "รออะไหล่"
	RepairDone       = "เสร็จสิ้น"
	RepairCancelled  = "ยกเลิก"
)

// RepairTicket is a Repair_Tickets row. Its Payment_Status mirrors the
// job driver-payment semantics (PENDING / Paid lock).
type RepairTicket struct {
	TicketID     string    `gorm:"column:Ticket_ID;primaryKey" json:"Ticket_ID"`
	DateReport   JSONTime  `gorm:"column:Date_Report;index" json:"Date_Report"`
	VehiclePlate string    `gorm:"column:Vehicle_Plate;index" json:"Vehicle_Plate"`
	DriverID     string    `gorm:"column:Driver_ID" json:"Driver_ID"`
	IssueDesc    string    `gorm:"column:Issue_Desc" json:"Issue_Desc"`
	Status       string    `gorm:"column:Status;default:รอดำเนินการ" json:"Status"`
	VendorName   string    `gorm:"column:Vendor_Name" json:"Vendor_Name"`
	CostTotal    float64   `gorm:"column:Cost_Total" json:"Cost_Total"`
	DateFinish   *JSONTime `gorm:"column:Date_Finish" json:"Date_Finish,omitempty"`

	PaymentStatus  string    `gorm:"column:Payment_Status;default:PENDING" json:"Payment_Status"`
	PaymentDate    *JSONTime `gorm:"column:Payment_Date" json:"Payment_Date,omitempty"`
	PaymentSlipURL string    `gorm:"column:Payment_Slip_Url" json:"Payment_Slip_Url"`

	BranchID string `gorm:"column:Branch_ID;index" json:"Branch_ID"`
}

func (RepairTicket) TableName() string { return "Repair_Tickets" }

// IsRepairTerminal reports whether a ticket has left the workshop flow.
// English archive-era spellings are accepted alongside the Thai forms.
func IsRepairTerminal(status string) bool {
	switch strings.TrimSpace(status) {
	case RepairDone, RepairCancelled:
		return true
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "closed", "rejected":
		return true
	}
	return false
}
