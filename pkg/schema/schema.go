// Package schema is the static registry of table shapes: canonical
// column lists, primary keys, branch scoping and recency columns. The
// repository rejects any write carrying a column this registry does not
// know.
package schema

import "fmt"

// Row is a single record keyed by canonical column name.
type Row = map[string]interface{}

// Table names.
const (
	Jobs          = "Jobs_Main"
	Drivers       = "Master_Drivers"
	Customers     = "Master_Customers"
	Routes        = "Master_Routes"
	Users         = "Master_Users"
	Vehicles      = "Master_Vehicles"
	FuelLogs      = "Fuel_Logs"
	RepairTickets = "Repair_Tickets"
	RateCard      = "Rate_Card"
	SystemLogs    = "System_Logs"
	SystemConfig  = "System_Config"
	UserPrefs     = "User_Prefs"
	Notifications = "Notifications"
)

type tableDef struct {
	pk      string
	columns []string
	// timeCol is the column a days_back recency window filters on.
	timeCol string
	branch  bool
}

var tables = map[string]tableDef{
	Jobs: {
		pk:      "Job_ID",
		timeCol: "Plan_Date",
		branch:  true,
		columns: []string{
			"Job_ID", "Plan_Date", "Branch_ID", "Customer_ID", "Customer_Name",
			"Route_Name", "Origin_Location", "Dest_Location", "Vehicle_Type",
			"Distance_KM", "Total_Drops",
			"Driver_ID", "Driver_Name", "Vehicle_Plate", "Job_Status",
			"Price_Cust_Base", "Price_Cust_Extra", "Charge_Labor", "Charge_Wait",
			"Price_Cust_Return", "Price_Cust_Fuel", "Price_Cust_Trailer",
			"Price_Cust_Other", "Price_Cust_Total",
			"Cost_Driver_Base", "Cost_Driver_Extra", "Cost_Driver_Labor",
			"Cost_Driver_Wait", "Cost_Driver_Return", "Cost_Driver_Fuel",
			"Cost_Driver_Trailer", "Cost_Driver_Other", "Cost_Driver_Total",
			"Payment_Status", "Payment_Date", "Payment_Slip_Url",
			"Billing_Status", "Invoice_No", "Billing_Date",
			"Customer_Payment_Status", "Customer_Payment_Date", "Customer_Payment_Slip_Url",
			"Actual_Pickup_Time", "Arrive_Dest_Time", "Actual_Delivery_Time",
			"Delivery_Lat", "Delivery_Lon", "Photo_Proof_Url", "Signature_Url",
			"Remark",
		},
	},
	Drivers: {
		pk:     "Driver_ID",
		branch: true,
		columns: []string{
			"Driver_ID", "Driver_Name", "Phone", "Branch_ID", "Vehicle_Plate",
			"Vehicle_Type", "Current_Mileage", "Next_Service_Mileage",
			"Insurance_Expiry", "Tax_Expiry", "Act_Expiry",
			"Bank_Name", "Bank_Account_No", "Bank_Account_Name",
			"Current_Lat", "Current_Lon", "Last_Update", "Active_Status", "Photo_Url",
		},
	},
	Customers: {
		pk:     "Customer_ID",
		branch: true,
		columns: []string{
			"Customer_ID", "Customer_Name", "Address", "Tax_ID", "Phone", "Email",
			"Credit_Term_Days", "Default_Lat", "Default_Lon", "Branch_ID",
		},
	},
	Routes: {
		pk:     "Route_ID",
		branch: true,
		columns: []string{
			"Route_ID", "Route_Name", "Origin_Location", "Dest_Location",
			"Distance_KM", "Price_4W", "Price_6W", "Price_10W", "Price_Trailer",
			"Cost_Driver_Std", "Branch_ID",
		},
	},
	Users: {
		pk: "Username",
		columns: []string{
			"Username", "Password_Hash", "Display_Name", "Role", "Branch_ID",
			"Active_Status", "Last_Login",
		},
	},
	Vehicles: {
		pk:     "Vehicle_Plate",
		branch: true,
		columns: []string{
			"Vehicle_Plate", "Vehicle_Type", "Brand", "Model", "Branch_ID",
			"Active_Status",
		},
	},
	FuelLogs: {
		pk:      "Log_ID",
		timeCol: "Date_Time",
		branch:  true,
		columns: []string{
			"Log_ID", "Date_Time", "Vehicle_Plate", "Driver_ID", "Driver_Name",
			"Odometer", "Liters", "Price_Per_Liter", "Price_Total",
			"Station_Name", "Bill_Photo_Urls", "Status", "Branch_ID",
		},
	},
	RepairTickets: {
		pk:      "Ticket_ID",
		timeCol: "Date_Report",
		branch:  true,
		columns: []string{
			"Ticket_ID", "Date_Report", "Vehicle_Plate", "Driver_ID", "Issue_Desc",
			"Status", "Vendor_Name", "Cost_Total", "Date_Finish",
			"Payment_Status", "Payment_Date", "Payment_Slip_Url", "Branch_ID",
		},
	},
	RateCard: {
		pk: "Band_ID",
		columns: []string{
			"Band_ID", "Distance_KM",
			"P1_4W", "P1_6W", "P1_10W",
			"P2_4W", "P2_6W", "P2_10W",
			"P3_4W", "P3_6W", "P3_10W",
			"P4_4W", "P4_6W", "P4_10W",
		},
	},
	SystemLogs: {
		pk:      "Log_ID",
		timeCol: "Timestamp",
		columns: []string{
			"Log_ID", "Timestamp", "User_ID", "Action", "Target", "Details", "Status",
		},
	},
	SystemConfig: {
		pk:      "Config_Key",
		columns: []string{"Config_Key", "Config_Value", "Description"},
	},
	UserPrefs: {
		pk:      "User_ID",
		columns: []string{"User_ID", "Dismissed_Alerts", "Seen_Timestamps", "Last_Viewed"},
	},
	Notifications: {
		pk:      "Notification_ID",
		timeCol: "Created_At",
		columns: []string{
			"Notification_ID", "Driver_ID", "Title", "Body", "Ref_ID", "Status",
			"Created_At",
		},
	},
}

// Known reports whether the registry carries the table.
func Known(table string) bool {
	_, ok := tables[table]
	return ok
}

// Columns returns the ordered canonical column list for a table.
func Columns(table string) []string {
	def, ok := tables[table]
	if !ok {
		return nil
	}
	out := make([]string, len(def.columns))
	copy(out, def.columns)
	return out
}

// HasColumn reports whether table carries the named column.
func HasColumn(table, col string) bool {
	for _, c := range tables[table].columns {
		if c == col {
			return true
		}
	}
	return false
}

// PK returns the primary key column for a table, or an error for an
// unregistered table.
func PK(table string) (string, error) {
	def, ok := tables[table]
	if !ok {
		return "", fmt.Errorf("schema: unknown table %q", table)
	}
	return def.pk, nil
}

// HasBranch reports whether reads on the table are branch scoped.
func HasBranch(table string) bool { return tables[table].branch }

// TimeColumn returns the column a recency window filters on; empty means
// the table has no primary timestamp.
func TimeColumn(table string) string { return tables[table].timeCol }

// Tables returns all registered table names.
func Tables() []string {
	out := make([]string, 0, len(tables))
	for name := range tables {
		out = append(out, name)
	}
	return out
}

// Str reads a row value as string; nil and absent become "".
func Str(row Row, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprintf("%v", v)
}
