package schema

// Demo values used by import templates. Only columns a clerk is expected
// to fill are present; everything else stays blank in the template row.
var sampleRows = map[string]Row{
	Jobs: {
		"Job_ID":          "JOB-20250101-080000-001",
		"Plan_Date":       "2025-01-15",
		"Branch_ID":       "BKK",
		"Customer_ID":     "CUST-001",
		"Customer_Name":   "บจก. ตัวอย่างขนส่ง",
		"Route_Name":      "BKK-CNX",
		"Origin_Location": "กรุงเทพฯ",
		"Dest_Location":   "เชียงใหม่",
		"Vehicle_Type":    "6W",
		"Distance_KM":     696.0,
		"Total_Drops":     1,
		"Job_Status":      "New",
		"Price_Cust_Base": 12000.0,
		"Price_Cust_Total": 12000.0,
		"Cost_Driver_Base": 4500.0,
		"Cost_Driver_Total": 4500.0,
		"Payment_Status":  "PENDING",
		"Billing_Status":  "รอวางบิล",
	},
	Drivers: {
		"Driver_ID":            "DRV-001",
		"Driver_Name":          "สมชาย ใจดี",
		"Phone":                "0812345678",
		"Branch_ID":            "BKK",
		"Vehicle_Plate":        "70-1234",
		"Vehicle_Type":         "6W",
		"Current_Mileage":      152000.0,
		"Next_Service_Mileage": 160000.0,
		"Bank_Name":            "KBANK",
		"Bank_Account_No":      "012-3-45678-9",
		"Bank_Account_Name":    "สมชาย ใจดี",
		"Active_Status":        "Active",
	},
	Customers: {
		"Customer_ID":      "CUST-001",
		"Customer_Name":    "บจก. ตัวอย่างขนส่ง",
		"Address":          "99/9 ถ.พระราม 9 กรุงเทพฯ",
		"Tax_ID":           "0105551234567",
		"Phone":            "021234567",
		"Email":            "ap@example.co.th",
		"Credit_Term_Days": 30,
		"Branch_ID":        "BKK",
	},
	Routes: {
		"Route_ID":        "RT-001",
		"Route_Name":      "BKK-CNX",
		"Origin_Location": "กรุงเทพฯ",
		"Dest_Location":   "เชียงใหม่",
		"Distance_KM":     696.0,
		"Price_4W":        8500.0,
		"Price_6W":        12000.0,
		"Price_10W":       16500.0,
		"Price_Trailer":   21000.0,
		"Cost_Driver_Std": 4500.0,
		"Branch_ID":       "BKK",
	},
	Vehicles: {
		"Vehicle_Plate": "70-1234",
		"Vehicle_Type":  "6W",
		"Brand":         "HINO",
		"Model":         "FC9J",
		"Branch_ID":     "BKK",
		"Active_Status": "Active",
	},
	FuelLogs: {
		"Log_ID":         "FUEL-20250101-001",
		"Date_Time":      "2025-01-15 08:30:00",
		"Vehicle_Plate":  "70-1234",
		"Driver_ID":      "DRV-001",
		"Odometer":       152100.0,
		"Liters":         180.5,
		"Price_Per_Liter": 31.94,
		"Price_Total":    5765.17,
		"Station_Name":   "ปตท. ลำลูกกา",
		"Status":         "Pending",
		"Branch_ID":      "BKK",
	},
	RepairTickets: {
		"Ticket_ID":     "TCK-20250101-001",
		"Date_Report":   "2025-01-10 09:00:00",
		"Vehicle_Plate": "70-1234",
		"Issue_Desc":    "เบรกมีเสียง",
		"Status":        "รอดำเนินการ",
		"Vendor_Name":   "อู่ช่างเล็ก",
		"Cost_Total":    3500.0,
		"Branch_ID":     "BKK",
	},
}

// SampleRow returns a partial row of demo values for a table; nil when
// the table has no template.
func SampleRow(table string) Row {
	src, ok := sampleRows[table]
	if !ok {
		return nil
	}
	out := make(Row, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Template returns the header row plus one sample row, ordered by the
// canonical column list. Columns absent from the sample are empty.
func Template(table string) (headers []string, sample []string) {
	headers = Columns(table)
	if headers == nil {
		return nil, nil
	}
	row := SampleRow(table)
	sample = make([]string, len(headers))
	for i, col := range headers {
		if row != nil {
			sample[i] = Str(row, col)
		}
	}
	return headers, sample
}
