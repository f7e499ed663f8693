package billing

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"p9e.in/tms/pkg/bahttext"
	"p9e.in/tms/pkg/schema"
)

// carbonPerKM is the diesel-haul emission factor (kgCO2e per km) by
// vehicle class, shown per line on the customer invoice.
var carbonPerKM = map[string]float64{
	"4W":      0.25,
	"6W":      0.50,
	"10W":     0.77,
	"Trailer": 0.98,
}

func carbonKg(row schema.Row) float64 {
	return schema.Float(row, "Distance_KM") * carbonPerKM[schema.Str(row, "Vehicle_Type")]
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r),
			r == ' ', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimSpace(b.String())
}

// buildInvoicePDF renders a landscape A4 customer invoice.
func buildInvoicePDF(inv *Invoice, jobs []schema.Row, taxRate float64) (File, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	font := "Arial"
	if path := os.Getenv("TMS_PDF_FONT"); path != "" {
		if _, err := os.Stat(path); err == nil {
			pdf.AddUTF8Font("thai", "", path)
			font = "thai"
		}
	}
	pdf.AddPage()

	pdf.SetFont(font, "", 16)
	pdf.CellFormat(0, 10, "TMS Transport Co., Ltd. - Tax Invoice", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(140, 6, fmt.Sprintf("Customer: %s", inv.Customer), "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice No: %s", inv.InvoiceNo), "1", 1, "L", false, 0, "")
	pdf.CellFormat(140, 6, fmt.Sprintf("Address: %s", inv.CustomerAddress), "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", inv.Date), "1", 1, "L", false, 0, "")
	pdf.CellFormat(140, 6, fmt.Sprintf("Tax ID: %s", inv.CustomerTaxID), "1", 1, "L", false, 0, "")
	pdf.Ln(3)

	headers := []string{"No", "Date", "Type", "Origin", "Destination", "CarbonKgCO2e", "Wage", "Extra", "Labor", "Wait", "Other", "Total"}
	widths := []float64{10, 24, 14, 38, 38, 26, 22, 20, 20, 20, 20, 25}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(font, "", 9)
	for i, j := range jobs {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			schema.Str(j, "Plan_Date"),
			schema.Str(j, "Vehicle_Type"),
			schema.Str(j, "Origin_Location"),
			schema.Str(j, "Dest_Location"),
			fmt.Sprintf("%.1f", carbonKg(j)),
			fmt.Sprintf("%.2f", schema.Float(j, "Price_Cust_Base")),
			fmt.Sprintf("%.2f", schema.Float(j, "Price_Cust_Extra")),
			fmt.Sprintf("%.2f", schema.Float(j, "Charge_Labor")),
			fmt.Sprintf("%.2f", schema.Float(j, "Charge_Wait")),
			fmt.Sprintf("%.2f", schema.Float(j, "Price_Cust_Other")),
			fmt.Sprintf("%.2f", schema.Float(j, "Price_Cust_Total")),
		}
		for k, c := range cells {
			align := "L"
			if k >= 5 {
				align = "R"
			}
			pdf.CellFormat(widths[k], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	subtotal := decimal.NewFromFloat(inv.TotalAmount)
	pdf.Ln(4)
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Subtotal: %s THB", subtotal.StringFixed(2)), "", 1, "R", false, 0, "")
	if taxRate > 0 {
		pdf.CellFormat(0, 7, fmt.Sprintf("Tax %.0f%%: %s THB", taxRate*100,
			decimal.NewFromFloat(inv.TaxAmount).StringFixed(2)), "", 1, "R", false, 0, "")
	}
	grand := decimal.NewFromFloat(inv.GrandTotal)
	pdf.CellFormat(0, 8, fmt.Sprintf("Grand Total: %s THB", grand.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("(%s)", bahttext.Text(grand)), "", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.CellFormat(120, 7, "Issued by: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Received by: ____________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return File{}, err
	}
	name := fmt.Sprintf("Invoice_%s_%s.pdf", inv.InvoiceNo, sanitizeFilename(inv.Customer))
	return File{Name: name, Data: buf.Bytes()}, nil
}
