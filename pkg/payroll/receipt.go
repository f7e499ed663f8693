package payroll

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"p9e.in/tms/pkg/bahttext"
	"p9e.in/tms/pkg/schema"
)

// newPDF builds a landscape A4 document. When TMS_PDF_FONT points at a
// TTF with Thai glyphs it is registered as the body font; otherwise the
// core font renders (Thai labels degrade but the layout holds).
func newPDF() (*gofpdf.Fpdf, string) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	font := "Arial"
	if path := os.Getenv("TMS_PDF_FONT"); path != "" {
		if _, err := os.Stat(path); err == nil {
			pdf.AddUTF8Font("thai", "", path)
			font = "thai"
		}
	}
	return pdf, font
}

// sanitizeFilename keeps alphanumerics, space, dot, underscore and dash.
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

// buildReceipt renders one driver's payment receipt.
func buildReceipt(rows []schema.Row, whtRate float64, now time.Time) (File, error) {
	driverName := schema.Str(rows[0], "Driver_Name")
	pdf, font := newPDF()
	pdf.AddPage()

	pdf.SetFont(font, "", 16)
	pdf.CellFormat(0, 10, "TMS Transport Co., Ltd. - Driver Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Driver: %s", driverName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", now.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	headers := []string{"No", "Job_ID", "Origin", "Dest", "Wage", "Return", "Wait", "Other", "Total"}
	widths := []float64{12, 55, 45, 45, 25, 25, 25, 25, 25}
	pdf.SetFont(font, "", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	for i, j := range rows {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			schema.Str(j, "Job_ID"),
			schema.Str(j, "Origin_Location"),
			schema.Str(j, "Dest_Location"),
			fmt.Sprintf("%.2f", schema.Float(j, "Cost_Driver_Base")),
			fmt.Sprintf("%.2f", schema.Float(j, "Cost_Driver_Return")),
			fmt.Sprintf("%.2f", schema.Float(j, "Cost_Driver_Wait")),
			fmt.Sprintf("%.2f", schema.Float(j, "Cost_Driver_Other")),
			fmt.Sprintf("%.2f", schema.Float(j, "Cost_Driver_Total")),
		}
		for k, c := range cells {
			align := "L"
			if k >= 4 {
				align = "R"
			}
			pdf.CellFormat(widths[k], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	gross, wht, net := grossNet(rows, whtRate)
	pdf.Ln(4)
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Gross: %s THB", gross.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("WHT %.0f%%: -%s THB", whtRate*100, wht.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Net: %s THB", net.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("(%s)", bahttext.Text(net)), "", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.CellFormat(120, 7, "Payer signature: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Driver signature: ____________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return File{}, err
	}
	name := fmt.Sprintf("Receipt_%s_%s.pdf", sanitizeFilename(driverName), now.Format("20060102150405"))
	return File{Name: name, Data: buf.Bytes()}, nil
}
