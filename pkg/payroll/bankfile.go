package payroll

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// bankCodes maps a case-insensitive substring of the driver's bank name
// to the 3-digit SCB transfer code. Order matters: first match wins.
var bankCodes = []struct {
	substr string
	code   string
}{
	{"SCB", "014"}, {"ไทยพาณิชย์", "014"},
	{"K-BANK", "004"}, {"KBANK", "004"}, {"กสิกร", "004"},
	{"BBL", "002"}, {"กรุงเทพ", "002"},
	{"KTB", "006"}, {"กรุงไทย", "006"},
	{"TTB", "011"}, {"TMB", "011"}, {"THANACHART", "011"},
	{"BAY", "025"}, {"กรุงศรี", "025"},
	{"GSB", "030"}, {"ออมสิน", "030"},
	{"UOB", "024"}, {"ยูโอบี", "024"},
	{"BAAC", "034"}, {"ธกส", "034"},
	{"TISCO", "067"}, {"ทิสโก้", "067"},
	{"KKP", "069"}, {"เกียรตินาคิน", "069"},
	{"CIMB", "022"},
	{"LHBANK", "073"},
}

// defaultBankCode is the documented production choice for drivers whose
// bank field was never filled.
const defaultBankCode = "014"

// BankCode resolves a bank name. An empty name gets the documented
// default; a non-empty name that matches nothing needs operator
// resolution and fails with ErrUnknownBank.
func BankCode(bankName string) (string, error) {
	name := strings.TrimSpace(bankName)
	if name == "" {
		return defaultBankCode, nil
	}
	upper := strings.ToUpper(name)
	for _, e := range bankCodes {
		if strings.Contains(upper, e.substr) {
			return e.code, nil
		}
	}
	return "", fmt.Errorf("bank %q: %w", bankName, models.ErrUnknownBank)
}

// accountDigits strips everything except digits from the account number.
func accountDigits(acct string) string {
	var b strings.Builder
	for _, r := range acct {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "MISSING_ACCOUNT"
	}
	return b.String()
}

// truncateName caps the receiving name at 50 runes.
func truncateName(name string) string {
	r := []rune(name)
	if len(r) > 50 {
		return string(r[:50])
	}
	return name
}

// buildBankFile renders the SCB payroll batch: UTF-8 with BOM, no
// header, one row per driver in the batch carrying the net amount.
func (s *Service) buildBankFile(rc repository.Request, driverOrder []string, byDriver map[string][]schema.Row, whtRate float64, now time.Time) (File, error) {
	driverRows, err := s.repo.GetData(rc, repository.Query{Table: schema.Drivers, AllBranches: true})
	if err != nil {
		return File{}, err
	}
	masters := map[string]schema.Row{}
	for _, d := range driverRows {
		masters[schema.Str(d, "Driver_ID")] = d
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	for _, drv := range driverOrder {
		jobs := byDriver[drv]
		_, _, net := grossNet(jobs, whtRate)

		master := masters[drv]
		code, err := BankCode(schema.Str(master, "Bank_Name"))
		if err != nil {
			return File{}, err
		}
		name := schema.Str(master, "Bank_Account_Name")
		if name == "" {
			name = schema.Str(jobs[0], "Driver_Name")
		}
		record := []string{
			accountDigits(schema.Str(master, "Bank_Account_No")),
			net.StringFixed(2),
			code,
			truncateName(name),
			"TMS Payroll",
			drv,
			"",
		}
		if err := w.Write(record); err != nil {
			return File{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return File{}, err
	}
	return File{
		Name: "SCB_Payroll_" + now.Format("200601021504") + ".csv",
		Data: buf.Bytes(),
	}, nil
}
