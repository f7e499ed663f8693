// Package payroll aggregates completed jobs per driver and runs the
// PENDING -> Paid transition, emitting receipt PDFs and the bank
// transfer batch file. Re-runs are idempotent and the transition is
// guarded against concurrent admins.
package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// DefaultWHTRate is the statutory 1% withholding on transport driver
// payments. Applied to the receipt and the transfer amount only; the
// stored Cost_Driver_Total stays gross.
const DefaultWHTRate = 0.01

// paidForms are the spellings a Paid row may carry; the conditional
// update excludes all of them.
var paidForms = []string{"Paid", "PAID", "paid", "จ่ายแล้ว"}

// Summary is one driver's aggregate over a payroll window.
type Summary struct {
	DriverID      string  `json:"Driver_ID"`
	DriverName    string  `json:"Driver_Name"`
	TotalJobs     int     `json:"Total_Jobs"`
	TotalEarnings float64 `json:"Total_Earnings"`
	PaidJobs      int     `json:"Paid_Jobs"`
	PendingAmount float64 `json:"Pending_Amount"`
	PaidAmount    float64 `json:"Paid_Amount"`
}

// File is a generated artifact (receipt PDF or bank CSV).
type File struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service { return &Service{repo: repo} }

func isCompleted(row schema.Row) bool {
	st, _ := models.CanonicalStatus(schema.Str(row, "Job_Status"))
	return st == models.StatusCompleted
}

// DriverPayrollSummary aggregates completed jobs per driver over
// [start, end], optionally for a single driver.
func (s *Service) DriverPayrollSummary(rc repository.Request, start, end time.Time, driverID string) ([]Summary, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs})
	if err != nil {
		return nil, err
	}
	byDriver := map[string]*Summary{}
	var order []string
	for _, j := range jobs {
		if !isCompleted(j) {
			continue
		}
		t := schema.Time(j, "Plan_Date")
		if t.IsZero() || t.Before(start) || t.After(end) {
			continue
		}
		id := schema.Str(j, "Driver_ID")
		if id == "" || (driverID != "" && id != driverID) {
			continue
		}
		sum, ok := byDriver[id]
		if !ok {
			sum = &Summary{DriverID: id, DriverName: schema.Str(j, "Driver_Name")}
			byDriver[id] = sum
			order = append(order, id)
		}
		amount := schema.Float(j, "Cost_Driver_Total")
		sum.TotalJobs++
		sum.TotalEarnings += amount
		if models.IsPaid(schema.Str(j, "Payment_Status")) {
			sum.PaidJobs++
			sum.PaidAmount += amount
		} else {
			sum.PendingAmount += amount
		}
	}
	out := make([]Summary, 0, len(order))
	for _, id := range order {
		out = append(out, *byDriver[id])
	}
	return out, nil
}

// PendingDriverPayments returns completed jobs not yet paid to the
// driver.
func (s *Service) PendingDriverPayments(rc repository.Request) ([]schema.Row, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return nil, err
	}
	var out []schema.Row
	for _, j := range jobs {
		if isCompleted(j) && !models.IsPaid(schema.Str(j, "Payment_Status")) {
			out = append(out, j)
		}
	}
	return out, nil
}

// MarkJobsAsPaid transitions the selected jobs to Paid at most once.
// Already-paid jobs are silently skipped, making re-runs no-ops. The
// write is a conditional bulk update; if a concurrent admin wins part of
// the batch the call fails with ErrRace before any artifact-driven
// follow-up write. Returns the receipt files plus the bank batch file.
func (s *Service) MarkJobsAsPaid(rc repository.Request, jobIDs []string, whtRate float64, paymentRef string) ([]File, error) {
	if len(jobIDs) == 0 {
		return nil, fmt.Errorf("no jobs selected: %w", models.ErrValidation)
	}
	if whtRate <= 0 {
		whtRate = DefaultWHTRate
	}
	now := rc.At()

	rows, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range jobIDs {
		wanted[id] = true
	}
	var batch []schema.Row
	var eligible []string
	byDriver := map[string][]schema.Row{}
	var driverOrder []string
	for _, j := range rows {
		id := schema.Str(j, "Job_ID")
		if !wanted[id] {
			continue
		}
		batch = append(batch, j)
		drv := schema.Str(j, "Driver_ID")
		if _, seen := byDriver[drv]; !seen {
			driverOrder = append(driverOrder, drv)
		}
		byDriver[drv] = append(byDriver[drv], j)
		if !models.IsPaid(schema.Str(j, "Payment_Status")) {
			eligible = append(eligible, id)
		}
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("jobs %v: %w", jobIDs, models.ErrNotFound)
	}

	payRef := paymentRef
	if payRef == "" {
		payRef = "PAY-" + now.Format("0601021504")
	}

	// Generate every artifact before touching the store so an unknown
	// bank aborts the batch with nothing written.
	var files []File
	receiptByDriver := map[string]File{}
	for _, drv := range driverOrder {
		f, err := buildReceipt(byDriver[drv], whtRate, now)
		if err != nil {
			return nil, fmt.Errorf("receipt for %s: %w", drv, err)
		}
		receiptByDriver[drv] = f
		files = append(files, f)
	}
	bankFile, err := s.buildBankFile(rc, driverOrder, byDriver, whtRate, now)
	if err != nil {
		return nil, err
	}
	files = append(files, bankFile)

	if len(eligible) > 0 {
		affected, err := s.repo.UpdateFieldsBulk(rc, schema.Jobs, "Job_ID", eligible, schema.Row{
			"Payment_Status":   models.PaymentPaid,
			"Payment_Date":     now.Format(models.StoreLayout),
			"Payment_Slip_Url": payRef,
		}, &repository.Guard{Column: "Payment_Status", NotIn: paidForms})
		if err != nil {
			return nil, err
		}
		if affected != int64(len(eligible)) {
			return nil, fmt.Errorf("paid %d of %d selected jobs: %w",
				affected, len(eligible), models.ErrRace)
		}
	}

	// Upload receipts; a successful upload replaces the local payment
	// reference with the public URL on that driver's rows.
	eligibleSet := map[string]bool{}
	for _, id := range eligible {
		eligibleSet[id] = true
	}
	for _, drv := range driverOrder {
		f := receiptByDriver[drv]
		name := schema.Str(byDriver[drv][0], "Driver_Name")
		url := s.repo.UploadFile("receipts", sanitizeFilename(name)+"/"+f.Name, f.Data)
		if url == "" {
			logger.Warnf("payroll: receipt upload failed for %s, keeping local ref %s", drv, payRef)
			continue
		}
		var ids []string
		for _, j := range byDriver[drv] {
			if id := schema.Str(j, "Job_ID"); eligibleSet[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			if _, err := s.repo.UpdateFieldBulk(rc, schema.Jobs, "Job_ID", ids, "Payment_Slip_Url", url); err != nil {
				logger.Warnf("payroll: slip url update failed for %s: %v", drv, err)
			}
		}
	}

	s.repo.Invalidate(schema.Jobs)
	return files, nil
}

// grossNet sums a driver's batch rows and applies withholding.
func grossNet(rows []schema.Row, whtRate float64) (gross, wht, net decimal.Decimal) {
	for _, j := range rows {
		gross = gross.Add(decimal.NewFromFloat(schema.Float(j, "Cost_Driver_Total")))
	}
	wht = gross.Mul(decimal.NewFromFloat(whtRate)).Round(2)
	net = gross.Sub(wht)
	return gross, wht, net
}
