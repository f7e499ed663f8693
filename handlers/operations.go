// handlers/operations.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"p9e.in/tms/middleware"
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/payroll"
	"p9e.in/tms/pkg/planner"
	"p9e.in/tms/pkg/pricing"
)

// QuotePrice computes the driver-cost breakdown for given trip inputs.
// POST /api/v1/pricing/quote
func QuotePrice(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		PlanDate    string  `json:"plan_date"`
		DistanceKM  float64 `json:"distance_km"`
		VehicleType string  `json:"vehicle_type"`
		DieselPrice float64 `json:"diesel_price,omitempty"`
		TotalDrops  int     `json:"total_drops,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	breakdown, err := PricingSvc.Quote(rc, pricing.Input{
		PlanDate:    req.PlanDate,
		DistanceKM:  req.DistanceKM,
		VehicleType: req.VehicleType,
		DieselPrice: req.DieselPrice,
		TotalDrops:  req.TotalDrops,
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// ProposePlan runs the fairness planner over unassigned jobs and
// returns the proposal without writing anything.
// POST /api/v1/planner/propose
func ProposePlan(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	jobs, err := PlannerSvc.LoadUnassigned(rc)
	if err != nil {
		fail(w, err)
		return
	}
	res, err := PlannerSvc.Propose(rc, jobs)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ApplyPlan persists a reviewed set of assignments.
// POST /api/v1/planner/apply
func ApplyPlan(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		Assignments []planner.Assignment `json:"assignments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Assignments) == 0 {
		http.Error(w, "no assignments", http.StatusBadRequest)
		return
	}
	if err := PlannerSvc.ApplyPlan(rc, req.Assignments); err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "apply_plan", "", strconv.Itoa(len(req.Assignments))+" assignments")
	writeJSON(w, http.StatusOK, map[string]int{"applied": len(req.Assignments)})
}

// PayrollSummary aggregates completed jobs per driver over a window.
// GET /api/v1/payroll/summary?start=2025-01-01&end=2025-01-31&driver_id=D001
func PayrollSummary(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	start, err := parseDateParam(r, "start", rc.At().AddDate(0, -1, 0))
	if err != nil {
		http.Error(w, "invalid start date", http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(r, "end", rc.At())
	if err != nil {
		http.Error(w, "invalid end date", http.StatusBadRequest)
		return
	}
	out, err := PayrollSvc.DriverPayrollSummary(rc, start, end, r.URL.Query().Get("driver_id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// PendingPayments lists completed jobs not yet paid to drivers.
// GET /api/v1/payroll/pending
func PendingPayments(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	out, err := PayrollSvc.PendingDriverPayments(rc)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// PayJobs marks a batch of jobs paid and returns the generated receipt
// and bank-file artifacts.
// POST /api/v1/payroll/pay
func PayJobs(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		JobIDs  []string `json:"job_ids"`
		WHTRate float64  `json:"wht_rate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.WHTRate == 0 {
		req.WHTRate = payroll.DefaultWHTRate
	}
	files, err := PayrollSvc.MarkJobsAsPaid(rc, req.JobIDs, req.WHTRate, "")
	if err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "mark_paid", "", strconv.Itoa(len(req.JobIDs))+" jobs")
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paid_jobs": len(req.JobIDs),
		"artifacts": names,
	})
}

// BillingSummary lists completed, not yet billed jobs, optionally for
// one customer.
// GET /api/v1/billing/summary?customer=ACME
func BillingSummary(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	out, err := BillingSvc.CustomerBillingSummary(rc, r.URL.Query().Get("customer"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateInvoice bills a selection of jobs for one customer.
// POST /api/v1/billing/invoice
func CreateInvoice(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		Customer string   `json:"customer"`
		JobIDs   []string `json:"job_ids"`
		TaxRate  float64  `json:"tax_rate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	inv, err := BillingSvc.CreateInvoice(rc, req.Customer, req.JobIDs, req.TaxRate)
	if err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "create_invoice", inv.InvoiceNo, req.Customer)
	writeJSON(w, http.StatusOK, inv)
}

// BulkInvoice groups job ids per customer and bills each group.
// POST /api/v1/billing/bulk
func BulkInvoice(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		Groups  map[string][]string `json:"groups"`
		TaxRate float64             `json:"tax_rate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	files, err := BillingSvc.BulkInvoice(rc, req.Groups, req.TaxRate)
	if err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "bulk_invoice", "", strconv.Itoa(len(req.Groups))+" customers")
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": names})
}

// ARAging buckets unpaid billed jobs by days outstanding.
// GET /api/v1/billing/aging
func ARAging(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	report, err := BillingSvc.ARAgingReport(rc)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// MarkCustomerPayment records a customer settling their billed jobs.
// POST /api/v1/billing/payment
func MarkCustomerPayment(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		Customer    string `json:"customer"`
		PaymentDate string `json:"payment_date"`
		SlipURL     string `json:"slip_url,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	n, err := BillingSvc.MarkCustomerPayment(rc, req.Customer, req.PaymentDate, req.SlipURL)
	if err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "customer_payment", req.Customer, strconv.FormatInt(n, 10)+" jobs")
	writeJSON(w, http.StatusOK, map[string]int64{"settled": n})
}

// RunArchive moves terminal rows older than the threshold to the cold
// workbook.
// POST /api/v1/archive/run?days=45
func RunArchive(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}
	ok, summary := ArchiveSvc.CheckAndArchive(rc, days)
	AuditSvc.LogAction(rc, "archive_run", "", summary)
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]interface{}{"ok": ok, "summary": summary})
}

// GetAuditLogs returns the newest audit entries.
// GET /api/v1/audit?limit=100
func GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	rows, err := AuditSvc.GetLogs(rc, limit)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func parseDateParam(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	for _, layout := range []string{"2006-01-02", models.StoreLayout, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.ErrValidation
}
