// Package billing groups completed jobs per customer into invoices,
// tracks customer payment, and computes accounts-receivable aging.
package billing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

var billedForms = []string{"Billed", "BILLED", "billed"}

// Invoice is the result of one create-invoice run.
type Invoice struct {
	InvoiceNo       string  `json:"invoice_no"`
	Customer        string  `json:"customer"`
	CustomerAddress string  `json:"customer_address"`
	CustomerTaxID   string  `json:"customer_tax_id"`
	JobCount        int     `json:"job_count"`
	TotalAmount     float64 `json:"total_amount"`
	TaxAmount       float64 `json:"tax_amount"`
	GrandTotal      float64 `json:"grand_total"`
	Date            string  `json:"date"`
}

// File is a generated invoice PDF.
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

// CustomerBillingSummary lists completed, not-yet-billed jobs, optionally
// for one customer.
func (s *Service) CustomerBillingSummary(rc repository.Request, customer string) ([]schema.Row, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return nil, err
	}
	var out []schema.Row
	for _, j := range jobs {
		if !isCompleted(j) || models.IsBilled(schema.Str(j, "Billing_Status")) {
			continue
		}
		if customer != "" && !strings.EqualFold(schema.Str(j, "Customer_Name"), customer) {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

// NewInvoiceNo generates INV-<yymmddHHMMSS>-<4-hex-rand>.
func NewInvoiceNo(rc repository.Request) string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return fmt.Sprintf("INV-%s-%s", rc.At().Format("060102150405"), hex.EncodeToString(b))
}

// CreateInvoice issues one invoice over the given job ids. The billing
// transition is a conditional update: an id already billed by a
// concurrent admin fails the batch with ErrRace.
func (s *Service) CreateInvoice(rc repository.Request, customerName string, jobIDs []string, taxRate float64) (*Invoice, error) {
	if len(jobIDs) == 0 {
		return nil, fmt.Errorf("no jobs selected: %w", models.ErrValidation)
	}
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
	for _, j := range rows {
		id := schema.Str(j, "Job_ID")
		if !wanted[id] {
			continue
		}
		batch = append(batch, j)
		if !models.IsBilled(schema.Str(j, "Billing_Status")) {
			eligible = append(eligible, id)
		}
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("jobs %v: %w", jobIDs, models.ErrNotFound)
	}

	invoiceNo := NewInvoiceNo(rc)
	billingDate := rc.At().Format("2006-01-02")
	if len(eligible) > 0 {
		affected, err := s.repo.UpdateFieldsBulk(rc, schema.Jobs, "Job_ID", eligible, schema.Row{
			"Billing_Status": models.BillingBilled,
			"Invoice_No":     invoiceNo,
			"Billing_Date":   billingDate,
		}, &repository.Guard{Column: "Billing_Status", NotIn: billedForms})
		if err != nil {
			return nil, err
		}
		if affected != int64(len(eligible)) {
			return nil, fmt.Errorf("billed %d of %d selected jobs: %w",
				affected, len(eligible), models.ErrRace)
		}
	}

	subtotal := decimal.Zero
	for _, j := range batch {
		subtotal = subtotal.Add(decimal.NewFromFloat(schema.Float(j, "Price_Cust_Total")))
	}
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	grand := subtotal.Add(tax)

	inv := &Invoice{
		InvoiceNo:   invoiceNo,
		Customer:    customerName,
		JobCount:    len(batch),
		TotalAmount: subtotal.InexactFloat64(),
		TaxAmount:   tax.InexactFloat64(),
		GrandTotal:  grand.InexactFloat64(),
		Date:        billingDate,
	}
	if cust := s.findCustomer(rc, customerName); cust != nil {
		inv.CustomerAddress = schema.Str(cust, "Address")
		inv.CustomerTaxID = schema.Str(cust, "Tax_ID")
	}
	return inv, nil
}

// BulkInvoice runs CreateInvoice per customer and renders the PDFs.
func (s *Service) BulkInvoice(rc repository.Request, groups map[string][]string, taxRate float64) ([]File, error) {
	var files []File
	for customer, ids := range groups {
		inv, err := s.CreateInvoice(rc, customer, ids, taxRate)
		if err != nil {
			return files, fmt.Errorf("invoice for %s: %w", customer, err)
		}
		jobs, err := s.jobsByInvoice(rc, inv.InvoiceNo, ids)
		if err != nil {
			return files, err
		}
		f, err := buildInvoicePDF(inv, jobs, taxRate)
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

// MarkCustomerPayment records payment on every Billed job of a customer.
func (s *Service) MarkCustomerPayment(rc repository.Request, customerName, paymentDate, slipURL string) (int64, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, j := range jobs {
		if strings.EqualFold(schema.Str(j, "Customer_Name"), customerName) &&
			models.IsBilled(schema.Str(j, "Billing_Status")) {
			ids = append(ids, schema.Str(j, "Job_ID"))
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if paymentDate == "" {
		paymentDate = rc.At().Format(models.StoreLayout)
	}
	return s.repo.UpdateFieldsBulk(rc, schema.Jobs, "Job_ID", ids, schema.Row{
		"Customer_Payment_Status":   "Paid",
		"Customer_Payment_Date":     paymentDate,
		"Customer_Payment_Slip_Url": slipURL,
	}, nil)
}

func (s *Service) findCustomer(rc repository.Request, name string) schema.Row {
	rows, err := s.repo.GetData(rc, repository.Query{Table: schema.Customers, AllBranches: true})
	if err != nil {
		return nil
	}
	for _, c := range rows {
		if strings.EqualFold(schema.Str(c, "Customer_Name"), name) {
			return c
		}
	}
	return nil
}

func (s *Service) jobsByInvoice(rc repository.Request, invoiceNo string, ids []string) ([]schema.Row, error) {
	rows, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []schema.Row
	for _, j := range rows {
		if wanted[schema.Str(j, "Job_ID")] {
			out = append(out, j)
		}
	}
	return out, nil
}
