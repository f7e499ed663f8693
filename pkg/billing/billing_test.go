package billing

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

var billNow = time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)

func newBillingFixture(t *testing.T) (*Service, *repository.Repo, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.Customer{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	return NewService(repo), repo, repository.Request{UserID: "biller", Now: billNow}
}

func seedBillingJobs(t *testing.T, repo *repository.Repo, rc repository.Request) {
	t.Helper()
	jobs := []schema.Row{
		{"Job_ID": "B-1", "Customer_Name": "ACME Logistics", "Job_Status": "Completed",
			"Price_Cust_Total": 5000.0, "Plan_Date": "2025-04-20"},
		{"Job_ID": "B-2", "Customer_Name": "ACME Logistics", "Job_Status": "Completed",
			"Price_Cust_Total": 2500.0, "Plan_Date": "2025-04-22"},
		{"Job_ID": "B-3", "Customer_Name": "Beta Foods", "Job_Status": "Completed",
			"Price_Cust_Total": 1200.0, "Plan_Date": "2025-04-25"},
	}
	for _, j := range jobs {
		require.NoError(t, repo.Insert(rc, schema.Jobs, j))
	}
}

func TestCreateInvoice(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	seedBillingJobs(t, repo, rc)

	inv, err := svc.CreateInvoice(rc, "ACME Logistics", []string{"B-1", "B-2"}, 0.07)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(inv.InvoiceNo, "INV-"))
	require.Equal(t, 2, inv.JobCount)
	require.InDelta(t, 7500, inv.TotalAmount, 0.001)
	require.InDelta(t, 525, inv.TaxAmount, 0.001)
	require.InDelta(t, 8025, inv.GrandTotal, 0.001)
	require.Equal(t, "2025-05-10", inv.Date)

	for _, id := range []string{"B-1", "B-2"} {
		row, err := repo.GetByPK(rc, schema.Jobs, id)
		require.NoError(t, err)
		require.True(t, models.IsBilled(schema.Str(row, "Billing_Status")))
		require.Equal(t, inv.InvoiceNo, schema.Str(row, "Invoice_No"))
	}
	// the other customer's job is untouched
	row, err := repo.GetByPK(rc, schema.Jobs, "B-3")
	require.NoError(t, err)
	require.False(t, models.IsBilled(schema.Str(row, "Billing_Status")))
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	seedBillingJobs(t, repo, rc)

	_, err := svc.CreateInvoice(rc, "ACME Logistics", nil, 0.07)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateInvoice(rc, "ACME Logistics", []string{"B-404"}, 0.07)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateInvoiceRebillIsNoOpUpdate(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	seedBillingJobs(t, repo, rc)

	first, err := svc.CreateInvoice(rc, "ACME Logistics", []string{"B-1"}, 0)
	require.NoError(t, err)

	// re-invoicing an already billed job totals it again but must not
	// overwrite the stored invoice reference
	second, err := svc.CreateInvoice(rc, "ACME Logistics", []string{"B-1"}, 0)
	require.NoError(t, err)
	require.NotEqual(t, first.InvoiceNo, second.InvoiceNo)

	row, err := repo.GetByPK(rc, schema.Jobs, "B-1")
	require.NoError(t, err)
	require.Equal(t, first.InvoiceNo, schema.Str(row, "Invoice_No"))
}

func TestMarkCustomerPayment(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	seedBillingJobs(t, repo, rc)

	_, err := svc.CreateInvoice(rc, "ACME Logistics", []string{"B-1", "B-2"}, 0.07)
	require.NoError(t, err)

	n, err := svc.MarkCustomerPayment(rc, "acme logistics", "", "/uploads/slips/acme.jpg")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	row, err := repo.GetByPK(rc, schema.Jobs, "B-1")
	require.NoError(t, err)
	require.True(t, models.IsPaid(schema.Str(row, "Customer_Payment_Status")))
	require.NotEmpty(t, schema.Str(row, "Customer_Payment_Date"))

	// no billed jobs for this customer: zero rows, no error
	n, err = svc.MarkCustomerPayment(rc, "Beta Foods", "", "")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestBucketFor(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, "0-30"}, {30, "0-30"},
		{31, "31-60"}, {60, "31-60"},
		{61, "61-90"}, {90, "61-90"},
		{91, "90+"}, {365, "90+"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, bucketFor(c.days), "days=%d", c.days)
	}
}

func TestARAgingReport(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	jobs := []schema.Row{
		{"Job_ID": "A-1", "Customer_Name": "ACME Logistics", "Job_Status": "Completed",
			"Price_Cust_Total": 1000.0, "Billing_Status": "Billed",
			"Invoice_No": "INV-X1", "Billing_Date": "2025-05-01"}, // 9 days
		{"Job_ID": "A-2", "Customer_Name": "ACME Logistics", "Job_Status": "Completed",
			"Price_Cust_Total": 2000.0, "Billing_Status": "Billed",
			"Invoice_No": "INV-X2", "Billing_Date": "2025-03-01"}, // 70 days
		{"Job_ID": "A-3", "Customer_Name": "Beta Foods", "Job_Status": "Completed",
			"Price_Cust_Total": 4000.0, "Billing_Status": "Billed",
			"Invoice_No": "INV-X3", "Billing_Date": "2025-04-01",
			"Customer_Payment_Status": "Paid"}, // settled, excluded
		{"Job_ID": "A-4", "Customer_Name": "Beta Foods", "Job_Status": "Completed",
			"Price_Cust_Total": 500.0}, // never billed, excluded
	}
	for _, j := range jobs {
		require.NoError(t, repo.Insert(rc, schema.Jobs, j))
	}

	report, err := svc.ARAgingReport(rc)
	require.NoError(t, err)
	require.InDelta(t, 1000, report.Buckets["0-30"], 0.001)
	require.InDelta(t, 2000, report.Buckets["61-90"], 0.001)
	require.Zero(t, report.Buckets["31-60"])
	require.Zero(t, report.Buckets["90+"])
	require.Len(t, report.Items, 2)
}

func TestCustomerBillingSummary(t *testing.T) {
	svc, repo, rc := newBillingFixture(t)
	seedBillingJobs(t, repo, rc)
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "B-RUN", "Customer_Name": "ACME Logistics",
		"Job_Status": "IN_TRANSIT", "Price_Cust_Total": 900.0,
	}))

	all, err := svc.CustomerBillingSummary(rc, "")
	require.NoError(t, err)
	require.Len(t, all, 3) // completed only

	acme, err := svc.CustomerBillingSummary(rc, "ACME Logistics")
	require.NoError(t, err)
	require.Len(t, acme, 2)
}
