package billing

import (
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// AR aging bucket labels, youngest first.
var AgingBuckets = []string{"0-30", "31-60", "61-90", "90+"}

// AgingItem is one billed-unpaid invoice line.
type AgingItem struct {
	InvoiceNo       string  `json:"Invoice_No"`
	CustomerName    string  `json:"Customer_Name"`
	BillingDate     string  `json:"Billing_Date"`
	Amount          float64 `json:"Amount"`
	DaysOutstanding int     `json:"Days_Outstanding"`
	Bucket          string  `json:"Bucket"`
}

// AgingReport groups billed-unpaid amounts by days outstanding.
type AgingReport struct {
	Items   []AgingItem        `json:"items"`
	Buckets map[string]float64 `json:"buckets"`
}

// bucketFor classifies days outstanding: [0,30], (30,60], (60,90], (90,∞).
func bucketFor(days int) string {
	switch {
	case days <= 30:
		return AgingBuckets[0]
	case days <= 60:
		return AgingBuckets[1]
	case days <= 90:
		return AgingBuckets[2]
	default:
		return AgingBuckets[3]
	}
}

// ARAgingReport surveys jobs that were billed but not yet paid by the
// customer.
func (s *Service) ARAgingReport(rc repository.Request) (*AgingReport, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs})
	if err != nil {
		return nil, err
	}
	report := &AgingReport{Buckets: map[string]float64{}}
	for _, b := range AgingBuckets {
		report.Buckets[b] = 0
	}
	now := rc.At()
	for _, j := range jobs {
		if !models.IsBilled(schema.Str(j, "Billing_Status")) {
			continue
		}
		if models.IsPaid(schema.Str(j, "Customer_Payment_Status")) {
			continue
		}
		billed := schema.Time(j, "Billing_Date")
		days := 0
		if !billed.IsZero() {
			days = int(now.Sub(billed).Hours() / 24)
			if days < 0 {
				days = 0
			}
		}
		amount := schema.Float(j, "Price_Cust_Total")
		bucket := bucketFor(days)
		report.Items = append(report.Items, AgingItem{
			InvoiceNo:       schema.Str(j, "Invoice_No"),
			CustomerName:    schema.Str(j, "Customer_Name"),
			BillingDate:     schema.Str(j, "Billing_Date"),
			Amount:          amount,
			DaysOutstanding: days,
			Bucket:          bucket,
		})
		report.Buckets[bucket] += amount
	}
	return report, nil
}
