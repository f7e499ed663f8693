package alerts

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

var alertNow = time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC)

func newAlertFixture(t *testing.T) (*Service, *repository.Repo, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.Driver{}, &models.UserPref{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	return NewService(repo), repo, repository.Request{UserID: "U-1", Now: alertNow}
}

func alertByID(alerts []Alert, id string) *Alert {
	for i := range alerts {
		if alerts[i].ID == id {
			return &alerts[i]
		}
	}
	return nil
}

func TestDelaySeverities(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	jobs := []schema.Row{
		{"Job_ID": "J-5D", "Job_Status": "IN_TRANSIT", "Plan_Date": "2025-07-05"}, // 5 days late
		{"Job_ID": "J-2D", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-08"},   // 2 days late
		{"Job_ID": "J-1D", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-09"},   // 1 day late
		{"Job_ID": "J-OK", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-10"},
		{"Job_ID": "J-DONE", "Job_Status": "Completed", "Plan_Date": "2025-07-01",
			"Payment_Status": "Paid", "Billing_Status": "Billed"},
		{"Job_ID": "J-CXL", "Job_Status": "CANCELLED", "Plan_Date": "2025-07-01"},
	}
	for _, j := range jobs {
		require.NoError(t, repo.Insert(rc, schema.Jobs, j))
	}

	active := svc.Active(rc)
	require.NotNil(t, alertByID(active, "delay_J-5D"))
	require.Equal(t, SeverityCritical, alertByID(active, "delay_J-5D").Severity)
	require.Equal(t, SeverityHigh, alertByID(active, "delay_J-2D").Severity)
	require.Equal(t, SeverityMedium, alertByID(active, "delay_J-1D").Severity)
	require.Nil(t, alertByID(active, "delay_J-OK"))
	require.Nil(t, alertByID(active, "delay_J-DONE"))
	require.Nil(t, alertByID(active, "delay_J-CXL"))
}

func TestPaymentAggregates(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	jobs := []schema.Row{
		{"Job_ID": "J-1", "Job_Status": "Completed", "Cost_Driver_Total": 1200.0,
			"Price_Cust_Total": 2000.0},
		{"Job_ID": "J-2", "Job_Status": "Completed", "Cost_Driver_Total": 800.0,
			"Price_Cust_Total": 1500.0, "Payment_Status": "Paid", "Billing_Status": "Billed"},
	}
	for _, j := range jobs {
		require.NoError(t, repo.Insert(rc, schema.Jobs, j))
	}

	active := svc.Active(rc)
	pay := alertByID(active, "payment_driver")
	require.NotNil(t, pay)
	require.Contains(t, pay.Message, "1200.00")
	bill := alertByID(active, "payment_billing")
	require.NotNil(t, bill)
	require.Contains(t, bill.Message, "2000.00")
}

func TestMaintenanceAndDocExpiry(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	drivers := []schema.Row{
		{"Driver_ID": "D-DUE", "Vehicle_Plate": "1กข 1234",
			"Current_Mileage": 120500.0, "Next_Service_Mileage": 120000.0},
		{"Driver_ID": "D-SOON", "Vehicle_Plate": "ฮจ 70",
			"Current_Mileage": 119600.0, "Next_Service_Mileage": 120000.0},
		{"Driver_ID": "D-NEAR", "Vehicle_Plate": "2กค 99",
			"Current_Mileage": 118500.0, "Next_Service_Mileage": 120000.0},
		{"Driver_ID": "D-FAR", "Vehicle_Plate": "3กง 55",
			"Current_Mileage": 100000.0, "Next_Service_Mileage": 120000.0},
		{"Driver_ID": "D-DOC", "Vehicle_Plate": "4กจ 11",
			"Insurance_Expiry": "2025-07-05", // already expired
			"Tax_Expiry":       "2025-07-20", // 10 days out
			"Act_Expiry":       "2025-08-05"}, // 26 days out
	}
	for _, d := range drivers {
		require.NoError(t, repo.Insert(rc, schema.Drivers, d))
	}

	active := svc.Active(rc)
	require.Equal(t, SeverityCritical, alertByID(active, "maint_1กข 1234").Severity)
	require.Equal(t, SeverityHigh, alertByID(active, "maint_ฮจ 70").Severity)
	require.Equal(t, SeverityMedium, alertByID(active, "maint_2กค 99").Severity)
	require.Nil(t, alertByID(active, "maint_3กง 55"))

	require.Equal(t, SeverityCritical, alertByID(active, "doc_4กจ 11_Insurance_Expiry").Severity)
	require.Equal(t, SeverityHigh, alertByID(active, "doc_4กจ 11_Tax_Expiry").Severity)
	require.Equal(t, SeverityMedium, alertByID(active, "doc_4กจ 11_Act_Expiry").Severity)
}

func TestDismissHidesAlert(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-LATE", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-01",
	}))

	require.NotNil(t, alertByID(svc.Active(rc), "delay_J-LATE"))
	require.NoError(t, svc.Dismiss(rc, "delay_J-LATE"))
	require.Nil(t, alertByID(svc.Active(rc), "delay_J-LATE"))

	// another user still sees it
	other := rc
	other.UserID = "U-2"
	require.NotNil(t, alertByID(svc.Active(other), "delay_J-LATE"))
}

func TestCreatedAtPinnedToFirstObservation(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-LATE", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-01",
	}))

	first := alertByID(svc.Active(rc), "delay_J-LATE")
	require.NotNil(t, first)

	later := rc
	later.Now = alertNow.Add(48 * time.Hour)
	second := alertByID(svc.Active(later), "delay_J-LATE")
	require.NotNil(t, second)
	require.True(t, second.CreatedAt.Equal(first.CreatedAt),
		"created_at drifted: %v vs %v", second.CreatedAt, first.CreatedAt)
}

func TestUnreadCountWatermark(t *testing.T) {
	svc, repo, rc := newAlertFixture(t)
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-A", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-01",
	}))

	require.Equal(t, 1, svc.UnreadCount(rc))

	viewed := rc
	viewed.Now = alertNow.Add(time.Hour)
	require.NoError(t, svc.MarkViewed(viewed))
	require.Equal(t, 0, svc.UnreadCount(viewed))

	// a new alert after the watermark counts again
	later := viewed
	later.Now = alertNow.Add(72 * time.Hour)
	require.NoError(t, repo.Insert(later, schema.Jobs, schema.Row{
		"Job_ID": "J-B", "Job_Status": "ASSIGNED", "Plan_Date": "2025-07-02",
	}))
	require.Equal(t, 1, svc.UnreadCount(later))
}

func TestComputeNeverFails(t *testing.T) {
	// a repo over a store with no tables migrated: reads fail, alerts
	// must come back empty rather than error
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	svc := NewService(repository.New(db, &repository.LocalStore{Dir: t.TempDir()}))
	require.Empty(t, svc.Active(repository.Request{UserID: "U-1", Now: alertNow}))
}
