package planner

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

var planNow = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	jobs []string
}

func (f *fakeNotifier) NotifyNewJob(_ repository.Request, _, _, jobID, _ string) {
	f.jobs = append(f.jobs, jobID)
}

func newPlannerFixture(t *testing.T) (*repository.Repo, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.Driver{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	return repo, repository.Request{UserID: "planner-test", Now: planNow}
}

func seedDriver(t *testing.T, repo *repository.Repo, rc repository.Request, id, name string) {
	t.Helper()
	require.NoError(t, repo.Insert(rc, schema.Drivers, schema.Row{
		"Driver_ID": id, "Driver_Name": name, "Active_Status": "Active",
	}))
}

func seedJob(t *testing.T, repo *repository.Repo, rc repository.Request, row schema.Row) {
	t.Helper()
	require.NoError(t, repo.Insert(rc, schema.Jobs, row))
}

func TestProposePicksLowestEarner(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedDriver(t, repo, rc, "D-B", "คนขับ ข")

	// A already earned 10000 this month, B only 1000
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-OLD-A", "Driver_ID": "D-A", "Job_Status": "Completed",
		"Plan_Date": "2025-03-05", "Cost_Driver_Total": 10000.0,
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-OLD-B", "Driver_ID": "D-B", "Job_Status": "Completed",
		"Plan_Date": "2025-03-06", "Cost_Driver_Total": 1000.0,
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-NEW", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})

	svc := NewService(repo, nil)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	res, err := svc.Propose(rc, jobs)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	require.Equal(t, "D-B", res.Assignments[0].DriverID)
	require.Equal(t, models.StatusAssigned, res.Assignments[0].Status)
}

func TestProposeLastMonthIncomeIgnored(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedDriver(t, repo, rc, "D-B", "คนขับ ข")

	// B's big earnings fall in February, outside the current month window
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-FEB", "Driver_ID": "D-B", "Job_Status": "Completed",
		"Plan_Date": "2025-02-25", "Cost_Driver_Total": 50000.0,
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-MAR", "Driver_ID": "D-A", "Job_Status": "Completed",
		"Plan_Date": "2025-03-02", "Cost_Driver_Total": 100.0,
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-NEW", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})

	svc := NewService(repo, nil)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	res, err := svc.Propose(rc, jobs)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	require.Equal(t, "D-B", res.Assignments[0].DriverID)
}

func TestProposeOneJobPerDriverPerDay(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	for _, id := range []string{"J-1", "J-2"} {
		seedJob(t, repo, rc, schema.Row{
			"Job_ID": id, "Job_Status": "NEW", "Plan_Date": "2025-03-20",
		})
	}

	svc := NewService(repo, nil)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	res, err := svc.Propose(rc, jobs)
	require.NoError(t, err)
	// one driver, same day: only one job gets a driver
	require.Len(t, res.Assignments, 1)
	require.NotEmpty(t, res.Logs)
}

func TestProposeCancelledJobDoesNotBlockDay(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-CXL", "Driver_ID": "D-A", "Job_Status": "CANCELLED",
		"Plan_Date": "2025-03-20",
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-NEW", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})

	svc := NewService(repo, nil)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	res, err := svc.Propose(rc, jobs)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	require.Equal(t, "D-A", res.Assignments[0].DriverID)
}

func TestProposeBatchIncomeUsesDefault(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedDriver(t, repo, rc, "D-B", "คนขับ ข")

	// two zero-value jobs on different days; without batch-local income
	// both would land on the same driver by ID tiebreak
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-1", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-2", "Job_Status": "NEW", "Plan_Date": "2025-03-21",
	})

	svc := NewService(repo, nil)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	res, err := svc.Propose(rc, jobs)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 2)
	require.NotEqual(t, res.Assignments[0].DriverID, res.Assignments[1].DriverID)
}

func TestProposeNotifies(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-1", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})

	n := &fakeNotifier{}
	svc := NewService(repo, n)
	jobs, err := svc.LoadUnassigned(rc)
	require.NoError(t, err)
	_, err = svc.Propose(rc, jobs)
	require.NoError(t, err)
	require.Equal(t, []string{"J-1"}, n.jobs)
}

func TestApplyPlan(t *testing.T) {
	repo, rc := newPlannerFixture(t)
	seedDriver(t, repo, rc, "D-A", "คนขับ ก")
	seedJob(t, repo, rc, schema.Row{
		"Job_ID": "J-1", "Job_Status": "NEW", "Plan_Date": "2025-03-20",
	})

	svc := NewService(repo, nil)
	err := svc.ApplyPlan(rc, []Assignment{{
		JobID: "J-1", DriverID: "D-A", DriverName: "คนขับ ก", Status: models.StatusAssigned,
	}})
	require.NoError(t, err)

	row, err := repo.GetByPK(rc, schema.Jobs, "J-1")
	require.NoError(t, err)
	require.Equal(t, "D-A", schema.Str(row, "Driver_ID"))
	st, _ := models.CanonicalStatus(schema.Str(row, "Job_Status"))
	require.Equal(t, models.StatusAssigned, st)
}
