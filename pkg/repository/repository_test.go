package repository

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/schema"
)

var repoNow = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.Driver{}))
	return New(db, &LocalStore{Dir: t.TempDir()})
}

func TestGetDataBranchFilter(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", BranchID: "BKK", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-BKK", "Branch_ID": "BKK", "Job_Status": "NEW",
	}))
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-CNX", "Branch_ID": "CNX", "Job_Status": "NEW",
	}))

	rows, err := repo.GetData(rc, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "J-BKK", schema.Str(rows[0], "Job_ID"))

	// head office sees everything
	head := Request{UserID: "u", BranchID: "HEAD", Now: repoNow}
	rows, err = repo.GetData(head, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// AllBranches overrides a narrow scope
	rows, err = repo.GetData(rc, Query{Table: schema.Jobs, AllBranches: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestGetDataDaysBackWindow(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-OLD", "Job_Status": "Completed",
		"Plan_Date": repoNow.AddDate(0, 0, -40).Format("2006-01-02"),
	}))
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-NEW", "Job_Status": "NEW",
		"Plan_Date": repoNow.AddDate(0, 0, -5).Format("2006-01-02"),
	}))

	rows, err := repo.GetData(rc, Query{Table: schema.Jobs, DaysBack: 30})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "J-NEW", schema.Str(rows[0], "Job_ID"))
}

func TestGetDataUnknownTableAndColumn(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}

	_, err := repo.GetData(rc, Query{Table: "Bogus_Table"})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = repo.GetData(rc, Query{Table: schema.Jobs, Columns: []string{"Nope"}})
	require.ErrorIs(t, err, models.ErrUnknownColumn)
}

func TestGetDataCacheServesStaleUntilInvalidate(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-1", "Job_Status": "NEW",
	}))

	first, err := repo.GetData(rc, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// write behind the repository's back, cached snapshot stays
	require.NoError(t, repo.DB().Table(schema.Jobs).Create(map[string]interface{}{
		"Job_ID": "J-2", "Job_Status": "NEW",
	}).Error)
	cached, err := repo.GetData(rc, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Len(t, cached, 1)

	// TTL expiry: a later clock refreshes the snapshot
	later := rc
	later.Now = repoNow.Add(61 * time.Second)
	fresh, err := repo.GetData(later, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	// Bypass always hits the store
	require.NoError(t, repo.DB().Table(schema.Jobs).Create(map[string]interface{}{
		"Job_ID": "J-3", "Job_Status": "NEW",
	}).Error)
	bypass, err := repo.GetData(rc, Query{Table: schema.Jobs, Bypass: true})
	require.NoError(t, err)
	require.Len(t, bypass, 3)
}

func TestGetDataCachedSnapshotIsIsolated(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-1", "Job_Status": "NEW",
	}))

	rows, err := repo.GetData(rc, Query{Table: schema.Jobs})
	require.NoError(t, err)
	rows[0]["Job_Status"] = "MUTATED"

	again, err := repo.GetData(rc, Query{Table: schema.Jobs})
	require.NoError(t, err)
	require.Equal(t, "NEW", schema.Str(again[0], "Job_Status"))
}

func TestInsertRejectsUnknownColumnAndNullPK(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}

	err := repo.Insert(rc, schema.Jobs, schema.Row{"Job_ID": "J-1", "Bogus": 1})
	require.ErrorIs(t, err, models.ErrUnknownColumn)
	require.NotEmpty(t, repo.LastError())

	// "-" sanitizes to null, so the PK is gone
	err = repo.Insert(rc, schema.Jobs, schema.Row{"Job_ID": "-", "Job_Status": "NEW"})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestSanitizeValueRules(t *testing.T) {
	repo := newRepo(t)

	require.Nil(t, repo.sanitizeValue("Remark", "N/A"))
	require.Nil(t, repo.sanitizeValue("Remark", " - "))
	require.Nil(t, repo.sanitizeValue("Remark", "#REF!"))
	require.Nil(t, repo.sanitizeValue("Distance_KM", math.NaN()))
	require.Nil(t, repo.sanitizeValue("Distance_KM", math.Inf(1)))

	require.Equal(t, 1234567.89, repo.sanitizeValue("Price_Cust_Total", "1,234,567.89"))
	require.Equal(t, "2024-12-31", repo.sanitizeValue("Plan_Date", "31/12/2024"))

	// plain strings and in-range numbers pass through
	require.Equal(t, "สมชาย", repo.sanitizeValue("Driver_Name", "สมชาย"))
	require.Equal(t, 42.0, repo.sanitizeValue("Distance_KM", 42.0))

	ts := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-04-01 08:30:00", repo.sanitizeValue("Plan_Date", ts))
}

func TestSanitizeStringOffloadsBlobs(t *testing.T) {
	repo := newRepo(t)

	blob := "data:image/png;base64," + strings.Repeat("QUJD", 300)
	out, ok := repo.sanitizeValue("Pod_Photo_Url", blob).(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(out, "/uploads/"), "got %q", out)

	long := strings.Repeat("x", 1500)
	out, ok = repo.sanitizeValue("Remark", long).(string)
	require.True(t, ok)
	require.Len(t, out, maxCellLen+len(truncateSuffix))
	require.True(t, strings.HasSuffix(out, truncateSuffix))
}

func TestUpdateFieldsBulkGuard(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-1", "Job_Status": "Completed", "Payment_Status": "PENDING",
	}))
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-2", "Job_Status": "Completed", "Payment_Status": "Paid",
	}))
	require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{
		"Job_ID": "J-3", "Job_Status": "Completed",
	}))

	guard := &Guard{Column: "Payment_Status", NotIn: []string{"Paid", "PAID", "paid"}}
	n, err := repo.UpdateFieldsBulk(rc, schema.Jobs, "Job_ID",
		[]string{"J-1", "J-2", "J-3"}, schema.Row{"Payment_Status": "Paid"}, guard)
	require.NoError(t, err)
	// J-2 is excluded by the guard; the null status on J-3 passes
	require.EqualValues(t, 2, n)
}

func TestUpdateRowsUpsert(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	require.NoError(t, repo.Insert(rc, schema.Drivers, schema.Row{
		"Driver_ID": "D-1", "Driver_Name": "เดิม", "Phone": "0812345678",
	}))

	require.NoError(t, repo.UpdateRows(rc, schema.Drivers, []schema.Row{
		{"Driver_ID": "D-1", "Driver_Name": "ใหม่"},
		{"Driver_ID": "D-2", "Driver_Name": "เพิ่ม"},
		{"Driver_ID": "null", "Driver_Name": "ตกหล่น"}, // null PK row dropped
	}))

	row, err := repo.GetByPK(rc, schema.Drivers, "D-1")
	require.NoError(t, err)
	require.Equal(t, "ใหม่", schema.Str(row, "Driver_Name"))

	_, err = repo.GetByPK(rc, schema.Drivers, "D-2")
	require.NoError(t, err)

	rows, err := repo.GetData(rc, Query{Table: schema.Drivers, Bypass: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestGetByPKNotFound(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	_, err := repo.GetByPK(rc, schema.Jobs, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteRecords(t *testing.T) {
	repo := newRepo(t)
	rc := Request{UserID: "u", Now: repoNow}
	for _, id := range []string{"J-1", "J-2"} {
		require.NoError(t, repo.Insert(rc, schema.Jobs, schema.Row{"Job_ID": id}))
	}
	require.NoError(t, repo.DeleteRecords(rc, schema.Jobs, "Job_ID", []string{"J-1"}))

	_, err := repo.GetByPK(rc, schema.Jobs, "J-1")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.GetByPK(rc, schema.Jobs, "J-2")
	require.NoError(t, err)
}

func TestRequestAllBranches(t *testing.T) {
	cases := map[string]bool{
		"": true, "ALL": true, "all": true, "HEAD": true, " head ": true,
		"BKK": false, "CNX": false,
	}
	for branch, want := range cases {
		rc := Request{BranchID: branch}
		require.Equal(t, want, rc.AllBranches(), "branch %q", branch)
	}
}
