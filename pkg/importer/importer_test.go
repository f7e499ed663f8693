package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

func newImporterFixture(t *testing.T) (*Service, *repository.Repo, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.Driver{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	rc := repository.Request{UserID: "importer", Now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	return NewService(repo), repo, rc
}

func TestTemplateCSV(t *testing.T) {
	svc, _, _ := newImporterFixture(t)

	data, err := svc.TemplateCSV(schema.Jobs)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "\uFEFF"))
	require.Contains(t, text, "Job_ID")
	require.Len(t, strings.Split(strings.TrimSpace(text), "\n"), 2)

	_, err = svc.TemplateCSV("Bogus")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestImportCSVUpserts(t *testing.T) {
	svc, repo, rc := newImporterFixture(t)

	csvText := "Job_ID,Customer_Name,Plan_Date,Price_Cust_Total,Not_A_Column\n" +
		"IMP-1,ACME,15/01/2025,\"1,500\",junk\n" +
		"IMP-2,Beta,2025-01-16,200+100,junk\n" +
		",Empty,2025-01-17,0,junk\n"
	res, err := svc.ImportCSV(rc, schema.Jobs, []byte(csvText))
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 1, res.Dropped)

	row, err := repo.GetByPK(rc, schema.Jobs, "IMP-1")
	require.NoError(t, err)
	require.Equal(t, "2025-01-15", schema.Str(row, "Plan_Date"))
	require.InDelta(t, 1500, schema.Float(row, "Price_Cust_Total"), 0.001)

	row, err = repo.GetByPK(rc, schema.Jobs, "IMP-2")
	require.NoError(t, err)
	require.InDelta(t, 300, schema.Float(row, "Price_Cust_Total"), 0.001)
}

func TestImportCSVWithBOM(t *testing.T) {
	svc, repo, rc := newImporterFixture(t)

	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Driver_ID,Driver_Name\nD-1,สมชาย\n")...)
	res, err := svc.ImportCSV(rc, schema.Drivers, data)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	row, err := repo.GetByPK(rc, schema.Drivers, "D-1")
	require.NoError(t, err)
	require.Equal(t, "สมชาย", schema.Str(row, "Driver_Name"))
}

func TestImportCSVWindows874(t *testing.T) {
	svc, repo, rc := newImporterFixture(t)

	enc := charmap.Windows874.NewEncoder()
	encoded, err := enc.String("Driver_ID,Driver_Name\nD-874,สมหญิง\n")
	require.NoError(t, err)

	res, err := svc.ImportCSV(rc, schema.Drivers, []byte(encoded))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	row, err := repo.GetByPK(rc, schema.Drivers, "D-874")
	require.NoError(t, err)
	require.Equal(t, "สมหญิง", schema.Str(row, "Driver_Name"))
}

func TestImportCSVRejectsBadInput(t *testing.T) {
	svc, _, rc := newImporterFixture(t)

	_, err := svc.ImportCSV(rc, "Bogus", []byte("a,b\n1,2\n"))
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.ImportCSV(rc, schema.Jobs, []byte("Job_ID\n"))
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestNormalizeCell(t *testing.T) {
	cases := []struct {
		column string
		raw    string
		want   interface{}
	}{
		{"Plan_Date", "31/12/2024", "2024-12-31"},
		{"Plan_Date", "5/1/2025", "2025-01-05"},
		{"Plan_Date", "2024-12-31", "2024-12-31"},
		{"Insurance_Expiry", "01/06/2026", "2026-06-01"},
		{"Price_Cust_Total", "1,234.50", 1234.5},
		{"Price_Cust_Total", "-1,000", -1000.0},
		{"Price_Cust_Total", "1500+300*2", 2100.0},
		{"Price_Cust_Total", "250", "250"},
		{"Remark", "  ", nil},
		{"Remark", "เรียบร้อย", "เรียบร้อย"},
		{"Remark", "ส่ง 2/3 จุด", "ส่ง 2/3 จุด"},
	}
	for _, c := range cases {
		got := NormalizeCell(schema.Jobs, c.column, c.raw)
		require.Equal(t, c.want, got, "%s %q", c.column, c.raw)
	}
}

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want float64
		ok   bool
	}{
		{"1500+300*2", 2100, true},
		{"(1500+300)*2", 3600, true},
		{"10/4", 2.5, true},
		{"-5+10", 5, true},
		{" 2 + 3 ", 5, true},
		{"1/0", 0, false},
		{"2+", 0, false},
		{"(2+3", 0, false},
		{"2 3", 0, false},
		{"abc", 0, false},
	}
	for _, c := range cases {
		got, ok := EvalArithmetic(c.expr)
		require.Equal(t, c.ok, ok, "expr %q", c.expr)
		if c.ok {
			require.InDelta(t, c.want, got, 1e-9, "expr %q", c.expr)
		}
	}
}
