// Package archive offloads terminal records older than a threshold to
// the cold-store workbook, then purges them from the hot store. Each
// table is best-effort: one failing table never blocks the others.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

const (
	// DefaultDaysThreshold is how old a terminal row must be before it
	// moves to cold storage.
	DefaultDaysThreshold = 45

	blobPlaceholder = "[IMAGE_TOO_LARGE_VIEW_IN_APP]"
	cellLimit       = 1000
)

type tableSpec struct {
	table    string
	sheet    string
	fallback string
	ageOf    func(schema.Row) time.Time
	keep     func(schema.Row) bool // status filter; nil means all rows
}

var specs = []tableSpec{
	{
		table:    schema.Jobs,
		sheet:    "Jobs_Archive",
		fallback: "Sheet1",
		ageOf: func(row schema.Row) time.Time {
			if t := schema.Time(row, "Actual_Delivery_Time"); !t.IsZero() {
				return t
			}
			return schema.Time(row, "Plan_Date")
		},
		keep: func(row schema.Row) bool {
			st, _ := models.CanonicalStatus(schema.Str(row, "Job_Status"))
			return st == models.StatusCompleted
		},
	},
	{
		table: schema.FuelLogs,
		sheet: "Fuel_Archive",
		ageOf: func(row schema.Row) time.Time {
			return schema.Time(row, "Date_Time")
		},
	},
	{
		table: schema.RepairTickets,
		sheet: "Tickets_Archive",
		ageOf: func(row schema.Row) time.Time {
			if t := schema.Time(row, "Date_Finish"); !t.IsZero() {
				return t
			}
			return schema.Time(row, "Date_Report")
		},
		keep: func(row schema.Row) bool {
			return models.IsRepairTerminal(schema.Str(row, "Status"))
		},
	},
}

type Service struct {
	repo *repository.Repo
	path string
}

func NewService(repo *repository.Repo) *Service {
	path := os.Getenv("TMS_ARCHIVE_PATH")
	if path == "" {
		path = "./archive/tms_archive.xlsx"
	}
	return &Service{repo: repo, path: path}
}

// CheckAndArchive scans the three archivable tables, appends qualifying
// rows to the cold workbook, and deletes them from the hot store only
// after the workbook save succeeded. Returns overall success and a
// per-table summary.
func (s *Service) CheckAndArchive(rc repository.Request, daysThreshold int) (bool, string) {
	if daysThreshold <= 0 {
		daysThreshold = DefaultDaysThreshold
	}
	cutoff := rc.At().AddDate(0, 0, -daysThreshold)

	ok := true
	var summary []string
	for _, spec := range specs {
		moved, err := s.archiveTable(rc, spec, cutoff)
		if err != nil {
			ok = false
			summary = append(summary, fmt.Sprintf("%s: FAILED (%v)", spec.table, err))
			logger.Errorf("archive: %s: %v", spec.table, err)
			continue
		}
		summary = append(summary, fmt.Sprintf("%s: %d rows archived", spec.table, moved))
	}
	return ok, strings.Join(summary, "; ")
}

func (s *Service) archiveTable(rc repository.Request, spec tableSpec, cutoff time.Time) (int, error) {
	rows, err := s.repo.GetData(rc, repository.Query{
		Table: spec.table, Bypass: true, AllBranches: true,
	})
	if err != nil {
		return 0, err
	}

	var selected []schema.Row
	for _, row := range rows {
		age := spec.ageOf(row)
		if age.IsZero() || !age.Before(cutoff) {
			continue
		}
		if spec.keep != nil && !spec.keep(row) {
			continue
		}
		selected = append(selected, row)
	}
	if len(selected) == 0 {
		return 0, nil
	}

	cols := schema.Columns(spec.table)
	if err := s.appendToWorkbook(spec, cols, selected); err != nil {
		return 0, err
	}

	pkCol, err := schema.PK(spec.table)
	if err != nil {
		return 0, err
	}
	pks := make([]string, 0, len(selected))
	for _, row := range selected {
		pks = append(pks, schema.Str(row, pkCol))
	}
	if err := s.repo.DeleteRecords(rc, spec.table, pkCol, pks); err != nil {
		// cold copy exists but hot rows remain; surfaced as a table failure
		return 0, fmt.Errorf("purge after archive: %w", err)
	}
	return len(selected), nil
}

// appendToWorkbook writes selected rows under the table's worksheet,
// creating workbook, sheet and header as needed.
func (s *Service) appendToWorkbook(spec tableSpec, cols []string, rows []schema.Row) error {
	var f *excelize.File
	if _, err := os.Stat(s.path); err == nil {
		f, err = excelize.OpenFile(s.path)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return err
		}
		f = excelize.NewFile()
	}
	defer f.Close()

	sheet := spec.sheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			if spec.fallback == "" {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
			sheet = spec.fallback
			if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
				if _, err := f.NewSheet(sheet); err != nil {
					return fmt.Errorf("create sheet %s: %w", sheet, err)
				}
			}
		}
	}

	existing, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	next := len(existing) + 1
	if next == 1 {
		header := make([]interface{}, len(cols))
		for i, c := range cols {
			header[i] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, 1)
		if err := f.SetSheetRow(sheet, cell, &header); err != nil {
			return err
		}
		next = 2
	}

	for _, row := range rows {
		cells := make([]interface{}, len(cols))
		for i, col := range cols {
			cells[i] = archiveCell(row[col])
		}
		cell, _ := excelize.CoordinatesToCellName(1, next)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
		next++
	}
	return f.SaveAs(s.path)
}

// archiveCell applies the blob guard: oversized base64 payloads never
// reach the workbook, other long strings are truncated at the cell
// limit.
func archiveCell(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || len(s) <= cellLimit {
		return v
	}
	if repository.LooksLikeBlob(s) {
		return blobPlaceholder
	}
	cut := cellLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…(truncated)"
}
