// Package importer handles bulk CSV/XLSX round trips for jobs and
// master tables: template export from the schema registry, and import
// with the encoding fallback chain used by Thai spreadsheet exports.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service {
	return &Service{repo: repo}
}

// TemplateCSV renders the table's column headers plus one sample row.
func (s *Service) TemplateCSV(table string) ([]byte, error) {
	headers, sample := schema.Template(table)
	if headers == nil {
		return nil, fmt.Errorf("%w: unknown table %q", models.ErrValidation, table)
	}
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	if err := w.Write(sample); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// TemplateXLSX renders the same template as a single-sheet workbook.
func (s *Service) TemplateXLSX(table string) ([]byte, error) {
	headers, sample := schema.Template(table)
	if headers == nil {
		return nil, fmt.Errorf("%w: unknown table %q", models.ErrValidation, table)
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
		cell, _ = excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, sample[i]); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Result reports an import outcome.
type Result struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Dropped  int `json:"dropped"`
}

// ImportCSV parses an uploaded CSV into rows for the table and upserts
// them. Rows whose PK is empty after parsing are dropped, not errors.
func (s *Service) ImportCSV(rc repository.Request, table string, data []byte) (Result, error) {
	if !schema.Known(table) {
		return Result{}, fmt.Errorf("%w: unknown table %q", models.ErrValidation, table)
	}
	text, err := decodeText(data)
	if err != nil {
		return Result{}, err
	}
	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if len(records) < 2 {
		return Result{}, fmt.Errorf("%w: file has no data rows", models.ErrValidation)
	}

	headers := records[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	pkCol, err := schema.PK(table)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(records) - 1}
	var rows []schema.Row
	for _, rec := range records[1:] {
		row := schema.Row{}
		for i, h := range headers {
			if i >= len(rec) || !schema.HasColumn(table, h) {
				continue
			}
			row[h] = NormalizeCell(table, h, rec[i])
		}
		if row[pkCol] == nil || schema.Str(row, pkCol) == "" {
			res.Dropped++
			continue
		}
		rows = append(rows, row)
	}

	if err := s.repo.UpdateRows(rc, table, rows); err != nil {
		return res, err
	}
	res.Imported = len(rows)
	return res, nil
}

// decodeText tries the encodings Thai spreadsheet tools actually emit,
// in fixed order, and keeps the first decode that yields valid UTF-8.
func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return string(data[3:]), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, enc := range []encoding.Encoding{
		charmap.Windows874, // covers tis-620 and cp874
		charmap.ISO8859_1,
	} {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%w: undecodable file encoding", models.ErrValidation)
}
