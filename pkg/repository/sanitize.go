package repository

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/schema"
)

// Sanitization applied to every outgoing write. Values arrive from
// spreadsheet imports, mobile forms and legacy rows, so the rules are
// deliberately forgiving: fix what can be fixed, null what cannot.

const (
	maxCellLen     = 1000
	base64CellLen  = 4000
	truncateSuffix = "(truncated)"
)

var nullLiterals = map[string]bool{
	"":     true,
	"-":    true,
	"N/A":  true,
	"None": true,
	"null": true,
}

var sheetErrorTokens = map[string]bool{
	"#VALUE!": true, "#REF!": true, "#N/A": true, "#DIV/0!": true,
	"#NULL!": true, "#NUM!": true, "#NAME?": true, "#ERROR!": true,
}

var (
	thousandsRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	dmyRe       = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// sanitizeRow normalizes one row in place-copy form. Returns false when
// the row's PK resolves to null after sanitization, meaning the caller
// must drop it.
func (r *Repo) sanitizeRow(table string, row schema.Row) (schema.Row, bool) {
	out := make(schema.Row, len(row))
	for col, v := range row {
		out[col] = r.sanitizeValue(col, v)
	}
	pk, err := schema.PK(table)
	if err == nil {
		if v, present := out[pk]; present && v == nil {
			return nil, false
		}
	}
	return out, true
}

func (r *Repo) sanitizeValue(col string, v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case time.Time:
		return val.Format(models.StoreLayout)
	case models.JSONTime:
		return val.Time().Format(models.StoreLayout)
	case *models.JSONTime:
		if val == nil {
			return nil
		}
		return val.Time().Format(models.StoreLayout)
	case string:
		return r.sanitizeString(col, val)
	default:
		return v
	}
}

func (r *Repo) sanitizeString(col, s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if nullLiterals[trimmed] || sheetErrorTokens[trimmed] {
		return nil
	}
	if thousandsRe.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
			return f
		}
	}
	if m := dmyRe.FindStringSubmatch(trimmed); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if len(s) > maxCellLen {
		return r.offloadOrTruncate(col, s)
	}
	return s
}

// offloadOrTruncate handles oversized string cells: base64 image and PDF
// payloads go to the blob store and the cell keeps only the URL; other
// long strings are cut at the cell limit.
func (r *Repo) offloadOrTruncate(col, s string) interface{} {
	if LooksLikeBlob(s) {
		if url := r.UploadBase64Image("epod_images", strings.ToLower(col), s); url != "" {
			return url
		}
		logger.Warnf("repository: blob offload failed for column %s, truncating", col)
	}
	return s[:maxCellLen] + truncateSuffix
}

// LooksLikeBlob reports whether an oversized string cell is base64 image
// or PDF data rather than text.
func LooksLikeBlob(s string) bool {
	return strings.HasPrefix(s, "data:image") ||
		strings.HasPrefix(s, "JVBERi0") ||
		len(s) > base64CellLen
}
