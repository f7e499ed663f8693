// Package repository is the typed gateway between the operational core
// and the backing store: schema-checked writes, sanitization, a 60 s
// read cache and branch-scoped reads. Its boundary never panics; write
// failures come back as errors and are kept in LastError for the UI
// seam.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/schema"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 120 * time.Second
)

// Query describes a table read.
type Query struct {
	Table   string
	Columns []string
	// DaysBack limits rows to the last N days on the table's primary
	// timestamp column; 0 means no window.
	DaysBack int
	// Bypass skips the read cache. Mandatory for reads feeding a state
	// transition decision.
	Bypass bool
	// AllBranches overrides the branch filter for this read.
	AllBranches bool
}

// Guard restricts a conditional bulk update: a row is updated only when
// the guard column is null or outside the excluded set.
type Guard struct {
	Column string
	NotIn  []string
}

// Repo is the data access layer over the relational store.
type Repo struct {
	db    *gorm.DB
	cache *ttlCache
	blob  BlobStore

	mu      sync.Mutex
	lastErr string
}

// New builds a repository over an open gorm handle.
func New(db *gorm.DB, blob BlobStore) *Repo {
	return &Repo{db: db, cache: newTTLCache(), blob: blob}
}

// DB exposes the underlying handle for typed master CRUD in handlers.
func (r *Repo) DB() *gorm.DB { return r.db }

// LastError returns the most recent write failure as a structured string.
func (r *Repo) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Repo) setLastError(s string) {
	r.mu.Lock()
	r.lastErr = s
	r.mu.Unlock()
}

// Invalidate drops cached snapshots for a table. Every mutating service
// call does this after committing.
func (r *Repo) Invalidate(table string) { r.cache.invalidate(table) }

// ClearCache drops everything; used by tests and the admin cache reset.
func (r *Repo) ClearCache() { r.cache.clear() }

// GetData returns a table view (optionally a column projection) filtered
// by branch context and the recency window. Snapshots are cached for
// 60 s under (table, columns, days_back, branch); empty results cache as
// empty.
func (r *Repo) GetData(rc Request, q Query) ([]schema.Row, error) {
	if !schema.Known(q.Table) {
		return nil, fmt.Errorf("table %q: %w", q.Table, models.ErrValidation)
	}
	branchKey := rc.BranchID
	if q.AllBranches {
		branchKey = BranchAll
	}
	key := cacheKey(q.Table, q.Columns, q.DaysBack, branchKey)
	if !q.Bypass {
		if rows, ok := r.cache.get(key, rc.At()); ok {
			return rows, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	tx := r.db.WithContext(ctx).Table(q.Table)
	if len(q.Columns) > 0 {
		cols := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			if !schema.HasColumn(q.Table, c) {
				return nil, fmt.Errorf("table %s column %q: %w", q.Table, c, models.ErrUnknownColumn)
			}
			cols = append(cols, c)
		}
		tx = tx.Select(cols)
	}
	if schema.HasBranch(q.Table) && !q.AllBranches && !rc.AllBranches() {
		tx = tx.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if q.DaysBack > 0 {
		if col := schema.TimeColumn(q.Table); col != "" {
			cutoff := rc.At().AddDate(0, 0, -q.DaysBack)
			tx = tx.Where(clause.Gte{
				Column: clause.Column{Name: col},
				Value:  cutoff.Format(models.StoreLayout),
			})
		}
	}

	var raw []map[string]interface{}
	if err := tx.Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("get_data %s: %w", q.Table, err)
	}
	rows := make([]schema.Row, len(raw))
	for i := range raw {
		rows[i] = schema.Row(raw[i])
	}
	r.cache.put(key, rows, rc.At())
	return rows, nil
}

// GetByPK reads a single row by primary key, bypassing the cache.
func (r *Repo) GetByPK(rc Request, table, pk string) (schema.Row, error) {
	pkCol, err := schema.PK(table)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	var raw []map[string]interface{}
	if err := r.db.WithContext(ctx).Table(table).
		Where(map[string]interface{}{pkCol: pk}).Limit(1).Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, pk, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s %q: %w", table, pk, models.ErrNotFound)
	}
	return schema.Row(raw[0]), nil
}

// checkColumns rejects any column the registry does not know.
func checkColumns(table string, row schema.Row) error {
	for col := range row {
		if !schema.HasColumn(table, col) {
			return fmt.Errorf("table %s column %q: %w", table, col, models.ErrUnknownColumn)
		}
	}
	return nil
}

// Insert validates, sanitizes and writes a single row.
func (r *Repo) Insert(rc Request, table string, row schema.Row) error {
	if err := checkColumns(table, row); err != nil {
		return r.fail(err)
	}
	clean, ok := r.sanitizeRow(table, row)
	if !ok {
		return r.fail(fmt.Errorf("insert %s: null primary key: %w", table, models.ErrValidation))
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.db.WithContext(ctx).Table(table).Create(map[string]interface{}(clean)).Error; err != nil {
		return r.fail(fmt.Errorf("insert %s: %w", table, err))
	}
	r.Invalidate(table)
	return nil
}

// UpdateRows upserts a full set of rows by primary key. Rows whose PK is
// null after sanitization are dropped.
func (r *Repo) UpdateRows(rc Request, table string, rows []schema.Row) error {
	if len(rows) == 0 {
		return nil
	}
	pkCol, err := schema.PK(table)
	if err != nil {
		return r.fail(fmt.Errorf("%v: %w", err, models.ErrValidation))
	}
	clean := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if err := checkColumns(table, row); err != nil {
			return r.fail(err)
		}
		c, ok := r.sanitizeRow(table, row)
		if !ok {
			logger.Warnf("repository: dropping %s row with null PK", table)
			continue
		}
		clean = append(clean, map[string]interface{}(c))
	}
	if len(clean) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range clean {
			// gorm cannot expand UpdateAll for map-based creates, so
			// spell out the non-PK assignment columns explicitly.
			cols := make([]string, 0, len(row))
			for col := range row {
				if col != pkCol {
					cols = append(cols, col)
				}
			}
			conflict := clause.OnConflict{
				Columns:   []clause.Column{{Name: pkCol}},
				DoNothing: len(cols) == 0,
			}
			if len(cols) > 0 {
				conflict.DoUpdates = clause.AssignmentColumns(cols)
			}
			if err := tx.Table(table).Clauses(conflict).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.fail(fmt.Errorf("update_data %s: %w", table, err))
	}
	r.Invalidate(table)
	return nil
}

// UpsertRecord partially upserts one row: only the listed columns are
// written. The PK must be present.
func (r *Repo) UpsertRecord(rc Request, table string, row schema.Row) error {
	pkCol, err := schema.PK(table)
	if err != nil {
		return r.fail(fmt.Errorf("%v: %w", err, models.ErrValidation))
	}
	if err := checkColumns(table, row); err != nil {
		return r.fail(err)
	}
	clean, ok := r.sanitizeRow(table, row)
	if !ok {
		return r.fail(fmt.Errorf("upsert %s: missing primary key: %w", table, models.ErrValidation))
	}
	cols := make([]string, 0, len(clean))
	for col := range clean {
		if col != pkCol {
			cols = append(cols, col)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	tx := r.db.WithContext(ctx).Table(table)
	if len(cols) == 0 {
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: pkCol}},
			DoNothing: true,
		}).Create(map[string]interface{}(clean)).Error
	} else {
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: pkCol}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).Create(map[string]interface{}(clean)).Error
	}
	if err != nil {
		return r.fail(fmt.Errorf("upsert %s: %w", table, err))
	}
	r.Invalidate(table)
	return nil
}

// UpdateFieldBulk sets one field across many PKs.
func (r *Repo) UpdateFieldBulk(rc Request, table, pkCol string, pks []string, field string, value interface{}) (int64, error) {
	return r.UpdateFieldsBulk(rc, table, pkCol, pks, schema.Row{field: value}, nil)
}

// UpdateFieldsBulk sets several fields across many PKs in one statement,
// optionally guarded (row updated only when the guard column is null or
// outside the excluded set). Returns the affected-row count so callers
// can verify it against the input set.
func (r *Repo) UpdateFieldsBulk(rc Request, table, pkCol string, pks []string, fields schema.Row, guard *Guard) (int64, error) {
	if len(pks) == 0 {
		return 0, nil
	}
	if !schema.HasColumn(table, pkCol) {
		return 0, r.fail(fmt.Errorf("table %s column %q: %w", table, pkCol, models.ErrUnknownColumn))
	}
	if err := checkColumns(table, fields); err != nil {
		return 0, r.fail(err)
	}
	clean := make(map[string]interface{}, len(fields))
	for col, v := range fields {
		clean[col] = r.sanitizeValue(col, v)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	tx := r.db.WithContext(ctx).Table(table).
		Where(map[string]interface{}{pkCol: pks})
	if guard != nil {
		vals := make([]interface{}, len(guard.NotIn))
		for i, v := range guard.NotIn {
			vals[i] = v
		}
		tx = tx.Where(clause.Or(
			clause.Eq{Column: clause.Column{Name: guard.Column}, Value: nil},
			clause.Not(clause.IN{Column: clause.Column{Name: guard.Column}, Values: vals}),
		))
	}
	res := tx.Updates(clean)
	if res.Error != nil {
		return 0, r.fail(fmt.Errorf("bulk update %s: %w", table, res.Error))
	}
	r.Invalidate(table)
	return res.RowsAffected, nil
}

// DeleteRecords removes rows by primary key values.
func (r *Repo) DeleteRecords(rc Request, table, pkCol string, pks []string) error {
	if len(pks) == 0 {
		return nil
	}
	if !schema.HasColumn(table, pkCol) {
		return r.fail(fmt.Errorf("table %s column %q: %w", table, pkCol, models.ErrUnknownColumn))
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.db.WithContext(ctx).Table(table).
		Where(map[string]interface{}{pkCol: pks}).
		Delete(nil).Error; err != nil {
		return r.fail(fmt.Errorf("delete %s: %w", table, err))
	}
	r.Invalidate(table)
	return nil
}

func (r *Repo) fail(err error) error {
	r.setLastError(err.Error())
	logger.Errorf("repository: %v", err)
	return err
}
