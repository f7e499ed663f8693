// Package audit records user actions in System_Logs. Logging is fire
// and forget: a failed write never propagates to the caller.
package audit

import (
	"fmt"
	"sort"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

const DefaultLimit = 100

type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service {
	return &Service{repo: repo}
}

// LogAction appends one entry. Errors are swallowed after logging so an
// unavailable log table cannot break the operation being audited.
func (s *Service) LogAction(rc repository.Request, action, target, details string) {
	now := rc.At()
	row := schema.Row{
		"Log_ID":    NewLogID(now),
		"Timestamp": now.Format(models.StoreLayout),
		"User_ID":   rc.UserID,
		"Action":    action,
		"Target":    target,
		"Details":   details,
		"Status":    "Success",
	}
	if err := s.repo.Insert(rc, schema.SystemLogs, row); err != nil {
		logger.Warnf("audit: log action %q: %v", action, err)
	}
}

// GetLogs returns the newest entries first, capped at limit.
func (s *Service) GetLogs(rc repository.Request, limit int) ([]schema.Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.repo.GetData(rc, repository.Query{
		Table: schema.SystemLogs, Bypass: true,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return schema.Time(rows[i], "Timestamp").After(schema.Time(rows[j], "Timestamp"))
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// NewLogID builds the millisecond-epoch identifier LOG-<epoch_ms>.
func NewLogID(now time.Time) string {
	return fmt.Sprintf("LOG-%d", now.UnixMilli())
}
