// Package notify enqueues driver push notifications into the
// Notifications table. Delivery runs out of band; enqueue failures are
// logged and dropped so callers never block on the push pipeline.
package notify

import (
	"fmt"

	"github.com/google/uuid"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service {
	return &Service{repo: repo}
}

// Enqueue inserts one pending notification row.
func (s *Service) Enqueue(rc repository.Request, driverID, title, body, refID string) {
	row := schema.Row{
		"Notification_ID": uuid.NewString(),
		"Driver_ID":       driverID,
		"Title":           title,
		"Body":            body,
		"Ref_ID":          refID,
		"Status":          "Pending",
		"Created_At":      rc.At().Format(models.StoreLayout),
	}
	if err := s.repo.Insert(rc, schema.Notifications, row); err != nil {
		logger.Warnf("notify: enqueue for driver %s: %v", driverID, err)
	}
}

// NotifyNewJob tells a driver about a freshly planned job. Satisfies
// the planner's notifier contract.
func (s *Service) NotifyNewJob(rc repository.Request, driverID, driverName, jobID, planDate string) {
	s.Enqueue(rc, driverID,
		"งานใหม่ "+jobID,
		fmt.Sprintf("คุณ%s ได้รับมอบหมายงาน %s วันที่ %s", driverName, jobID, planDate),
		jobID)
}
