package notify

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

func newNotifyFixture(t *testing.T) (*Service, *repository.Repo, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	rc := repository.Request{UserID: "sys", Now: time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)}
	return NewService(repo), repo, rc
}

func TestNotifyNewJobEnqueues(t *testing.T) {
	svc, repo, rc := newNotifyFixture(t)

	svc.NotifyNewJob(rc, "D-1", "สมชาย", "J-77", "2025-03-02")

	rows, err := repo.GetData(rc, repository.Query{Table: schema.Notifications, Bypass: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "D-1", schema.Str(rows[0], "Driver_ID"))
	require.Equal(t, "Pending", schema.Str(rows[0], "Status"))
	require.Equal(t, "J-77", schema.Str(rows[0], "Ref_ID"))
	require.Contains(t, schema.Str(rows[0], "Body"), "สมชาย")
	require.NotEmpty(t, schema.Str(rows[0], "Notification_ID"))
}

func TestEnqueueSwallowsWriteFailure(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	svc := NewService(repository.New(db, &repository.LocalStore{Dir: t.TempDir()}))
	// no Notifications table: enqueue logs and drops, never panics
	svc.Enqueue(repository.Request{UserID: "sys"}, "D-1", "t", "b", "r")
}
