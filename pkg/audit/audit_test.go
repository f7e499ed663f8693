package audit

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

var auditNow = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

func newAuditFixture(t *testing.T) (*Service, repository.Request) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	repo := repository.New(db, &repository.LocalStore{Dir: t.TempDir()})
	return NewService(repo), repository.Request{UserID: "admin", Now: auditNow}
}

func TestLogActionAndGetLogs(t *testing.T) {
	svc, rc := newAuditFixture(t)

	for i := 0; i < 3; i++ {
		step := rc
		step.Now = auditNow.Add(time.Duration(i) * time.Second)
		svc.LogAction(step, "update_job", "J-1", "status change")
	}

	logs, err := svc.GetLogs(rc, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// newest first
	require.Equal(t, NewLogID(auditNow.Add(2*time.Second)), schema.Str(logs[0], "Log_ID"))
	require.Equal(t, "admin", schema.Str(logs[0], "User_ID"))
	require.Equal(t, "update_job", schema.Str(logs[0], "Action"))
}

func TestGetLogsLimit(t *testing.T) {
	svc, rc := newAuditFixture(t)
	for i := 0; i < 5; i++ {
		step := rc
		step.Now = auditNow.Add(time.Duration(i) * time.Second)
		svc.LogAction(step, "login", "", "")
	}

	logs, err := svc.GetLogs(rc, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestLogActionSwallowsWriteFailure(t *testing.T) {
	// no System_Logs table migrated: the insert fails but LogAction
	// must not panic or surface the error
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	svc := NewService(repository.New(db, &repository.LocalStore{Dir: t.TempDir()}))
	svc.LogAction(repository.Request{UserID: "x", Now: auditNow}, "noop", "", "")
}

func TestNewLogID(t *testing.T) {
	require.Equal(t, "LOG-1754042400000", NewLogID(auditNow))
}
