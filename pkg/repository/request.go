package repository

import (
	"strings"
	"time"
)

// Branch values that bypass the tenant filter.
const (
	BranchAll  = "ALL"
	BranchHead = "HEAD"
)

// Request carries per-call context into the core: who is acting, which
// branch scope applies, and the wall clock (injectable for tests). It
// replaces the process-wide session state the old admin UI leaked into
// business logic.
type Request struct {
	UserID   string
	BranchID string
	Now      time.Time
}

// At returns the request clock, defaulting to time.Now.
func (rc Request) At() time.Time {
	if rc.Now.IsZero() {
		return time.Now()
	}
	return rc.Now
}

// AllBranches reports whether reads should skip the branch filter.
func (rc Request) AllBranches() bool {
	b := strings.ToUpper(strings.TrimSpace(rc.BranchID))
	return b == "" || b == BranchAll || b == BranchHead
}
