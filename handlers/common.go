package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/alerts"
	"p9e.in/tms/pkg/archive"
	"p9e.in/tms/pkg/audit"
	"p9e.in/tms/pkg/billing"
	"p9e.in/tms/pkg/importer"
	"p9e.in/tms/pkg/notify"
	"p9e.in/tms/pkg/payroll"
	"p9e.in/tms/pkg/planner"
	"p9e.in/tms/pkg/pricing"
	"p9e.in/tms/pkg/repository"
)

// Package-level services, wired once at startup.
var (
	Repo        *repository.Repo
	PricingSvc  *pricing.Service
	PlannerSvc  *planner.Service
	PayrollSvc  *payroll.Service
	BillingSvc  *billing.Service
	ArchiveSvc  *archive.Service
	AuditSvc    *audit.Service
	AlertSvc    *alerts.Service
	NotifySvc   *notify.Service
	ImporterSvc *importer.Service
)

// Init wires every handler dependency from the shared repository.
func Init(repo *repository.Repo) {
	Repo = repo
	PricingSvc = pricing.NewService(repo)
	NotifySvc = notify.NewService(repo)
	PlannerSvc = planner.NewService(repo, NotifySvc)
	PayrollSvc = payroll.NewService(repo)
	BillingSvc = billing.NewService(repo)
	ArchiveSvc = archive.NewService(repo)
	AuditSvc = audit.NewService(repo)
	AlertSvc = alerts.NewService(repo)
	ImporterSvc = importer.NewService(repo)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// httpStatus maps service error kinds onto HTTP codes; the repository's
// last_error string rides along where one is set.
func fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrUnknownColumn),
		errors.Is(err, models.ErrUnknownBank):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrGpsRequired), errors.Is(err, models.ErrPaymentLocked),
		errors.Is(err, models.ErrBillingLocked), errors.Is(err, models.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrRace):
		status = http.StatusConflict
	}
	body := map[string]string{"error": err.Error()}
	if Repo != nil {
		if last := Repo.LastError(); last != "" {
			body["last_error"] = last
		}
	}
	writeJSON(w, status, body)
}
