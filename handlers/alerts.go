// handlers/alerts.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/tms/middleware"
)

// ListAlerts returns the user's active alert set.
// GET /api/v1/alerts
func ListAlerts(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	writeJSON(w, http.StatusOK, AlertSvc.Active(rc))
}

// DismissAlert hides one alert for this user.
// POST /api/v1/alerts/{id}/dismiss
func DismissAlert(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	if err := AlertSvc.Dismiss(rc, mux.Vars(r)["id"]); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// MarkAlertsViewed moves the user's read watermark to now.
// POST /api/v1/alerts/seen
func MarkAlertsViewed(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	if err := AlertSvc.MarkViewed(rc); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seen"})
}

// UnreadAlertCount is the badge number for the alert bell.
// GET /api/v1/alerts/unread
func UnreadAlertCount(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	writeJSON(w, http.StatusOK, map[string]int{"unread": AlertSvc.UnreadCount(rc)})
}
