// handlers/fleet.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"p9e.in/tms/config"
	"p9e.in/tms/middleware"
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/schema"
)

// ListFuelLogs returns branch-scoped fuel logs, optionally one status.
// GET /api/v1/fuel?status=Pending
func ListFuelLogs(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.FuelLog
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where(map[string]interface{}{"Status": status})
	}
	if err := q.Order("\"Date_Time\" DESC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateFuelLog records a refuel from the driver app. Bill photos come
// as base64 data URIs and are offloaded to the blob store.
// POST /api/v1/fuel
func CreateFuelLog(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var req struct {
		models.FuelLog
		BillPhotos []string `json:"bill_photos,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	log := req.FuelLog
	if log.LogID == "" {
		log.LogID = "FUEL-" + uuid.NewString()[:8]
	}
	if log.Liters <= 0 || log.PricePerLiter <= 0 {
		http.Error(w, "Liters and Price_Per_Liter must be positive", http.StatusBadRequest)
		return
	}
	if log.PriceTotal == 0 {
		log.PriceTotal = log.Liters * log.PricePerLiter
	}
	if log.BranchID == "" {
		log.BranchID = rc.BranchID
	}
	log.Status = models.FuelPending
	if log.DateTime.Time().IsZero() {
		log.DateTime = models.JSONTime(rc.At())
	}
	for _, photo := range req.BillPhotos {
		if url := Repo.UploadBase64Image("epod_images", "fuel_bill", photo); url != "" {
			log.BillPhotoURLs = append(log.BillPhotoURLs, url)
		}
	}
	if err := config.DB.Create(&log).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.FuelLogs)
	writeJSON(w, http.StatusCreated, log)
}

// ReviewFuelLog approves or rejects a pending fuel log. An approved log
// advances the vehicle's mileage counter when the odometer moved
// forward.
// POST /api/v1/fuel/{id}/review
func ReviewFuelLog(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var req struct {
		Decision string `json:"decision"` // Approved | Rejected
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	decision := strings.TrimSpace(req.Decision)
	if decision != models.FuelApproved && decision != models.FuelRejected {
		http.Error(w, "decision must be Approved or Rejected", http.StatusBadRequest)
		return
	}

	var log models.FuelLog
	if err := config.DB.First(&log, map[string]interface{}{"Log_ID": id}).Error; err != nil {
		http.Error(w, "fuel log not found", http.StatusNotFound)
		return
	}
	if log.Status != models.FuelPending {
		fail(w, fmt.Errorf("fuel log %s already %s: %w", id, log.Status, models.ErrValidation))
		return
	}

	if err := config.DB.Model(&models.FuelLog{}).
		Where(map[string]interface{}{"Log_ID": id, "Status": models.FuelPending}).
		Update("Status", decision).Error; err != nil {
		fail(w, err)
		return
	}
	if decision == models.FuelApproved && log.Odometer > 0 {
		config.DB.Model(&models.Driver{}).
			Where(map[string]interface{}{"Driver_ID": log.DriverID}).
			Where("\"Current_Mileage\" < ?", log.Odometer).
			Update("Current_Mileage", log.Odometer)
		Repo.Invalidate(schema.Drivers)
	}
	Repo.Invalidate(schema.FuelLogs)
	AuditSvc.LogAction(rc, "fuel_review", id, decision)
	writeJSON(w, http.StatusOK, map[string]string{"Status": decision})
}

// ListRepairTickets returns branch-scoped workshop tickets.
// GET /api/v1/repairs
func ListRepairTickets(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.RepairTicket
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if err := q.Order("\"Date_Report\" DESC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateRepairTicket opens a workshop ticket.
// POST /api/v1/repairs
func CreateRepairTicket(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var t models.RepairTicket
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(t.VehiclePlate) == "" {
		http.Error(w, "Vehicle_Plate is required", http.StatusBadRequest)
		return
	}
	if t.TicketID == "" {
		t.TicketID = "TK-" + uuid.NewString()[:8]
	}
	if t.Status == "" {
		t.Status = models.RepairOpen
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = models.PaymentPending
	}
	if t.DateReport.Time().IsZero() {
		t.DateReport = models.JSONTime(rc.At())
	}
	if t.BranchID == "" {
		t.BranchID = rc.BranchID
	}
	if err := config.DB.Create(&t).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.RepairTickets)
	AuditSvc.LogAction(rc, "create_ticket", t.TicketID, t.VehiclePlate)
	writeJSON(w, http.StatusCreated, t)
}

// UpdateRepairTicket moves a ticket through the workshop flow. The
// payment lock mirrors jobs: paid tickets refuse cost changes.
// PUT /api/v1/repairs/{id}
func UpdateRepairTicket(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	delete(patch, "Ticket_ID")

	var t models.RepairTicket
	if err := config.DB.First(&t, map[string]interface{}{"Ticket_ID": id}).Error; err != nil {
		http.Error(w, "ticket not found", http.StatusNotFound)
		return
	}
	if models.IsPaid(t.PaymentStatus) {
		for _, col := range []string{"Cost_Total", "Payment_Date", "Payment_Slip_Url"} {
			if _, ok := patch[col]; ok {
				fail(w, fmt.Errorf("ticket %s field %s: %w", id, col, models.ErrPaymentLocked))
				return
			}
		}
	}
	if st, ok := patch["Status"].(string); ok && IsRepairDone(st) && patch["Date_Finish"] == nil && t.DateFinish == nil {
		patch["Date_Finish"] = rc.At().Format(models.StoreLayout)
	}

	if err := config.DB.Model(&models.RepairTicket{}).
		Where(map[string]interface{}{"Ticket_ID": id}).
		Updates(patch).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.RepairTickets)
	AuditSvc.LogAction(rc, "update_ticket", id, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// IsRepairDone reports whether a status string means the work finished.
func IsRepairDone(status string) bool {
	return strings.TrimSpace(status) == models.RepairDone ||
		strings.EqualFold(strings.TrimSpace(status), "completed")
}
