// handlers/jobs.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"p9e.in/tms/middleware"
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
	"p9e.in/tms/utils"
)

// ListJobs returns the branch-scoped job view.
// GET /api/v1/jobs?days_back=30&columns=Job_ID,Plan_Date
func ListJobs(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	q := repository.Query{Table: schema.Jobs}
	if v := r.URL.Query().Get("days_back"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.DaysBack = n
		}
	}
	if v := r.URL.Query().Get("columns"); v != "" {
		q.Columns = splitCSV(v)
	}
	if r.URL.Query().Get("fresh") == "1" {
		q.Bypass = true
	}
	rows, err := Repo.GetData(rc, q)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetJob returns one job by PK.
// GET /api/v1/jobs/{id}
func GetJob(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	row, err := Repo.GetByPK(rc, schema.Jobs, mux.Vars(r)["id"])
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// CreateJob inserts a new job. Missing Job_ID and Job_Status are filled
// server-side.
// POST /api/v1/jobs
func CreateJob(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var row schema.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if schema.Str(row, "Job_ID") == "" {
		row["Job_ID"] = models.NewJobID(rc.At())
	}
	if schema.Str(row, "Job_Status") == "" {
		row["Job_Status"] = models.StatusNew
	}
	if schema.Str(row, "Branch_ID") == "" {
		row["Branch_ID"] = rc.BranchID
	}
	if err := Repo.Insert(rc, schema.Jobs, row); err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "create_job", schema.Str(row, "Job_ID"), "")
	writeJSON(w, http.StatusCreated, map[string]string{"Job_ID": schema.Str(row, "Job_ID")})
}

// UpdateJob applies a partial update, honoring the payment and billing
// locks on already settled rows.
// PUT /api/v1/jobs/{id}
func UpdateJob(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var patch schema.Row
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	delete(patch, "Job_ID")

	job, err := loadJob(rc, id)
	if err != nil {
		fail(w, err)
		return
	}
	changed := make([]string, 0, len(patch))
	for col := range patch {
		changed = append(changed, col)
	}
	if err := models.CheckPaymentLock(job, changed); err != nil {
		fail(w, err)
		return
	}
	if err := models.CheckBillingLock(job, changed); err != nil {
		fail(w, err)
		return
	}

	patch["Job_ID"] = id
	if err := Repo.UpdateRows(rc, schema.Jobs, []schema.Row{patch}); err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "update_job", id, fmt.Sprintf("%d fields", len(changed)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type transitionReq struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
}

// TransitionJob moves a job along the lifecycle graph. Delivery
// transitions require a GPS fix, supplied here or already on the row.
// POST /api/v1/jobs/{id}/status
func TransitionJob(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	job, err := loadJob(rc, id)
	if err != nil {
		fail(w, err)
		return
	}
	if req.Lat != 0 || req.Lon != 0 {
		job.DeliveryLat = req.Lat
		job.DeliveryLon = req.Lon
	}
	if err := models.ApplyTransition(job, req.Status, rc.At()); err != nil {
		fail(w, err)
		return
	}

	patch := schema.Row{
		"Job_ID":       id,
		"Job_Status":   job.JobStatus,
		"Delivery_Lat": job.DeliveryLat,
		"Delivery_Lon": job.DeliveryLon,
	}
	if job.ActualPickupTime != nil {
		patch["Actual_Pickup_Time"] = job.ActualPickupTime.Time().Format(models.StoreLayout)
	}
	if job.ArriveDestTime != nil {
		patch["Arrive_Dest_Time"] = job.ArriveDestTime.Time().Format(models.StoreLayout)
	}
	if job.ActualDeliveryTime != nil {
		patch["Actual_Delivery_Time"] = job.ActualDeliveryTime.Time().Format(models.StoreLayout)
	}
	if err := Repo.UpdateRows(rc, schema.Jobs, []schema.Row{patch}); err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "job_status", id, job.JobStatus)
	writeJSON(w, http.StatusOK, map[string]string{"Job_Status": job.JobStatus})
}

type podReq struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Photo     string  `json:"photo,omitempty"`     // base64 data URI
	Signature string  `json:"signature,omitempty"` // base64 data URI
	Remark    string  `json:"remark,omitempty"`
}

// SubmitPOD records proof of delivery: GPS fix, photo and signature.
// Oversized base64 payloads are offloaded to the blob store. A fix far
// from the customer's known location is rejected.
// POST /api/v1/jobs/{id}/pod
func SubmitPOD(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var req podReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Lat == 0 || req.Lon == 0 {
		fail(w, fmt.Errorf("POD needs a GPS fix: %w", models.ErrGpsRequired))
		return
	}

	job, err := loadJob(rc, id)
	if err != nil {
		fail(w, err)
		return
	}
	if cust, err := Repo.GetByPK(rc, schema.Customers, job.CustomerID); err == nil {
		destLat := schema.Float(cust, "Default_Lat")
		destLon := schema.Float(cust, "Default_Lon")
		if !utils.PlausiblePOD(req.Lat, req.Lon, destLat, destLon) {
			fail(w, fmt.Errorf("delivery fix %.0f m from destination: %w",
				utils.DistanceM(req.Lat, req.Lon, destLat, destLon), models.ErrValidation))
			return
		}
	}

	patch := schema.Row{
		"Job_ID":       id,
		"Delivery_Lat": req.Lat,
		"Delivery_Lon": req.Lon,
	}
	if req.Photo != "" {
		patch["Photo_Proof_Url"] = Repo.UploadBase64Image("epod_images", "photo", req.Photo)
	}
	if req.Signature != "" {
		patch["Signature_Url"] = Repo.UploadBase64Image("epod_images", "signature", req.Signature)
	}
	if req.Remark != "" {
		patch["Remark"] = req.Remark
	}

	job.DeliveryLat, job.DeliveryLon = req.Lat, req.Lon
	if err := models.ApplyTransition(job, models.StatusDelivered, rc.At()); err != nil {
		fail(w, err)
		return
	}
	patch["Job_Status"] = job.JobStatus
	if job.ActualDeliveryTime != nil {
		patch["Actual_Delivery_Time"] = job.ActualDeliveryTime.Time().Format(models.StoreLayout)
	}
	if job.ArriveDestTime != nil {
		patch["Arrive_Dest_Time"] = job.ArriveDestTime.Time().Format(models.StoreLayout)
	}

	if err := Repo.UpdateRows(rc, schema.Jobs, []schema.Row{patch}); err != nil {
		fail(w, err)
		return
	}
	AuditSvc.LogAction(rc, "pod_submit", id, "")
	writeJSON(w, http.StatusOK, map[string]string{"Job_Status": job.JobStatus})
}

type gpsReq struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp string  `json:"timestamp,omitempty"` // RFC3339; defaults to now
}

// UpdateDriverGPS stores the driver's latest position snapshot. Fixes
// older than the stored Last_Update are ignored so out-of-order uploads
// cannot rewind the marker.
// POST /api/v1/drivers/{id}/gps
func UpdateDriverGPS(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	var req gpsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fixAt := rc.At()
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			http.Error(w, "invalid timestamp", http.StatusBadRequest)
			return
		}
		fixAt = t
	}

	driver, err := Repo.GetByPK(rc, schema.Drivers, id)
	if err != nil {
		fail(w, err)
		return
	}
	if last := schema.Time(driver, "Last_Update"); !last.IsZero() && !fixAt.After(last) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "stale fix ignored"})
		return
	}

	patch := schema.Row{
		"Driver_ID":   id,
		"Current_Lat": req.Lat,
		"Current_Lon": req.Lon,
		"Last_Update": fixAt.Format(models.StoreLayout),
	}
	if err := Repo.UpdateRows(rc, schema.Drivers, []schema.Row{patch}); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// loadJob fetches one job bypassing the cache and decodes it into the
// typed form the lock and transition checks expect.
func loadJob(rc repository.Request, id string) (*models.Job, error) {
	row, err := Repo.GetByPK(rc, schema.Jobs, id)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
