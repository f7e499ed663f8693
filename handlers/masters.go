// handlers/masters.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"p9e.in/tms/config"
	"p9e.in/tms/middleware"
	"p9e.in/tms/models"
	"p9e.in/tms/pkg/schema"
	"p9e.in/tms/utils"
)

// Master CRUD goes through the typed models; the row-level cache is
// invalidated after every write so planner and alert reads see fresh
// master data within one call.

func ListDrivers(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.Driver
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if err := q.Order("\"Driver_Name\" ASC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func UpsertDriver(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var d models.Driver
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(d.DriverID) == "" || strings.TrimSpace(d.DriverName) == "" {
		http.Error(w, "Driver_ID and Driver_Name are required", http.StatusBadRequest)
		return
	}
	if d.Phone != "" && !utils.ValidatePhone(d.Phone) {
		http.Error(w, "invalid phone number", http.StatusBadRequest)
		return
	}
	if d.VehiclePlate != "" && !utils.ValidatePlate(d.VehiclePlate) {
		http.Error(w, "invalid vehicle plate", http.StatusBadRequest)
		return
	}
	if d.BranchID == "" {
		d.BranchID = rc.BranchID
	}
	if err := config.DB.Save(&d).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.Drivers)
	AuditSvc.LogAction(rc, "upsert_driver", d.DriverID, d.DriverName)
	writeJSON(w, http.StatusOK, d)
}

func DeleteDriver(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	id := mux.Vars(r)["id"]
	res := config.DB.Delete(&models.Driver{}, map[string]interface{}{"Driver_ID": id})
	if res.Error != nil {
		fail(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "driver not found", http.StatusNotFound)
		return
	}
	Repo.Invalidate(schema.Drivers)
	AuditSvc.LogAction(rc, "delete_driver", id, "")
	w.WriteHeader(http.StatusNoContent)
}

func ListCustomers(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.Customer
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if err := q.Order("\"Customer_Name\" ASC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func UpsertCustomer(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var c models.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(c.CustomerID) == "" || strings.TrimSpace(c.CustomerName) == "" {
		http.Error(w, "Customer_ID and Customer_Name are required", http.StatusBadRequest)
		return
	}
	if c.Email != "" && !utils.ValidateEmail(c.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if c.BranchID == "" {
		c.BranchID = rc.BranchID
	}
	if err := config.DB.Save(&c).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.Customers)
	AuditSvc.LogAction(rc, "upsert_customer", c.CustomerID, c.CustomerName)
	writeJSON(w, http.StatusOK, c)
}

func ListRoutes(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.Route
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if err := q.Order("\"Route_Name\" ASC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func UpsertRoute(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var rt models.Route
	if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(rt.RouteID) == "" || rt.DistanceKM < 0 {
		http.Error(w, "Route_ID required and Distance_KM must be >= 0", http.StatusBadRequest)
		return
	}
	if rt.BranchID == "" {
		rt.BranchID = rc.BranchID
	}
	if err := config.DB.Save(&rt).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.Routes)
	AuditSvc.LogAction(rc, "upsert_route", rt.RouteID, rt.RouteName)
	writeJSON(w, http.StatusOK, rt)
}

func ListVehicles(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var out []models.Vehicle
	q := config.DB
	if !rc.AllBranches() {
		q = q.Where(map[string]interface{}{"Branch_ID": rc.BranchID})
	}
	if err := q.Order("\"Vehicle_Plate\" ASC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func UpsertVehicle(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var v models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !utils.ValidatePlate(v.VehiclePlate) {
		http.Error(w, "invalid vehicle plate", http.StatusBadRequest)
		return
	}
	if v.BranchID == "" {
		v.BranchID = rc.BranchID
	}
	if err := config.DB.Save(&v).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.Vehicles)
	AuditSvc.LogAction(rc, "upsert_vehicle", v.VehiclePlate, v.VehicleType)
	writeJSON(w, http.StatusOK, v)
}

// ListRateCard returns the rate bands ordered by distance.
func ListRateCard(w http.ResponseWriter, r *http.Request) {
	var out []models.RateCardRow
	if err := config.DB.Order("\"Distance_KM\" ASC").Find(&out).Error; err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func UpsertRateCard(w http.ResponseWriter, r *http.Request) {
	rc := middleware.GetRequest(r)
	var band models.RateCardRow
	if err := json.NewDecoder(r.Body).Decode(&band); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if band.DistanceKM <= 0 {
		http.Error(w, "Distance_KM must be positive", http.StatusBadRequest)
		return
	}
	if err := config.DB.Save(&band).Error; err != nil {
		fail(w, err)
		return
	}
	Repo.Invalidate(schema.RateCard)
	AuditSvc.LogAction(rc, "upsert_rate_band", "", "")
	writeJSON(w, http.StatusOK, band)
}
