package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"p9e.in/tms/handlers"
	"p9e.in/tms/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.GetCurrentUser).Methods("GET")

	registerJobRoutes(api)
	registerMasterRoutes(api)
	registerFleetRoutes(api)
	registerOperationRoutes(api)

	// =====================================================
	// Admin Routes (require admin role)
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	registerAdminRoutes(admin)

	return r
}

func registerJobRoutes(api *mux.Router) {
	api.HandleFunc("/jobs", handlers.ListJobs).Methods("GET")
	api.HandleFunc("/jobs", handlers.CreateJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", handlers.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", handlers.UpdateJob).Methods("PUT")
	api.HandleFunc("/jobs/{id}/status", handlers.TransitionJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/pod", handlers.SubmitPOD).Methods("POST")
	api.HandleFunc("/drivers/{id}/gps", handlers.UpdateDriverGPS).Methods("POST")
}

func registerMasterRoutes(api *mux.Router) {
	api.HandleFunc("/drivers", handlers.ListDrivers).Methods("GET")
	api.HandleFunc("/drivers", handlers.UpsertDriver).Methods("POST", "PUT")
	api.HandleFunc("/drivers/{id}", handlers.DeleteDriver).Methods("DELETE")
	api.HandleFunc("/customers", handlers.ListCustomers).Methods("GET")
	api.HandleFunc("/customers", handlers.UpsertCustomer).Methods("POST", "PUT")
	api.HandleFunc("/routes", handlers.ListRoutes).Methods("GET")
	api.HandleFunc("/routes", handlers.UpsertRoute).Methods("POST", "PUT")
	api.HandleFunc("/vehicles", handlers.ListVehicles).Methods("GET")
	api.HandleFunc("/vehicles", handlers.UpsertVehicle).Methods("POST", "PUT")
	api.HandleFunc("/ratecard", handlers.ListRateCard).Methods("GET")
}

func registerFleetRoutes(api *mux.Router) {
	api.HandleFunc("/fuel", handlers.ListFuelLogs).Methods("GET")
	api.HandleFunc("/fuel", handlers.CreateFuelLog).Methods("POST")
	api.HandleFunc("/repairs", handlers.ListRepairTickets).Methods("GET")
	api.HandleFunc("/repairs", handlers.CreateRepairTicket).Methods("POST")
	api.HandleFunc("/repairs/{id}", handlers.UpdateRepairTicket).Methods("PUT")
	api.HandleFunc("/files", handlers.UploadFile).Methods("POST")
}

func registerOperationRoutes(api *mux.Router) {
	api.HandleFunc("/pricing/quote", handlers.QuotePrice).Methods("POST")
	api.HandleFunc("/planner/propose", handlers.ProposePlan).Methods("POST")
	api.HandleFunc("/planner/apply", handlers.ApplyPlan).Methods("POST")

	api.HandleFunc("/alerts", handlers.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts/unread", handlers.UnreadAlertCount).Methods("GET")
	api.HandleFunc("/alerts/seen", handlers.MarkAlertsViewed).Methods("POST")
	api.HandleFunc("/alerts/{id}/dismiss", handlers.DismissAlert).Methods("POST")

	api.HandleFunc("/import/{table}/template", handlers.DownloadTemplate).Methods("GET")
}

func registerAdminRoutes(admin *mux.Router) {
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole([]string{"admin", "manager"}, h)
	}

	admin.Handle("/payroll/summary", adminOnly(handlers.PayrollSummary)).Methods("GET")
	admin.Handle("/payroll/pending", adminOnly(handlers.PendingPayments)).Methods("GET")
	admin.Handle("/payroll/pay", adminOnly(handlers.PayJobs)).Methods("POST")

	admin.Handle("/billing/summary", adminOnly(handlers.BillingSummary)).Methods("GET")
	admin.Handle("/billing/invoice", adminOnly(handlers.CreateInvoice)).Methods("POST")
	admin.Handle("/billing/bulk", adminOnly(handlers.BulkInvoice)).Methods("POST")
	admin.Handle("/billing/aging", adminOnly(handlers.ARAging)).Methods("GET")
	admin.Handle("/billing/payment", adminOnly(handlers.MarkCustomerPayment)).Methods("POST")

	admin.Handle("/fuel/{id}/review", adminOnly(handlers.ReviewFuelLog)).Methods("POST")
	admin.Handle("/ratecard", adminOnly(handlers.UpsertRateCard)).Methods("POST", "PUT")
	admin.Handle("/archive/run", adminOnly(handlers.RunArchive)).Methods("POST")
	admin.Handle("/audit", adminOnly(handlers.GetAuditLogs)).Methods("GET")
	admin.Handle("/import/{table}", adminOnly(handlers.ImportTable)).Methods("POST")
}
