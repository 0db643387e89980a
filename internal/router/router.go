package router

import (
	"net/http"

	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/handler"
	"asset-inventory-api/internal/middleware"
	"asset-inventory-api/internal/model"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// assetPaths maps each asset type to its collection path.
var assetPaths = map[model.AssetType]string{
	model.AssetTypeComputer:       "/computers",
	model.AssetTypePrinter:        "/printers",
	model.AssetTypeMonitor:        "/monitors",
	model.AssetTypeDockingStation: "/docking-stations",
}

var assignmentActions = []model.AssignmentAction{
	model.AssignmentActionApprove,
	model.AssignmentActionReject,
	model.AssignmentActionCheckout,
	model.AssignmentActionReturn,
}

// NewRouter creates a new router and sets up the routes with security middleware.
func NewRouter(inv handler.InventoryHandlerInterface, asg handler.AssignmentHandlerInterface, st handler.SettingsHandlerInterface, cfg *config.Config, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()

	securityMW := middleware.NewSecurityMiddleware(&cfg.Security)
	auditMW := middleware.NewAuditContextMiddleware(cfg.Auth.JWTSecret.Value(), logger)

	// Apply global middleware in order. AuditContext needs the client IP from
	// TrustedProxy and must run before RequestTimeout moves the handler to
	// another goroutine.
	r.Use(middleware.Instrument)
	r.Use(securityMW.SecurityHeaders)
	r.Use(securityMW.CORS)
	r.Use(securityMW.TrustedProxy)
	r.Use(auditMW.AuditContext)
	r.Use(securityMW.RateLimit)
	r.Use(securityMW.RequestTimeout)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Registered ahead of /computers/{id} so the id route does not capture it.
	api.HandleFunc("/computers/by-department", inv.ComputersByDepartmentHandler).Methods("GET")

	for _, assetType := range model.AllAssetTypes {
		path := assetPaths[assetType]
		api.HandleFunc(path, inv.ListHandler(assetType)).Methods("GET")
		api.HandleFunc(path, inv.CreateHandler(assetType)).Methods("POST")
		api.HandleFunc(path+"/{id}", inv.GetHandler(assetType)).Methods("GET")
		api.HandleFunc(path+"/{id}", inv.UpdateHandler(assetType)).Methods("PUT")
		api.HandleFunc(path+"/{id}", inv.DeleteHandler(assetType)).Methods("DELETE")
		api.HandleFunc(path+"/{id}/history", inv.AssetHistoryHandler(assetType)).Methods("GET")
	}

	api.HandleFunc("/history", inv.ListHistoryHandler).Methods("GET")
	api.HandleFunc("/dashboard", inv.DashboardHandler).Methods("GET")

	api.HandleFunc("/assignments", asg.ListAssignmentsHandler).Methods("GET")
	api.HandleFunc("/assignments", asg.CreateAssignmentHandler).Methods("POST")
	api.HandleFunc("/assignments/{id}", asg.GetAssignmentHandler).Methods("GET")
	for _, action := range assignmentActions {
		api.HandleFunc("/assignments/{id}/"+string(action), asg.ActionHandler(action)).Methods("POST")
	}

	api.HandleFunc("/notification-settings", st.ListSettingsHandler).Methods("GET")
	api.HandleFunc("/notification-settings/{user_id}", st.GetSettingsHandler).Methods("GET")
	api.HandleFunc("/notification-settings/{user_id}", st.PutSettingsHandler).Methods("PUT")

	// Health check
	api.HandleFunc("/health", inv.HealthHandler).Methods("GET")

	// Preflight requests match no method-bound route; answer them here so the
	// CORS middleware runs.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
