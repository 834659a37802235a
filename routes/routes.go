package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/handlers"
	"github.com/Ariffin97/portal-mpa-sub001/middleware"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// OPTIONS is listed so preflight requests match a route and reach CORS.
var (
	MethodsGetOnly    = []string{http.MethodGet, http.MethodOptions}
	MethodsPostOnly   = []string{http.MethodPost, http.MethodOptions}
	MethodsPutOnly    = []string{http.MethodPut, http.MethodOptions}
	MethodsDeleteOnly = []string{http.MethodDelete, http.MethodOptions}
)

const (
	PathAPI           = "/api"
	PathHealth        = "/health"
	PathMetrics       = "/metrics"
	PathWebSocket     = "/ws"
	PathApplications  = "/applications"
	PathApplicationID = "/applications/{applicationId}"
)

type Options struct {
	Handler       *handlers.Handler
	Auth          *middleware.Auth
	Limiter       *middleware.RateLimiter
	WebSocket     http.Handler
	Metrics       http.Handler
	AllowedOrigin string
	Log           *zap.Logger
}

func NewRouter(o Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(o.Log))
	r.Use(middleware.Logging(o.Log))
	r.Use(middleware.CORS(o.AllowedOrigin))

	h := o.Handler
	limited := func(fn http.HandlerFunc) http.Handler {
		if o.Limiter == nil {
			return fn
		}
		return o.Limiter.Handler(fn)
	}

	// Public
	r.HandleFunc(PathHealth, h.HealthCheck).Methods(MethodsGetOnly...)
	if o.Metrics != nil {
		r.Handle(PathMetrics, o.Metrics).Methods(MethodsGetOnly...)
	}
	if o.WebSocket != nil {
		r.Handle(PathWebSocket, o.WebSocket).Methods(http.MethodGet)
	}
	r.Handle("/api/auth/login", limited(h.Login)).Methods(MethodsPostOnly...)
	r.Handle("/api/organizations", limited(h.CreateOrganization)).Methods(MethodsPostOnly...)

	// Authenticated
	api := r.PathPrefix(PathAPI).Subrouter()
	api.Use(o.Auth.Authenticate)

	reviewers := middleware.RequireRole(models.RoleAdmin, models.RoleState)
	organisers := middleware.RequireRole(models.RoleOrganiser)
	admins := middleware.RequireRole(models.RoleAdmin)

	api.HandleFunc("/auth/me", h.Me).Methods(MethodsGetOnly...)
	api.Handle("/users", admins(http.HandlerFunc(h.CreateReviewer))).Methods(MethodsPostOnly...)

	api.Handle(PathApplications, organisers(limited(h.SubmitApplication))).Methods(MethodsPostOnly...)
	api.HandleFunc(PathApplications, h.ListApplications).Methods(MethodsGetOnly...)
	api.HandleFunc(PathApplications+"/stats", h.ApplicationStats).Methods(MethodsGetOnly...)
	api.HandleFunc(PathApplicationID, h.GetApplication).Methods(MethodsGetOnly...)
	api.Handle(PathApplicationID, admins(http.HandlerFunc(h.DeleteApplication))).Methods(MethodsDeleteOnly...)
	api.Handle(PathApplicationID+"/status", reviewers(http.HandlerFunc(h.ChangeStatus))).Methods(MethodsPutOnly...)
	api.Handle(PathApplicationID+"/resubmit", organisers(http.HandlerFunc(h.ResubmitApplication))).Methods(MethodsPostOnly...)
	api.HandleFunc(PathApplicationID+"/history", h.ApplicationHistory).Methods(MethodsGetOnly...)

	return r
}
