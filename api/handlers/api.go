package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/scheduler"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/scoring"
)

// RequestTimeout bounds every API request. It is longer than
// api.AnalysisTimeout so an on-demand analysis reports its own error.
const RequestTimeout = api.AnalysisTimeout + 30*time.Second

// App stores the router, db connection and scheduler, so they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	client    databases.ClientHelper
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	return newRouter(m, CasePriority{Service: a.Scheduler})
}

func newRouter(m api.MiddlewareDB, cp CasePriority) *mux.Router {
	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware)
	r.Use(api.TimeoutMiddleware(RequestTimeout))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/scheduler/run", api.Middleware(http.HandlerFunc(cp.RunSchedulerHandler))).Methods("POST")
	apiCreate.Handle("/scheduler/status", api.Middleware(http.HandlerFunc(cp.SchedulerStatusHandler))).Methods("GET")

	apiCreate.Handle("/cases/urgent", api.Middleware(http.HandlerFunc(cp.UrgentCasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/analyze", api.Middleware(http.HandlerFunc(cp.AnalyzeCaseHandler))).Methods("POST")
	apiCreate.Handle("/lawyers/{lawyer_id}/cases/prioritized", api.Middleware(http.HandlerFunc(cp.PrioritizedCasesHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database, build the
// scheduler and create a router. The cron jobs are not started here.
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("legal-case-api has connected to the database")

	caller, err := scoring.NewAnthropicCaller(a.Config.AnthropicAPIKey, a.Config.Scheduler)
	if err != nil {
		return fmt.Errorf("failed to configure scoring client: %w", err)
	}

	a.Scheduler = scheduler.NewScheduler(
		databases.NewCaseDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		scoring.NewClient(caller, a.Config.Scheduler.DescriptionLimit),
		a.Config.Scheduler,
	)

	// initialize api router
	a.initializeRoutes()
	return nil
}

// StartScheduler starts the cron jobs unless they are disabled by configuration.
// Only one process per deployment may run them.
func (a *App) StartScheduler() {
	if !a.Config.SchedulerEnabled {
		zap.S().Info("Case priority scheduler disabled, cron jobs not registered")
		return
	}
	a.Scheduler.Start()
}

// Close stops the scheduler and disconnects from the database
func (a *App) Close() {
	if a.Scheduler != nil && a.Config.SchedulerEnabled {
		a.Scheduler.Stop()
	}
	if a.client != nil {
		if err := a.client.Disconnect(); err != nil {
			zap.S().With(err).Error("failed to disconnect from database")
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
