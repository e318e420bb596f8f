package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/scheduler"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/models"
)

// PriorityService is the part of the scheduler the HTTP layer depends on
type PriorityService interface {
	TriggerHourly()
	Status() scheduler.Status
	AnalyzeCase(ctx context.Context, caseID primitive.ObjectID) (*scheduler.AnalyzedCase, error)
	UrgentCases(ctx context.Context) ([]models.Case, error)
	PrioritizedCases(ctx context.Context, lawyerID primitive.ObjectID, limit int) ([]models.Case, error)
}

// CasePriority exported for testing purposes
type CasePriority struct {
	Service PriorityService
}

// CaseListResponse wraps a list of cases
type CaseListResponse struct {
	Count int           `json:"count"`
	Cases []models.Case `json:"cases"`
}

// RunSchedulerHandler starts an hourly analysis run in the background
func (cp CasePriority) RunSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	status := cp.Service.Status()
	cp.Service.TriggerHourly()

	message := "Case analysis run started"
	if status.State == scheduler.StateProcessing {
		message = "Case analysis already in progress, request ignored"
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": message,
		"state":   status.State,
	})
}

// SchedulerStatusHandler returns the scheduler state and run metrics
func (cp CasePriority) SchedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cp.Service.Status())
}

// AnalyzeCaseHandler scores one case immediately and returns the updated case
func (cp CasePriority) AnalyzeCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID, err := primitive.ObjectIDFromHex(mux.Vars(r)["case_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithAnalysisTimeout(r.Context())
	defer cancel()

	legalCase, err := cp.Service.AnalyzeCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, scheduler.ErrCaseNotFound) {
			config.ErrorStatus("case not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to analyze case", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, legalCase)
}

// UrgentCasesHandler lists the cases that need immediate attention
func (cp CasePriority) UrgentCasesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := cp.Service.UrgentCases(ctx)
	if err != nil {
		config.ErrorStatus("failed to get urgent cases", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, CaseListResponse{Count: len(cases), Cases: cases})
}

// PrioritizedCasesHandler lists a lawyer's open cases, highest priority first
func (cp CasePriority) PrioritizedCasesHandler(w http.ResponseWriter, r *http.Request) {
	lawyerID, err := primitive.ObjectIDFromHex(mux.Vars(r)["lawyer_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			config.ErrorStatus("limit must be a positive integer", http.StatusBadRequest, w, fmt.Errorf("invalid limit %q", raw))
			return
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := cp.Service.PrioritizedCases(ctx, lawyerID, limit)
	if err != nil {
		config.ErrorStatus("failed to get prioritized cases", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, CaseListResponse{Count: len(cases), Cases: cases})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
