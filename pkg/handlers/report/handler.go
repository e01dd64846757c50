package report

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/de-tools/cluster-report/pkg/models/api"
	"github.com/de-tools/cluster-report/pkg/services/reportjob"
	"github.com/rs/zerolog"
)

// JobRunner is the slice of the report runner the handler depends on.
type JobRunner interface {
	Run(ctx context.Context) (*reportjob.Result, error)
}

type Handler struct {
	runner JobRunner
}

func NewHandler(runner JobRunner) *Handler {
	return &Handler{runner: runner}
}

// RunReport executes one reporting pass and returns the invocation envelope.
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	result, err := h.runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("report run failed")
		writeResult(w, logger, http.StatusInternalServerError, api.RunResult{
			Status:  http.StatusInternalServerError,
			Message: "report run failed",
		})
		return
	}

	writeResult(w, logger, http.StatusOK, toAPI(result))
}

func toAPI(result *reportjob.Result) api.RunResult {
	out := api.RunResult{Status: http.StatusOK}
	switch result.Skipped {
	case reportjob.SkipEmptyWindow:
		out.Message = "report window is empty"
	case reportjob.SkipNoOwners:
		out.Message = "no owner-tagged instances found"
	default:
		for _, oc := range result.OwnersCost {
			out.OwnersCost = append(out.OwnersCost, api.OwnerCostEntry{
				Owner: oc.Owner,
				Total: oc.Total,
			})
		}
	}
	return out
}

func writeResult(w http.ResponseWriter, logger *zerolog.Logger, status int, body api.RunResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("failed to encode run result")
	}
}
