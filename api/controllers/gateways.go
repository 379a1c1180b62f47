package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/api/responses"
	"github.com/rafaelduartes/salescope-backend/api/validators"
	syncsvc "github.com/rafaelduartes/salescope-backend/internal/sync"
	"github.com/rafaelduartes/salescope-backend/pkg/db/models"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
)

const (
	rangeDateLayout = "2006-01-02"

	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type gatewaySyncer interface {
	SyncGateway(ctx context.Context, gatewayConfigID uuid.UUID, opts syncsvc.SyncOptions) (*syncsvc.SyncResult, error)
}

type syncRunLister interface {
	ListRuns(ctx context.Context, gatewayConfigID uuid.UUID, limit int) ([]models.SyncRun, error)
}

type triggerSyncRequest struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (req triggerSyncRequest) toOptions() (syncsvc.SyncOptions, error) {
	opts := syncsvc.SyncOptions{}
	if req.From != "" {
		from, err := time.Parse(rangeDateLayout, req.From)
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from date")
		}
		opts.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(rangeDateLayout, req.To)
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to date")
		}
		// The upper bound covers the whole named day.
		end := to.Add(24*time.Hour - time.Second)
		opts.To = &end
	}
	// A lone bound would be silently ignored downstream, so demand the pair.
	if (opts.From == nil) != (opts.To == nil) {
		return opts, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
	}
	if opts.From != nil && opts.To != nil && opts.To.Before(*opts.From) {
		return opts, pkgerrors.New(pkgerrors.CodeValidation, "to date must not precede from date")
	}
	return opts, nil
}

// TriggerGatewaySync runs a full synchronization for one gateway config. The
// body is optional; when present it narrows the sales window to a date range.
func TriggerGatewaySync(syncer gatewaySyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if syncer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		gatewayID, err := parseGatewayID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := syncsvc.SyncOptions{}
		if r.Body != nil && r.ContentLength != 0 {
			var payload triggerSyncRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			opts, err = payload.toOptions()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := syncer.SyncGateway(r.Context(), gatewayID, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type syncRunResponse struct {
	ID              uuid.UUID           `json:"id"`
	GatewayConfigID uuid.UUID           `json:"gateway_config_id"`
	Status          enums.SyncRunStatus `json:"status"`
	RecordsSynced   int                 `json:"records_synced"`
	ErrorSummary    *string             `json:"error_summary,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      *time.Time          `json:"finished_at,omitempty"`
}

// ListGatewayRuns returns the most recent sync runs for one gateway config.
func ListGatewayRuns(runs syncRunLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs repository unavailable"))
			return
		}

		gatewayID, err := parseGatewayID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultRunsLimit, 1, maxRunsLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := runs.ListRuns(r.Context(), gatewayID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sync runs"))
			return
		}

		out := make([]syncRunResponse, 0, len(list))
		for _, run := range list {
			out = append(out, syncRunResponse{
				ID:              run.ID,
				GatewayConfigID: run.GatewayConfigID,
				Status:          run.Status,
				RecordsSynced:   run.RecordsSynced,
				ErrorSummary:    run.ErrorSummary,
				StartedAt:       run.StartedAt,
				FinishedAt:      run.FinishedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

func parseGatewayID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "gatewayId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway id is required")
	}
	gatewayID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway id")
	}
	return gatewayID, nil
}
