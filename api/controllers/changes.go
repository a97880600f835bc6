package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/watch"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

type pollChangesRequest struct {
	SinceWatermarks map[uuid.UUID]time.Time `json:"since_watermarks"`
}

// PollChanges diffs the current comment set against caller-held watermarks
// and returns the new and updated entries plus the next watermark map.
func PollChanges(svc watch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pollChangesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		since := req.SinceWatermarks
		if since == nil {
			since = map[uuid.UUID]time.Time{}
		}
		result, err := svc.PollChanges(r.Context(), since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DashboardStats returns the last collected counter snapshot. Before the
// first refresh completes it reports 503 so callers can show a loading state.
func DashboardStats(collector *watch.StatsCollector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := collector.Snapshot()
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "stats not collected yet"))
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
