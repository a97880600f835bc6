package controllers

import (
	"context"
	"net/http"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/pkg/config"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

const envHeader = "X-OnboardTrack-Env"

// Pinger is any dependency that can answer a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
