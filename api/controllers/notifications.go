package controllers

import (
	"net/http"

	"github.com/rvillegas/onboardtrack-backend/api/middleware"
	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/watch"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

func scopeFromRequest(r *http.Request) (string, error) {
	scope := middleware.ScopeFromContext(r.Context())
	if scope == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing notification scope")
	}
	return scope, nil
}

// ListNotifications returns the bounded feed and the unread badge for the
// authenticated admin.
func ListNotifications(svc watch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Notifications(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// MarkNotificationRead flags one entry as read. Future changes to the same
// comment still produce fresh notifications.
func MarkNotificationRead(svc watch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.UUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), scope, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// MarkAllNotificationsRead clears the unread badge.
func MarkAllNotificationsRead(svc watch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkAllRead(r.Context(), scope); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}
