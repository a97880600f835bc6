package controllers

import (
	"net/http"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/steps"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type clientPendingRequest struct {
	Pending bool    `json:"pending"`
	Note    *string `json:"note" validate:"omitempty,max=2000"`
}

type pendingNoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

type customDescriptionRequest struct {
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type stepImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// SetStepStatus moves a step to any of the three statuses and returns the
// previous one so the caller can offer undo.
func SetStepStatus(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		change, err := svc.SetStatus(r.Context(), subject, stepID, req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, change)
	}
}

// SetClientPending toggles the blocked-on-client flag together with its note,
// in one call.
func SetClientPending(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req clientPendingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetClientPending(r.Context(), subject, stepID, req.Pending, req.Note); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"pending": req.Pending})
	}
}

// UpsertClientPendingNote replaces the pending note without touching status or
// the pending flag.
func UpsertClientPendingNote(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req pendingNoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpsertClientPendingNote(r.Context(), subject, stepID, req.Note); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// ClearClientPendingNote clears the note text. The pending flag stays as-is;
// lowering it is a separate, explicit call.
func ClearClientPendingNote(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ClearClientPendingNote(r.Context(), subject, stepID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// UpdateCustomDescription sets or clears the subject-specific step note.
func UpdateCustomDescription(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req customDescriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateCustomDescription(r.Context(), subject, stepID, req.Description); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// AttachStepImage records the URL of a subject-uploaded image. Upload itself
// happens elsewhere; only the resulting URL lands here.
func AttachStepImage(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req stepImageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AttachCustomImage(r.Context(), subject, stepID, req.ImageURL); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"attached": true})
	}
}

// RemoveStepImage clears the custom image URL.
func RemoveStepImage(svc steps.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepID, err := validators.UUIDParam(r, "stepId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveCustomImage(r.Context(), subject, stepID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}
