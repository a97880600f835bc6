package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/assignments"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

type assignPlanRequest struct {
	PlanID uuid.UUID `json:"plan_id" validate:"required"`
}

func subjectFromPath(r *http.Request) (assignments.Subject, error) {
	subjectType, err := validators.SubjectTypeParam(r)
	if err != nil {
		return assignments.Subject{}, err
	}
	subjectID, err := validators.UUIDParam(r, "subjectId")
	if err != nil {
		return assignments.Subject{}, err
	}
	return assignments.Subject{ID: subjectID, Type: subjectType}, nil
}

// AssignPlan binds a plan to a subject. Assigning an already-assigned plan is
// a success with created=false, not an error.
func AssignPlan(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req assignPlanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Assign(r.Context(), subject, req.PlanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// ListAssignments returns a subject's assignments with steps and progress.
func ListAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListForSubject(r.Context(), subject)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// RemoveAssignment deletes an assignment and all of its steps.
func RemoveAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := subjectFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), subject, planID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}
