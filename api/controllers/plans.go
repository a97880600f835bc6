package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/catalog"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

type createPlanRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Tags        []string        `json:"tags" validate:"max=20"`
}

type updatePlanRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
	Tags        *[]string        `json:"tags"`
}

type planStepRequest struct {
	StepNumber        int     `json:"step_number" validate:"required,min=1"`
	Description       string  `json:"description" validate:"required,max=2000"`
	ReferenceImageURL *string `json:"reference_image_url" validate:"omitempty,url"`
}

type updatePlanStepRequest struct {
	Description       string  `json:"description" validate:"required,max=2000"`
	ReferenceImageURL *string `json:"reference_image_url" validate:"omitempty,url"`
}

// CreatePlan registers a new plan template.
func CreatePlan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPlanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.CreatePlan(r.Context(), catalog.CreatePlanInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Tags:        req.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, plan)
	}
}

// ListPlans returns all plan templates. Pass activeOnly=true to hide retired
// plans.
func ListPlans(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("activeOnly")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid activeOnly value"))
				return
			}
			activeOnly = value
		}
		plans, err := svc.ListPlans(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans)
	}
}

// GetPlan returns one plan with its template steps.
func GetPlan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.GetPlan(r.Context(), planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// UpdatePlan patches mutable plan fields.
func UpdatePlan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePlanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.UpdatePlan(r.Context(), planID, catalog.UpdatePlanInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Active:      req.Active,
			Tags:        req.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// DeletePlan removes a plan template.
func DeletePlan(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeletePlan(r.Context(), planID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AddPlanStep appends a template step to a plan. Step numbers are supplied by
// the caller and stay stable; deleting a step never renumbers the rest.
func AddPlanStep(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req planStepRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		step, err := svc.AddStep(r.Context(), planID, catalog.StepInput{
			StepNumber:        req.StepNumber,
			Description:       req.Description,
			ReferenceImageURL: req.ReferenceImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, step)
	}
}

// UpdatePlanStep edits a template step in place.
func UpdatePlanStep(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepNumber, err := validators.IntParam(r, "stepNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updatePlanStepRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		step, err := svc.UpdateStep(r.Context(), planID, stepNumber, req.Description, req.ReferenceImageURL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, step)
	}
}

// DeletePlanStep drops a template step without touching steps already
// assigned from it.
func DeletePlanStep(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.UUIDParam(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stepNumber, err := validators.IntParam(r, "stepNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteStep(r.Context(), planID, stepNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
