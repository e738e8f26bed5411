package treatment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/frontdesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinicians := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	clinicians.POST("/treatment-plans", h.CreatePlan)
	clinicians.PUT("/treatment-plans/:id", h.UpdatePlan)
	clinicians.POST("/treatment-plans/:id/status", h.UpdatePlanStatus)

	// Patients read their own plans and check in against reminders.
	readers := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "patient"))
	readers.GET("/treatment-plans/:id", h.GetPlan)
	readers.GET("/treatment-plans", h.ListPlans)
	readers.GET("/treatment-plans/:id/reminders", h.PlanReminders)
	readers.GET("/treatment-plans/:id/progress", h.PlanProgress)
	readers.POST("/treatment-plans/:id/progress", h.RecordProgress)
	readers.POST("/treatment-reminders/:id/responses", h.RecordResponse)
}

func (h *Handler) CreatePlan(c echo.Context) error {
	var p TreatmentPlan
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p.CreatedBy == uuid.Nil {
		if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			p.CreatedBy = uid
		}
	}
	if err := h.svc.CreatePlan(c.Request().Context(), &p); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ve.Problems)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p TreatmentPlan
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdatePlan(c.Request().Context(), id, &p)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ve.Problems)
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) UpdatePlanStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status PlanStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdatePlanStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPlan(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPlans(c echo.Context) error {
	if v := c.QueryParam("record_id"); v != "" {
		recordID, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid record_id")
		}
		plans, err := h.svc.PlansByRecord(c.Request().Context(), recordID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, plans)
	}
	if v := c.QueryParam("patient_id"); v != "" {
		patientID, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		plans, err := h.svc.PlansByPatient(c.Request().Context(), patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, plans)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "record_id or patient_id is required")
}

func (h *Handler) PlanReminders(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	details, err := h.svc.PlanReminders(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) RecordResponse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Value    *string `json:"value"`
		Response *string `json:"response"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.svc.RecordResponse(c.Request().Context(), id, body.Value, body.Response)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reminder not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) RecordProgress(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var e ProgressEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.PlanID = id
	if err := h.svc.RecordProgress(c.Request().Context(), &e); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) PlanProgress(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.PlanProgress(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "treatment plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}
