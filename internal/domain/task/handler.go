package task

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
	staff := api.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))

	staff.GET("/tasks", h.ListTasks)
	staff.GET("/tasks/stats", h.TaskStats)
	staff.GET("/tasks/:id", h.GetTask)
	staff.GET("/tasks/:id/history", h.TaskHistory)
	staff.GET("/tasks/:id/reminders", h.TaskReminders)

	staff.POST("/tasks", h.CreateTask)
	staff.PUT("/tasks/:id", h.UpdateTask)
	staff.DELETE("/tasks/:id", h.DeleteTask)

	staff.POST("/tasks/:id/accept", h.AcceptTask)
	staff.POST("/tasks/:id/reject", h.RejectTask)
	staff.POST("/tasks/:id/complete", h.CompleteTask)

	staff.GET("/reminders/due", h.DueReminders)
	staff.POST("/reminders/:id/sent", h.MarkReminderSent)
}

func (h *Handler) actor(c echo.Context) Actor {
	ctx := c.Request().Context()
	id, _ := uuid.Parse(auth.UserIDFromContext(ctx))
	return Actor{ID: id, Name: auth.UserNameFromContext(ctx)}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var t Task
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &t, h.actor(c)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTasks(c echo.Context) error {
	assignee := auth.UserIDFromContext(c.Request().Context())
	if qa := c.QueryParam("assignee_id"); qa != "" {
		assignee = qa
	}
	assigneeID, err := uuid.Parse(assignee)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignee_id")
	}

	var f Filter
	for _, s := range c.QueryParams()["status"] {
		f.Statuses = append(f.Statuses, Status(s))
	}
	if v := c.QueryParam("type"); v != "" {
		k := Kind(v)
		f.Type = &k
	}
	if v := c.QueryParam("priority"); v != "" {
		p := Priority(v)
		f.Priority = &p
	}
	f.Overdue = c.QueryParam("overdue") == "true"

	items, err := h.svc.ListUserTasks(c.Request().Context(), assigneeID, f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Update(c.Request().Context(), id, p, h.actor(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id, h.actor(c)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AcceptTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Accept(c.Request().Context(), id, h.actor(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) RejectTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Reject(c.Request().Context(), id, body.Reason, h.actor(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) CompleteTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Complete(c.Request().Context(), id, h.actor(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) TaskStats(c echo.Context) error {
	assignee := auth.UserIDFromContext(c.Request().Context())
	if qa := c.QueryParam("assignee_id"); qa != "" {
		assignee = qa
	}
	assigneeID, err := uuid.Parse(assignee)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignee_id")
	}
	stats, err := h.svc.UserStats(c.Request().Context(), assigneeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) TaskHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.TaskHistory(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) TaskReminders(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.TaskReminders(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DueReminders(c echo.Context) error {
	items, err := h.svc.DueReminders(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkReminderSent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkReminderSent(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reminder not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
