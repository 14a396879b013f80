package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

// UserHandler handles HTTP requests for the staff approval workflow.
type UserHandler struct {
	service ports.ApprovalService
}

func NewUserHandler(service ports.ApprovalService) *UserHandler {
	return &UserHandler{service: service}
}

type userItem struct {
	*domain.StaffUser
	DisplayName string              `json:"display_name"`
	Actions     []domain.UserAction `json:"actions"`
}

type listUsersResponse struct {
	Users []userItem `json:"users"`
	Total int        `json:"total"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved denied suspended"`
}

type scheduleInterviewRequest struct {
	DateTime string `json:"date_time" validate:"required"`
	Location string `json:"location"  validate:"required"`
}

// List handles GET /api/users.
//
// @Summary      List staff accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q  query     string  false  "Case-insensitive substring match on display name"
// @Success      200  {object}  listUsersResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	list, err := h.service.ListUsers(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}

	items := make([]userItem, 0, len(list.Items))
	for _, u := range list.Items {
		items = append(items, userItem{
			StaffUser:   u,
			DisplayName: u.DisplayName(),
			Actions:     u.EnabledActions(),
		})
	}

	return c.JSON(http.StatusOK, listUsersResponse{Users: items, Total: list.Total})
}

// UpdateStatus handles PUT /api/users/:id/status. The target status selects
// the workflow operation; anything outside the three recognised values is
// rejected before the service is consulted.
//
// @Summary      Approve, deny, or suspend a staff account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "User id"
// @Param        body  body      updateStatusRequest  true  "Target status"
// @Success      200   {object}  userItem
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/users/{id}/status [put]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	id := c.Param("id")
	ctx := c.Request().Context()

	var (
		user *domain.StaffUser
		err  error
	)
	switch domain.UserStatus(req.Status) {
	case domain.StatusApproved:
		user, err = h.service.Approve(ctx, id)
	case domain.StatusDenied:
		user, err = h.service.Deny(ctx, id)
	case domain.StatusSuspended:
		user, err = h.service.Suspend(ctx, id)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userItem{
		StaffUser:   user,
		DisplayName: user.DisplayName(),
		Actions:     user.EnabledActions(),
	})
}

// ScheduleInterview handles POST /api/users/:id/interview.
//
// @Summary      Schedule an interview for a pending applicant
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "User id"
// @Param        body  body      scheduleInterviewRequest  true  "Interview details"
// @Success      200   {object}  userItem
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/users/{id}/interview [post]
func (h *UserHandler) ScheduleInterview(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req scheduleInterviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	at, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "date_time must be RFC 3339")
	}

	user, err := h.service.ScheduleInterview(c.Request().Context(), ports.ScheduleInterviewInput{
		UserID:   c.Param("id"),
		At:       at,
		Location: req.Location,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userItem{
		StaffUser:   user,
		DisplayName: user.DisplayName(),
		Actions:     user.EnabledActions(),
	})
}
