package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

// AppointmentHandler handles HTTP requests for visit scheduling.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type createAppointmentRequest struct {
	FormID string `json:"form_id" validate:"required"`
	Date   string `json:"date"    validate:"required,datetime=2006-01-02"`
	Time   string `json:"time"    validate:"required"`
}

type listAppointmentsResponse struct {
	Appointments []*domain.Appointment `json:"appointments"`
}

// List handles GET /api/appointments.
//
// @Summary      List appointments
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listAppointmentsResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/appointments [get]
func (h *AppointmentHandler) List(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	items, err := h.service.ListAppointments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listAppointmentsResponse{Appointments: items})
}

// ListToday handles GET /api/appointments/today.
//
// @Summary      List appointments for the current day
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listAppointmentsResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/appointments/today [get]
func (h *AppointmentHandler) ListToday(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	items, err := h.service.ListToday(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listAppointmentsResponse{Appointments: items})
}

// Create handles POST /api/appointments.
//
// @Summary      Schedule a visit from a diagnosis form
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAppointmentRequest  true  "Appointment details"
// @Success      201   {object}  domain.Appointment
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Create(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
	}

	appt, err := h.service.CreateAppointment(c.Request().Context(), ports.CreateAppointmentInput{
		FormID: req.FormID,
		Date:   date,
		Time:   req.Time,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, appt)
}
