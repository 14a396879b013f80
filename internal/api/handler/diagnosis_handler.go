package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crediblehealth/clinic-console/internal/core/domain"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

const dateLayout = "2006-01-02"

// DiagnosisHandler handles HTTP requests for diagnosis form review.
type DiagnosisHandler struct {
	service ports.ReviewService
}

func NewDiagnosisHandler(service ports.ReviewService) *DiagnosisHandler {
	return &DiagnosisHandler{service: service}
}

type diagnosisItem struct {
	*domain.Diagnosis
	DisplayName string `json:"display_name"`
	CanEdit     bool   `json:"can_edit"`
}

type listDiagnosesResponse struct {
	Forms []diagnosisItem `json:"forms"`
	Total int             `json:"total"`
}

type submitAssessmentRequest struct {
	Assessment string `json:"assessment" validate:"required"`
	Status     string `json:"status"     validate:"required,oneof=completed review"`
	Signature  string `json:"signature"`
}

// List handles GET /api/forms. The q parameter matches the client name or
// the status, case-insensitively; start and end bound the record date and
// are each optional.
//
// @Summary      List diagnosis forms
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  false  "Case-insensitive substring match on client name or status"
// @Param        start  query     string  false  "Inclusive lower bound on record date (YYYY-MM-DD)"
// @Param        end    query     string  false  "Inclusive upper bound on record date (YYYY-MM-DD)"
// @Success      200    {object}  listDiagnosesResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      422    {object}  map[string]string
// @Router       /api/forms [get]
func (h *DiagnosisHandler) List(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	from, err := parseDateParam(c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "start must be YYYY-MM-DD")
	}
	to, err := parseDateParam(c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "end must be YYYY-MM-DD")
	}
	if !to.IsZero() {
		// Push the upper bound to the end of the day so the range stays
		// inclusive of records dated within it.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	list, err := h.service.ListDiagnoses(c.Request().Context(), ports.ListDiagnosesInput{
		Query: c.QueryParam("q"),
		From:  from,
		To:    to,
	})
	if err != nil {
		return err
	}

	items := make([]diagnosisItem, 0, len(list.Items))
	for _, d := range list.Items {
		items = append(items, diagnosisItem{
			Diagnosis:   d,
			DisplayName: d.DisplayName(),
			CanEdit:     d.Status.CanEdit(),
		})
	}

	return c.JSON(http.StatusOK, listDiagnosesResponse{Forms: items, Total: list.Total})
}

// Get handles GET /api/forms/:id.
//
// @Summary      Get a diagnosis form
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Form id"
// @Success      200  {object}  diagnosisItem
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/forms/{id} [get]
func (h *DiagnosisHandler) Get(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	d, err := h.service.GetDiagnosis(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, diagnosisItem{
		Diagnosis:   d,
		DisplayName: d.DisplayName(),
		CanEdit:     d.Status.CanEdit(),
	})
}

// SubmitAssessment handles PUT /api/forms/:id/assessment.
//
// @Summary      Submit a doctor's assessment of a diagnosis form
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Form id"
// @Param        body  body      submitAssessmentRequest  true  "Assessment details"
// @Success      200   {object}  diagnosisItem
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/forms/{id}/assessment [put]
func (h *DiagnosisHandler) SubmitAssessment(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req submitAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	d, err := h.service.SubmitAssessment(c.Request().Context(), ports.SubmitAssessmentInput{
		DiagnosisID: c.Param("id"),
		Assessment:  req.Assessment,
		Status:      domain.DiagnosisStatus(req.Status),
		Signature:   req.Signature,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, diagnosisItem{
		Diagnosis:   d,
		DisplayName: d.DisplayName(),
		CanEdit:     d.Status.CanEdit(),
	})
}

func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
