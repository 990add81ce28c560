package note

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/notes", h.SubmitNote)
	api.GET("/visits/:id/note", h.GetVisitNote)
}

type submitResponse struct {
	VisitID string `json:"visit_id"`
}

func (h *Handler) SubmitNote(c echo.Context) error {
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if sub.PatientID != "" {
		if _, err := uuid.Parse(sub.PatientID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
	}
	if sub.VisitID != "" {
		if _, err := uuid.Parse(sub.VisitID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_id")
		}
	}

	isNew := sub.VisitID == ""
	visitID, err := h.svc.Submit(c.Request().Context(), &sub)
	if err != nil {
		return httpError(err)
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	return c.JSON(status, submitResponse{VisitID: visitID})
}

type visitNoteResponse struct {
	VisitID  string `json:"visit_id"`
	Markdown string `json:"markdown"`
}

func (h *Handler) GetVisitNote(c echo.Context) error {
	visitID := c.Param("id")
	if _, err := uuid.Parse(visitID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}

	markdown, found, err := h.svc.VisitNote(c.Request().Context(), visitID)
	if err != nil {
		return httpError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "no note recorded for visit "+visitID)
	}
	return c.JSON(http.StatusOK, visitNoteResponse{VisitID: visitID, Markdown: markdown})
}

// httpError maps the engine's error kinds onto HTTP statuses. The response
// carries the propagated message but never reveals which EMR writes succeeded
// before a mid-sequence failure.
func httpError(err error) error {
	var (
		nf *emr.NotFoundError
		re *emr.ResolutionError
		we *emr.WriteError
		ve *emr.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &re):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &we):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
