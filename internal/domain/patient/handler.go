package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinbridge/clinbridge/internal/platform/emr"
	"github.com/clinbridge/clinbridge/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id/visits", h.ListVisits)
	api.GET("/patients/:id/summary", h.GetSummary)
}

func (h *Handler) ListPatients(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	patients, err := h.svc.List(c.Request().Context(), query)
	if err != nil {
		return httpError(err)
	}

	p := pagination.FromContext(c)
	page := pagination.Page(patients, p)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(patients), p))
}

func (h *Handler) ListVisits(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	visits, err := h.svc.Visits(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}

	p := pagination.FromContext(c)
	page := pagination.Page(visits, p)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(visits), p))
}

type summaryResponse struct {
	PatientID string `json:"patient_id"`
	Markdown  string `json:"markdown"`
}

func (h *Handler) GetSummary(c echo.Context) error {
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	md, err := h.svc.Summary(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaryResponse{PatientID: patientID, Markdown: md})
}

func patientParam(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func httpError(err error) error {
	var (
		nf *emr.NotFoundError
		we *emr.WriteError
	)
	switch {
	case errors.As(err, &nf):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &we):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
