// Package template serves the static medication order templates the note
// editor offers as starting points. Values are display text, not coded
// identifiers; resolution happens at submission time.
package template

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// OrderTemplate pre-fills a medication order form.
type OrderTemplate struct {
	Name             string  `json:"name"`
	Drug             string  `json:"drug"`
	Strength         string  `json:"strength"`
	DoseValue        float64 `json:"dose_value"`
	DoseUnit         string  `json:"dose_unit"`
	Route            string  `json:"route"`
	Frequency        string  `json:"frequency"`
	DurationValue    int     `json:"duration_value,omitempty"`
	DurationUnit     string  `json:"duration_unit,omitempty"`
	DispenseQuantity float64 `json:"dispense_quantity,omitempty"`
	DispenseUnit     string  `json:"dispense_unit,omitempty"`
	Instructions     string  `json:"instructions,omitempty"`
}

var orderTemplates = []OrderTemplate{
	{
		Name:      "Aspirin low dose",
		Drug:      "Aspirin",
		Strength:  "81mg",
		DoseValue: 1, DoseUnit: "Tablet",
		Route: "Oral", Frequency: "Once daily",
		DispenseQuantity: 30, DispenseUnit: "Tablet",
	},
	{
		Name:      "Amoxicillin 7-day course",
		Drug:      "Amoxicillin",
		Strength:  "500mg",
		DoseValue: 1, DoseUnit: "Capsule",
		Route: "Oral", Frequency: "Thrice daily",
		DurationValue: 7, DurationUnit: "Days",
		DispenseQuantity: 21, DispenseUnit: "Capsule",
		Instructions:     "Complete the full course",
	},
	{
		Name:      "Ibuprofen as needed",
		Drug:      "Ibuprofen",
		Strength:  "400mg",
		DoseValue: 1, DoseUnit: "Tablet",
		Route: "Oral", Frequency: "Thrice daily",
		DispenseQuantity: 15, DispenseUnit: "Tablet",
		Instructions:     "Take with food",
	},
	{
		Name:      "Metformin starter",
		Drug:      "Metformin",
		Strength:  "500mg",
		DoseValue: 1, DoseUnit: "Tablet",
		Route: "Oral", Frequency: "Twice daily",
		DispenseQuantity: 60, DispenseUnit: "Tablet",
	},
}

// Templates returns the template catalog.
func Templates() []OrderTemplate {
	out := make([]OrderTemplate, len(orderTemplates))
	copy(out, orderTemplates)
	return out
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/templates", h.ListTemplates)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  Templates(),
		"total": len(orderTemplates),
	})
}
