package records

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/erikkvale/eir/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/imports/patients/:postal_code", h.ImportPatients)
	api.POST("/imports/observations/:patient_id", h.ImportFirstObservation)
	api.GET("/patients/search", h.SearchPatients)
	api.GET("/observations/search", h.SearchObservations)
}

func (h *Handler) ImportPatients(c echo.Context) error {
	postalCode := c.Param("postal_code")

	result, err := h.svc.IngestPatientsByPostalCode(c.Request().Context(), postalCode)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":           fmt.Sprintf("Patients from postal code %s processed successfully.", postalCode),
		"total_saved":       len(result.SavedIDs),
		"saved_patient_ids": result.SavedIDs,
	})
}

func (h *Handler) ImportFirstObservation(c echo.Context) error {
	patientID := c.Param("patient_id")

	result, err := h.svc.IngestFirstObservation(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}

	if !result.Saved {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message": fmt.Sprintf("No observations found for patient %s.", patientID),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":              fmt.Sprintf("First observation for patient %s processed successfully.", patientID),
		"saved_observation_id": result.Observation.FHIRID,
	})
}

func (h *Handler) SearchPatients(c echo.Context) error {
	filter := PatientFilter{
		FHIRID:     c.QueryParam("patient_id"),
		FirstName:  c.QueryParam("first_name"),
		PostalCode: c.QueryParam("postal_code"),
	}
	pg := pagination.FromContext(c)

	patients, total, err := h.svc.SearchPatients(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrEmptyFilter) {
			return echo.NewHTTPError(http.StatusBadRequest,
				"Either 'patient_id', 'first_name' or 'postal_code' must be provided.")
		}
		return httpError(err)
	}

	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) SearchObservations(c echo.Context) error {
	patientID := c.QueryParam("patient_id")
	pg := pagination.FromContext(c)

	observations, total, err := h.svc.SearchObservations(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}

	if observations == nil {
		observations = []*Observation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(observations, total, pg.Limit, pg.Offset))
}

// httpError maps domain errors onto client-facing responses.
func httpError(err error) *echo.HTTPError {
	var mapErr *MappingError
	switch {
	case errors.Is(err, ErrUnknownPatient):
		return echo.NewHTTPError(http.StatusConflict,
			"patient has not been ingested; import the patient first")
	case errors.As(err, &mapErr):
		return echo.NewHTTPError(http.StatusBadGateway,
			fmt.Sprintf("upstream document invalid: %s", mapErr.Error()))
	case errors.Is(err, ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "external record source unavailable")
	}

	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
