package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/erikkvale/eir/internal/platform/fhirclient"
)

// MapPatient translates an upstream Patient document into a local entity.
// fallbackPostalCode fills in the postal code when the document carries no
// address; it is the code the ingest was keyed on. Pure function.
func MapPatient(doc fhirclient.PatientResource, fallbackPostalCode string) (*Patient, error) {
	if doc.ID == "" {
		return nil, &MappingError{Resource: "Patient", Field: "id", Reason: "missing"}
	}
	if doc.ResourceType != "" && doc.ResourceType != "Patient" {
		return nil, &MappingError{Resource: "Patient", Field: "resourceType", Reason: fmt.Sprintf("unexpected %q", doc.ResourceType)}
	}

	p := &Patient{FHIRID: doc.ID}

	if len(doc.Name) > 0 && len(doc.Name[0].Given) > 0 {
		p.FirstName = strings.TrimSpace(doc.Name[0].Given[0])
	}
	if doc.Gender != "" {
		gender := doc.Gender
		p.Gender = &gender
	}
	if doc.BirthDate != "" {
		// Kept as the source's date string; FHIR permits partial dates
		// such as "1990" or "1990-01".
		birthDate := doc.BirthDate
		p.BirthDate = &birthDate
	}

	postalCode := fallbackPostalCode
	if len(doc.Address) > 0 && doc.Address[0].PostalCode != "" {
		postalCode = doc.Address[0].PostalCode
	}
	if postalCode != "" {
		p.PostalCode = &postalCode
	}

	return p, nil
}

// MapObservation translates an upstream Observation document into a local
// entity linked to patientFHIRID. Pure function.
func MapObservation(doc fhirclient.ObservationResource, patientFHIRID string) (*Observation, error) {
	if doc.ID == "" {
		return nil, &MappingError{Resource: "Observation", Field: "id", Reason: "missing"}
	}
	if patientFHIRID == "" {
		return nil, &MappingError{Resource: "Observation", Field: "subject", Reason: "missing patient id"}
	}

	o := &Observation{
		FHIRID:        doc.ID,
		PatientFHIRID: patientFHIRID,
		ResourceType:  doc.ResourceType,
		Status:        doc.Status,
	}
	if o.ResourceType == "" {
		o.ResourceType = "unknown"
	}
	if o.Status == "" {
		o.Status = "unknown"
	}

	if category := firstCategory(doc.Category); category != "" {
		o.Category = &category
	}
	if value := valueSummary(doc); value != "" {
		o.Value = &value
	}
	if ts := parseFHIRDateTime(doc.EffectiveDateTime); ts != nil {
		o.EffectiveAt = ts
	}

	return o, nil
}

func firstCategory(categories []fhirclient.CodeableConcept) string {
	if len(categories) == 0 {
		return ""
	}
	c := categories[0]
	if len(c.Coding) > 0 && c.Coding[0].Code != "" {
		return c.Coding[0].Code
	}
	return c.Text
}

// valueSummary flattens the observation value into a display string.
func valueSummary(doc fhirclient.ObservationResource) string {
	if doc.ValueQuantity != nil && doc.ValueQuantity.Value != nil {
		if doc.ValueQuantity.Unit != "" {
			return fmt.Sprintf("%g %s", *doc.ValueQuantity.Value, doc.ValueQuantity.Unit)
		}
		return fmt.Sprintf("%g", *doc.ValueQuantity.Value)
	}
	return doc.ValueString
}

// parseFHIRDateTime accepts the instant and date forms of a FHIR dateTime.
// Partial or unparseable values yield nil rather than an error; the
// timestamp is informational, not required.
func parseFHIRDateTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}
