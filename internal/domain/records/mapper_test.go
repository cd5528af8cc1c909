package records

import (
	"errors"
	"testing"

	"github.com/erikkvale/eir/internal/platform/fhirclient"
)

func TestMapPatient(t *testing.T) {
	doc := fhirclient.PatientResource{
		ResourceType: "Patient",
		ID:           "597179",
		Name:         []fhirclient.HumanName{{Family: "Kvale", Given: []string{" Erik ", "J"}}},
		Gender:       "male",
		BirthDate:    "1985-03-14",
		Address:      []fhirclient.Address{{PostalCode: "02718", City: "East Taunton"}},
	}

	p, err := MapPatient(doc, "99999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FHIRID != "597179" {
		t.Errorf("expected fhir id 597179, got %s", p.FHIRID)
	}
	if p.FirstName != "Erik" {
		t.Errorf("expected first name Erik, got %q", p.FirstName)
	}
	if p.Gender == nil || *p.Gender != "male" {
		t.Errorf("expected gender male, got %v", p.Gender)
	}
	if p.BirthDate == nil || *p.BirthDate != "1985-03-14" {
		t.Errorf("expected birth date 1985-03-14, got %v", p.BirthDate)
	}
	if p.PostalCode == nil || *p.PostalCode != "02718" {
		t.Errorf("expected address postal code to win over fallback, got %v", p.PostalCode)
	}
}

func TestMapPatient_MissingID(t *testing.T) {
	_, err := MapPatient(fhirclient.PatientResource{ResourceType: "Patient"}, "02718")
	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
	if mapErr.Field != "id" {
		t.Errorf("expected field id, got %s", mapErr.Field)
	}
}

func TestMapPatient_WrongResourceType(t *testing.T) {
	_, err := MapPatient(fhirclient.PatientResource{ResourceType: "Practitioner", ID: "1"}, "")
	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
}

func TestMapPatient_PostalCodeFallback(t *testing.T) {
	doc := fhirclient.PatientResource{ResourceType: "Patient", ID: "42"}

	p, err := MapPatient(doc, "02718")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PostalCode == nil || *p.PostalCode != "02718" {
		t.Errorf("expected fallback postal code 02718, got %v", p.PostalCode)
	}

	p, err = MapPatient(doc, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PostalCode != nil {
		t.Errorf("expected nil postal code without address or fallback, got %v", *p.PostalCode)
	}
}

func TestMapPatient_PartialBirthDate(t *testing.T) {
	doc := fhirclient.PatientResource{ResourceType: "Patient", ID: "7", BirthDate: "1990"}

	p, err := MapPatient(doc, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.BirthDate == nil || *p.BirthDate != "1990" {
		t.Errorf("expected partial birth date kept verbatim, got %v", p.BirthDate)
	}
}

func TestMapObservation(t *testing.T) {
	value := 98.6
	doc := fhirclient.ObservationResource{
		ResourceType:      "Observation",
		ID:                "obs-1",
		Status:            "final",
		Category:          []fhirclient.CodeableConcept{{Coding: []fhirclient.Coding{{Code: "vital-signs"}}}},
		EffectiveDateTime: "2024-05-01T10:30:00Z",
		ValueQuantity:     &fhirclient.Quantity{Value: &value, Unit: "degF"},
	}

	o, err := MapObservation(doc, "597179")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.FHIRID != "obs-1" {
		t.Errorf("expected fhir id obs-1, got %s", o.FHIRID)
	}
	if o.PatientFHIRID != "597179" {
		t.Errorf("expected patient link 597179, got %s", o.PatientFHIRID)
	}
	if o.Status != "final" {
		t.Errorf("expected status final, got %s", o.Status)
	}
	if o.Category == nil || *o.Category != "vital-signs" {
		t.Errorf("expected category vital-signs, got %v", o.Category)
	}
	if o.Value == nil || *o.Value != "98.6 degF" {
		t.Errorf("expected value '98.6 degF', got %v", o.Value)
	}
	if o.EffectiveAt == nil {
		t.Error("expected effective timestamp to be parsed")
	}
}

func TestMapObservation_MissingID(t *testing.T) {
	_, err := MapObservation(fhirclient.ObservationResource{ResourceType: "Observation"}, "597179")
	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
}

func TestMapObservation_MissingPatient(t *testing.T) {
	_, err := MapObservation(fhirclient.ObservationResource{ResourceType: "Observation", ID: "obs-1"}, "")
	var mapErr *MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
	if mapErr.Field != "subject" {
		t.Errorf("expected field subject, got %s", mapErr.Field)
	}
}

func TestMapObservation_Defaults(t *testing.T) {
	o, err := MapObservation(fhirclient.ObservationResource{ID: "obs-2"}, "597179")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ResourceType != "unknown" {
		t.Errorf("expected resource type unknown, got %s", o.ResourceType)
	}
	if o.Status != "unknown" {
		t.Errorf("expected status unknown, got %s", o.Status)
	}
	if o.Category != nil || o.Value != nil || o.EffectiveAt != nil {
		t.Error("expected optional fields to stay nil")
	}
}

func TestMapObservation_ValueString(t *testing.T) {
	doc := fhirclient.ObservationResource{
		ResourceType: "Observation",
		ID:           "obs-3",
		Status:       "final",
		ValueString:  "negative",
	}

	o, err := MapObservation(doc, "597179")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Value == nil || *o.Value != "negative" {
		t.Errorf("expected value 'negative', got %v", o.Value)
	}
}

func TestParseFHIRDateTime(t *testing.T) {
	if ts := parseFHIRDateTime("2024-05-01T10:30:00Z"); ts == nil {
		t.Error("expected RFC3339 value to parse")
	}
	if ts := parseFHIRDateTime("2024-05-01"); ts == nil {
		t.Error("expected date-only value to parse")
	}
	if ts := parseFHIRDateTime("2024-05"); ts != nil {
		t.Errorf("expected partial value to yield nil, got %v", ts)
	}
	if ts := parseFHIRDateTime(""); ts != nil {
		t.Errorf("expected empty value to yield nil, got %v", ts)
	}
}
