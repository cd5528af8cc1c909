package fhirclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const mimeFHIRJSON = "application/fhir+json"

// Client talks to a FHIR-compliant server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SearchPatientsByPostalCode runs GET {base}/Patient?address-postalcode={code}
// and returns the patient documents in the resulting searchset.
func (c *Client) SearchPatientsByPostalCode(ctx context.Context, postalCode string) ([]PatientResource, error) {
	params := url.Values{"address-postalcode": {postalCode}}
	bundle, err := c.search(ctx, "Patient", params)
	if err != nil {
		return nil, err
	}

	patients := make([]PatientResource, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var p PatientResource
		if err := json.Unmarshal(entry.Resource, &p); err != nil {
			return nil, fmt.Errorf("decode Patient entry: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// SearchObservationsByPatient runs GET {base}/Observation?subject=Patient/{id}
// and returns the observation documents in the resulting searchset.
func (c *Client) SearchObservationsByPatient(ctx context.Context, patientID string) ([]ObservationResource, error) {
	params := url.Values{"subject": {"Patient/" + patientID}}
	bundle, err := c.search(ctx, "Observation", params)
	if err != nil {
		return nil, err
	}

	observations := make([]ObservationResource, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var o ObservationResource
		if err := json.Unmarshal(entry.Resource, &o); err != nil {
			return nil, fmt.Errorf("decode Observation entry: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, nil
}

func (c *Client) search(ctx context.Context, resource string, params url.Values) (*Bundle, error) {
	searchURL := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s search request: %w", resource, err)
	}
	req.Header.Set("Accept", mimeFHIRJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.outcomeError(resource, resp)
	}

	var bundle Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode %s search bundle: %w", resource, err)
	}
	return &bundle, nil
}

// outcomeError turns a non-200 response into an error, preferring the
// diagnostics of an OperationOutcome body when one is present.
func (c *Client) outcomeError(resource string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("search %s: upstream status %d", resource, resp.StatusCode)
	}

	var outcome OperationOutcome
	if err := json.Unmarshal(body, &outcome); err == nil && len(outcome.Issue) > 0 {
		return fmt.Errorf("search %s: upstream status %d: %s", resource, resp.StatusCode, outcome.Issue[0].Diagnostics)
	}
	return fmt.Errorf("search %s: upstream status %d", resource, resp.StatusCode)
}
