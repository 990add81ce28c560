// Package emr is the HTTP client for the upstream EMR. The EMR exposes two
// surfaces: a FHIR R4 API for patients, encounters, observations, conditions
// and medication requests, and a legacy REST API for drug orders, patient
// diagnoses, and concept/drug vocabulary search. Every call is a single
// network round trip with its own failure mode; the client performs no
// retries and holds no state beyond the live HTTP session.
package emr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	fhirPath = "/ws/fhir2/R4"
	restPath = "/ws/rest/v1"
)

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(baseURL, username, password string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

func (c *Client) fhirURL(path string, query url.Values) string {
	u := c.baseURL + fhirPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) restURL(path string, query url.Values) string {
	u := c.baseURL + restPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one authenticated round trip. A nil out discards the response
// body; a non-2xx status is translated into a typed error.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out interface{}, resource string) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", resource, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: resource}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := decodeErrorMessage(resp.Body)
		c.log.Error().
			Str("resource", resource).
			Str("method", method).
			Int("status", resp.StatusCode).
			Str("message", msg).
			Msg("emr call failed")
		return &WriteError{Resource: resource, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

// decodeErrorMessage extracts a human-readable message from either error
// payload shape the EMR produces: the legacy {"error":{"message":...}} object
// or a FHIR OperationOutcome.
func decodeErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var legacy struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &legacy) == nil && legacy.Error.Message != "" {
		return legacy.Error.Message
	}

	var outcome struct {
		Issue []struct {
			Diagnostics string `json:"diagnostics"`
		} `json:"issue"`
	}
	if json.Unmarshal(raw, &outcome) == nil && len(outcome.Issue) > 0 {
		return outcome.Issue[0].Diagnostics
	}
	return strings.TrimSpace(string(raw))
}

// searchAll runs a FHIR search and follows the bundle's "next" link until
// exhausted, returning the union of all pages' entries. Results arrive in
// bounded pages, so stopping at the first bundle would silently truncate.
func (c *Client) searchAll(ctx context.Context, firstURL, resource string) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	next := firstURL
	for next != "" {
		var page Bundle
		if err := c.do(ctx, http.MethodGet, next, nil, &page, resource); err != nil {
			return nil, err
		}
		for _, e := range page.Entry {
			entries = append(entries, e.Resource)
		}
		next = page.NextURL()
	}
	return entries, nil
}

func decodeEntries[T any](entries []json.RawMessage, resourceType string) ([]T, error) {
	var out []T
	for _, raw := range entries {
		var probe struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("decode bundle entry: %w", err)
		}
		if probe.ResourceType != resourceType {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", resourceType, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// FHIR reads and writes
// ---------------------------------------------------------------------------

func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	if err := c.do(ctx, http.MethodGet, c.fhirURL("/Patient/"+id, nil), nil, &p, "Patient"); err != nil {
		if nf, ok := asNotFound(err); ok {
			nf.ID = id
		}
		return nil, err
	}
	return &p, nil
}

func (c *Client) SearchPatients(ctx context.Context, name string) ([]Patient, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	entries, err := c.searchAll(ctx, c.fhirURL("/Patient", q), "Patient")
	if err != nil {
		return nil, err
	}
	return decodeEntries[Patient](entries, "Patient")
}

func (c *Client) GetEncounter(ctx context.Context, id string) (*Encounter, error) {
	var e Encounter
	if err := c.do(ctx, http.MethodGet, c.fhirURL("/Encounter/"+id, nil), nil, &e, "Encounter"); err != nil {
		if nf, ok := asNotFound(err); ok {
			nf.ID = id
		}
		return nil, err
	}
	return &e, nil
}

// SearchEncounters returns every encounter of the given type for a patient,
// across all result pages. The EMR cannot filter by parent encounter, so
// callers scan the result client-side.
func (c *Client) SearchEncounters(ctx context.Context, patientID, typeID string) ([]Encounter, error) {
	q := url.Values{}
	q.Set("patient", patientID)
	if typeID != "" {
		q.Set("type", typeID)
	}
	entries, err := c.searchAll(ctx, c.fhirURL("/Encounter", q), "Encounter")
	if err != nil {
		return nil, err
	}
	return decodeEntries[Encounter](entries, "Encounter")
}

func (c *Client) CreateEncounter(ctx context.Context, enc *Encounter) (*Encounter, error) {
	var created Encounter
	if err := c.do(ctx, http.MethodPost, c.fhirURL("/Encounter", nil), enc, &created, "Encounter"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) SearchObservations(ctx context.Context, encounterID, conceptID string) ([]Observation, error) {
	q := url.Values{}
	q.Set("encounter", encounterID)
	if conceptID != "" {
		q.Set("code", conceptID)
	}
	entries, err := c.searchAll(ctx, c.fhirURL("/Observation", q), "Observation")
	if err != nil {
		return nil, err
	}
	return decodeEntries[Observation](entries, "Observation")
}

func (c *Client) CreateObservation(ctx context.Context, obs *Observation) (*Observation, error) {
	var created Observation
	if err := c.do(ctx, http.MethodPost, c.fhirURL("/Observation", nil), obs, &created, "Observation"); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateObservation(ctx context.Context, obs *Observation) error {
	return c.do(ctx, http.MethodPut, c.fhirURL("/Observation/"+obs.ID, nil), obs, nil, "Observation")
}

func (c *Client) SearchActiveConditions(ctx context.Context, patientID string) ([]Condition, error) {
	q := url.Values{}
	q.Set("patient", patientID)
	q.Set("clinical-status", "active")
	entries, err := c.searchAll(ctx, c.fhirURL("/Condition", q), "Condition")
	if err != nil {
		return nil, err
	}
	return decodeEntries[Condition](entries, "Condition")
}

func (c *Client) SearchActiveMedicationRequests(ctx context.Context, patientID string) ([]MedicationRequest, error) {
	q := url.Values{}
	q.Set("patient", patientID)
	q.Set("status", "active")
	entries, err := c.searchAll(ctx, c.fhirURL("/MedicationRequest", q), "MedicationRequest")
	if err != nil {
		return nil, err
	}
	return decodeEntries[MedicationRequest](entries, "MedicationRequest")
}

// ---------------------------------------------------------------------------
// Legacy REST: vocabulary search, orders, diagnoses
// ---------------------------------------------------------------------------

func (c *Client) SearchConcepts(ctx context.Context, term string) ([]ConceptRef, error) {
	return c.searchRefs(ctx, "/concept", term, "concept")
}

func (c *Client) SearchDrugs(ctx context.Context, term string) ([]ConceptRef, error) {
	return c.searchRefs(ctx, "/drug", term, "drug")
}

func (c *Client) searchRefs(ctx context.Context, path, term, resource string) ([]ConceptRef, error) {
	q := url.Values{}
	q.Set("q", term)
	var resp restListResponse
	if err := c.do(ctx, http.MethodGet, c.restURL(path, q), nil, &resp, resource); err != nil {
		return nil, err
	}
	refs := make([]ConceptRef, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var ref ConceptRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", resource, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (c *Client) CreateOrder(ctx context.Context, order *OrderPayload) error {
	return c.do(ctx, http.MethodPost, c.restURL("/order", nil), order, nil, "order")
}

// ListDiagnoses returns the non-voided diagnoses attached to an encounter.
func (c *Client) ListDiagnoses(ctx context.Context, encounterID string) ([]DiagnosisRecord, error) {
	q := url.Values{}
	q.Set("encounter", encounterID)
	q.Set("v", "full")
	var resp restListResponse
	if err := c.do(ctx, http.MethodGet, c.restURL("/patientdiagnoses", q), nil, &resp, "patientdiagnoses"); err != nil {
		return nil, err
	}
	var records []DiagnosisRecord
	for _, raw := range resp.Results {
		var rec DiagnosisRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode diagnosis record: %w", err)
		}
		if rec.Voided {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) CreateDiagnosis(ctx context.Context, d *DiagnosisPayload) error {
	return c.do(ctx, http.MethodPost, c.restURL("/patientdiagnoses", nil), d, nil, "patientdiagnoses")
}

func (c *Client) DeleteDiagnosis(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.restURL("/patientdiagnoses/"+id, nil), nil, nil, "patientdiagnoses")
}

// Ping verifies connectivity and credentials with a minimal FHIR read.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("_count", "1")
	var page Bundle
	return c.do(ctx, http.MethodGet, c.fhirURL("/Patient", q), nil, &page, "Patient")
}

func asNotFound(err error) (*NotFoundError, bool) {
	nf, ok := err.(*NotFoundError)
	return nf, ok
}
