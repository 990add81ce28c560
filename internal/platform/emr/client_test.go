package emr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(ts *httptest.Server) *Client {
	return NewClient(ts.URL, "admin", "secret", 5*time.Second, zerolog.Nop())
}

func TestClient_SearchEncounters_FollowsAllPages(t *testing.T) {
	// Three pages of one encounter each; the client must return the union.
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		bundle := Bundle{
			ResourceType: "Bundle",
			Entry: []BundleEntry{
				{Resource: json.RawMessage(fmt.Sprintf(`{"resourceType":"Encounter","id":"enc-%s"}`, page))},
			},
		}
		if page != "3" {
			next := "2"
			if page == "2" {
				next = "3"
			}
			bundle.Link = []BundleLink{{Relation: "next", URL: ts.URL + "/ws/fhir2/R4/Encounter?page=" + next}}
		}
		json.NewEncoder(w).Encode(bundle)
	}))
	defer ts.Close()

	encs, err := newTestClient(ts).SearchEncounters(context.Background(), "pat-1", "type-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encs) != 3 {
		t.Fatalf("expected 3 encounters across pages, got %d", len(encs))
	}
	for i, want := range []string{"enc-1", "enc-2", "enc-3"} {
		if encs[i].ID != want {
			t.Errorf("encs[%d].ID = %s, want %s", i, encs[i].ID, want)
		}
	}
}

func TestClient_SearchEncounters_SkipsForeignResourceTypes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bundle := Bundle{
			ResourceType: "Bundle",
			Entry: []BundleEntry{
				{Resource: json.RawMessage(`{"resourceType":"OperationOutcome"}`)},
				{Resource: json.RawMessage(`{"resourceType":"Encounter","id":"enc-1"}`)},
			},
		}
		json.NewEncoder(w).Encode(bundle)
	}))
	defer ts.Close()

	encs, err := newTestClient(ts).SearchEncounters(context.Background(), "pat-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encs) != 1 || encs[0].ID != "enc-1" {
		t.Errorf("expected single Encounter enc-1, got %+v", encs)
	}
}

func TestClient_GetEncounter_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).GetEncounter(context.Background(), "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Resource != "Encounter" || nf.ID != "missing" {
		t.Errorf("NotFoundError = %+v, want Encounter/missing", nf)
	}
}

func TestClient_CreateOrder_DecodesLegacyError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"webservices.rest.error","message":"Invalid dose units"}}`))
	}))
	defer ts.Close()

	err := newTestClient(ts).CreateOrder(context.Background(), &OrderPayload{Type: "drugorder"})
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
	if we.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", we.StatusCode)
	}
	if we.Message != "Invalid dose units" {
		t.Errorf("Message = %q, want legacy error message", we.Message)
	}
}

func TestClient_CreateEncounter_DecodesOperationOutcome(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"resourceType":"OperationOutcome","issue":[{"severity":"error","diagnostics":"missing subject"}]}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).CreateEncounter(context.Background(), &Encounter{})
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
	if we.Message != "missing subject" {
		t.Errorf("Message = %q, want OperationOutcome diagnostics", we.Message)
	}
}

func TestClient_SetsBasicAuthAndHeaders(t *testing.T) {
	var gotUser, gotPass, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(Bundle{ResourceType: "Bundle"})
	}))
	defer ts.Close()

	if err := newTestClient(ts).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "admin" || gotPass != "secret" {
		t.Errorf("basic auth = %s:%s, want admin:secret", gotUser, gotPass)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestClient_ListDiagnoses_FiltersVoided(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"uuid":"d1","display":"Hypertension","voided":false},
			{"uuid":"d2","display":"Old entry","voided":true}
		]}`))
	}))
	defer ts.Close()

	recs, err := newTestClient(ts).ListDiagnoses(context.Background(), "enc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].UUID != "d1" {
		t.Errorf("expected only non-voided d1, got %+v", recs)
	}
}

func TestBundle_NextURL(t *testing.T) {
	b := &Bundle{Link: []BundleLink{
		{Relation: "self", URL: "http://emr/self"},
		{Relation: "next", URL: "http://emr/next"},
	}}
	if got := b.NextURL(); got != "http://emr/next" {
		t.Errorf("NextURL = %q, want next link", got)
	}
	if got := (&Bundle{}).NextURL(); got != "" {
		t.Errorf("NextURL on last page = %q, want empty", got)
	}
}
