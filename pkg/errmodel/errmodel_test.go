package errmodel

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAndFrom(t *testing.T) {
	e := Validation("missing", "field missing", map[string]any{"field": "store_id"})
	if e.Category != CategoryValidation || e.Code != "missing" {
		t.Fatalf("unexpected: %#v", e)
	}
	if got := From(e); got != e {
		t.Fatalf("From should return same error instance")
	}
}

func TestFrom_WrapsUnknown(t *testing.T) {
	e := From(errors.New("boom"))
	if e.Category != CategorySystem || e.Code != "internal" {
		t.Fatalf("unexpected: %#v", e)
	}
}

func TestEffect_CarriesCause(t *testing.T) {
	cause := errors.New("dial timeout")
	e := Effect("op_failed", "future op failed", map[string]any{"kind": "future"}, cause)
	if len(e.Causes) != 1 {
		t.Fatalf("causes=%d want 1", len(e.Causes))
	}
	if e.Causes[0].Message != "dial timeout" {
		t.Fatalf("cause message=%q", e.Causes[0].Message)
	}
}

func TestHTTPStatus_Shutdown(t *testing.T) {
	e := Shutdown("store_closed", "store closed", nil, nil)
	if got := HTTPStatus(e); got != 503 {
		t.Fatalf("status=%d want 503", got)
	}
}

func TestWriteHTTP_StatusAndEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	WriteHTTP(rr, req, Validation("bad_json", "oops", nil))
	if rr.Code != 400 {
		t.Fatalf("status=%d want 400", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "\"category\":\"validation\"") {
		t.Fatalf("body missing category: %s", body)
	}
	if !strings.Contains(body, "\"code\":\"bad_json\"") {
		t.Fatalf("body missing code: %s", body)
	}
}
