package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	markql "github.com/darhnoel/markql-sub000"
)

func newTestServer(token string) *server {
	return newServer(markql.New(5*time.Second), token)
}

func TestHandleQuerySuccess(t *testing.T) {
	s := newTestServer("")
	body, _ := json.Marshal(queryRequest{
		HTML:  `<p class="intro">hi</p><p>bye</p>`,
		Query: `SELECT p FROM DOCUMENT`,
	})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Rows  [][]any `json:"rows"`
		Error any     `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if env.Error != nil {
		t.Fatalf("expected no error, got %v", env.Error)
	}
	if len(env.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(env.Rows))
	}
}

func TestHandleQueryMissingTokenRejected(t *testing.T) {
	s := newTestServer("secret")
	body, _ := json.Marshal(queryRequest{HTML: "<p>x</p>", Query: "SELECT p FROM DOCUMENT"})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleQueryValidTokenAccepted(t *testing.T) {
	s := newTestServer("secret")
	body, _ := json.Marshal(queryRequest{HTML: "<p>x</p>", Query: "SELECT p FROM DOCUMENT"})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	req.Header.Set("X-XSQL-Token", "secret")
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleQueryMissingFieldsRejected(t *testing.T) {
	s := newTestServer("")
	body, _ := json.Marshal(queryRequest{HTML: "", Query: ""})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleQueryTimeoutMsOverLimitRejected(t *testing.T) {
	s := newTestServer("")
	over := 200000
	body, _ := json.Marshal(queryRequest{
		HTML: "<p>x</p>", Query: "SELECT p FROM DOCUMENT",
		Options: &queryOptions{TimeoutMs: &over},
	})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleQueryMaxRowsTruncates(t *testing.T) {
	s := newTestServer("")
	maxRows := 1
	body, _ := json.Marshal(queryRequest{
		HTML:  `<p>a</p><p>b</p><p>c</p>`,
		Query: `SELECT p FROM DOCUMENT`,
		Options: &queryOptions{
			MaxRows: &maxRows,
		},
	})
	req := httptest.NewRequest("POST", "/v1/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleQuery(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Rows      [][]any `json:"rows"`
		Truncated bool    `json:"truncated"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if len(env.Rows) != 1 || !env.Truncated {
		t.Fatalf("expected 1 truncated row, got %d rows truncated=%v", len(env.Rows), env.Truncated)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer("")
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	s.handleHealth(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.OK {
		t.Fatal("expected ok=true")
	}
}

func TestCorsPreflightAllowedOrigin(t *testing.T) {
	h := corsMiddleware(newTestServer("").mux())
	req := httptest.NewRequest("OPTIONS", "/v1/query", nil)
	req.Header.Set("Origin", allowedOrigins[0])
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 204 {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != allowedOrigins[0] {
		t.Fatalf("expected CORS header echoing origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
