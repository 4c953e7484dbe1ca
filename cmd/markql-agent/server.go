package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darhnoel/markql-sub000/internal/diag"
	markql "github.com/darhnoel/markql-sub000"
	"github.com/darhnoel/markql-sub000/internal/result"
)

const maxAgentTimeoutMs = 120_000

var allowedOrigins = []string{
	"http://localhost:5173",
}

type queryOptions struct {
	MaxRows   *int `json:"max_rows,omitempty" validate:"omitempty,min=0"`
	TimeoutMs *int `json:"timeout_ms,omitempty" validate:"omitempty,max=120000"`
}

type queryRequest struct {
	HTML    string        `json:"html" validate:"required"`
	Query   string        `json:"query" validate:"required"`
	Options *queryOptions `json:"options,omitempty"`
}

type healthResponse struct {
	OK           bool   `json:"ok"`
	AgentVersion string `json:"agent_version"`
}

// agentVersion is set at build time the way holomush's cmd/holomush
// main.go carries its own version/commit/date ldflags vars.
var agentVersion = "dev"

type server struct {
	engine   *markql.Engine
	validate *validator.Validate
	token    string
}

func newServer(engine *markql.Engine, token string) *server {
	return &server{engine: engine, validate: validator.New(), token: token}
}

func (s *server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/v1/query", corsMiddleware(http.HandlerFunc(s.handleQuery)))
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, AgentVersion: agentVersion})
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		queryDuration.Observe(time.Since(start).Seconds())
		queryRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	}()

	if r.Method != http.MethodPost {
		status = http.StatusBadRequest
		writeEnvelopeError(w, status, "METHOD_NOT_ALLOWED", "only POST is supported")
		return
	}

	if s.token != "" && r.Header.Get("X-XSQL-Token") != s.token {
		status = http.StatusUnauthorized
		writeEnvelopeError(w, status, "UNAUTHORIZED", "missing or invalid X-XSQL-Token")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeEnvelopeError(w, status, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		status = http.StatusBadRequest
		writeEnvelopeError(w, status, "BAD_REQUEST", err.Error())
		return
	}

	timeoutMs := maxAgentTimeoutMs
	maxRows := -1
	if req.Options != nil {
		if req.Options.TimeoutMs != nil {
			timeoutMs = *req.Options.TimeoutMs
		}
		if req.Options.MaxRows != nil {
			maxRows = *req.Options.MaxRows
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	src := markql.SourceDescriptor{Kind: markql.Inline, Bytes: []byte(req.HTML)}
	res, diags := s.engine.ExecuteQueryWithLoader(ctx, src, req.Query, 0)
	if res == nil {
		if ctx.Err() == context.DeadlineExceeded {
			status = http.StatusRequestTimeout
			writeEnvelopeError(w, status, "TIMEOUT", "query execution exceeded timeout_ms")
			return
		}
		status = http.StatusBadRequest
		code, msg := firstDiagnostic(diags)
		writeEnvelopeError(w, status, code, msg)
		return
	}

	if maxRows >= 0 && len(res.Rows) > maxRows {
		res.Rows = res.Rows[:maxRows]
		res.Truncated = true
	}

	writeJSON(w, status, result.NewEnvelope(res))
}

func firstDiagnostic(diags []diag.Diagnostic) (string, string) {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return d.Code, d.Message
		}
	}
	return "MQL-RUN-0000", "query failed"
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-XSQL-Token")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeEnvelopeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, result.ErrorEnvelope(code, message))
}
