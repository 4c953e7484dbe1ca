// Command markql-agent serves MarkQL queries over HTTP (spec §6's "HTTP
// agent" collaborator): POST /v1/query runs a query against an inline
// HTML document, GET /health reports liveness, and GET /metrics exposes
// Prometheus counters for the /v1/query endpoint.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darhnoel/markql-sub000/internal/cliconfig"
	markql "github.com/darhnoel/markql-sub000"
)

func main() {
	configFile := flag.String("config", "", "config file path (defaults to the XDG config home)")
	flag.Parse()

	cfg, err := cliconfig.Load(*configFile)
	if err != nil {
		log.Fatalf("markql-agent: loading config: %v", err)
	}

	engine := markql.New(time.Duration(cfg.TimeoutMs) * time.Millisecond)
	srv := newServer(engine, cfg.AgentToken)

	mux := srv.mux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.AgentPort)
	log.Printf("markql-agent: listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("markql-agent: %v", err)
	}
}
