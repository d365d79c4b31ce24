// Command legal-registry is a standalone stand-in for the upstream legal
// instrument registry, used for local development and end-to-end testing of
// the watcher. It serves a small fixture data set and supports mutating it at
// runtime so scans have something to detect.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type instrument struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Number        string `json:"number"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	PromulgatedAt string `json:"promulgatedAt"`
	LastRevisedAt string `json:"lastRevisedAt,omitempty"`
}

type registry struct {
	mu          sync.RWMutex
	instruments []instrument
	lastUpdated time.Time
	failing     bool
}

func newRegistry() *registry {
	return &registry{
		instruments: []instrument{
			{ID: "law-001", Name: "Labor Standards Act", Number: "Act No. 49", Category: "labor", Status: "in_force", PromulgatedAt: "1947-04-07", LastRevisedAt: "2020-04-01"},
			{ID: "law-002", Name: "Income Tax Act", Number: "Act No. 33", Category: "tax", Status: "in_force", PromulgatedAt: "1965-03-31", LastRevisedAt: "2023-03-31"},
			{ID: "law-003", Name: "Companies Act", Number: "Act No. 86", Category: "commerce", Status: "in_force", PromulgatedAt: "2005-07-26"},
			{ID: "law-004", Name: "Environmental Basic Act", Number: "Act No. 91", Category: "environment", Status: "in_force", PromulgatedAt: "1993-11-19", LastRevisedAt: "2021-05-10"},
		},
		lastUpdated: time.Now().UTC(),
	}
}

func (r *registry) handleList(w http.ResponseWriter, _ *http.Request) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failing {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "registry maintenance window",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instruments": r.instruments,
		"totalCount":  len(r.instruments),
		"lastUpdated": r.lastUpdated,
		"version":     "mock-registry-1",
		"success":     true,
	})
}

func (r *registry) handleDetail(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/instruments/")

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, i := range r.instruments {
		if i.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"instrument": i, "success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "instrument not found"})
}

// handleRevise bumps one instrument's revision date so the next scan sees a
// REVISED change. POST /admin/revise?id=law-001
func (r *registry) handleRevise(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.instruments {
		if r.instruments[i].ID == id {
			r.instruments[i].LastRevisedAt = time.Now().UTC().Format("2006-01-02")
			r.lastUpdated = time.Now().UTC()
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "instrument not found"})
}

// handleFail toggles in-band failure mode. POST /admin/fail?on=true
func (r *registry) handleFail(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.failing = req.URL.Query().Get("on") == "true"
	r.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	reg := newRegistry()
	mux := http.NewServeMux()
	mux.HandleFunc("/instruments", reg.handleList)
	mux.HandleFunc("/instruments/", reg.handleDetail)
	mux.HandleFunc("/admin/revise", reg.handleRevise)
	mux.HandleFunc("/admin/fail", reg.handleFail)

	log.Printf("mock legal registry listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
