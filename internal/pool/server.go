package pool

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"agentpool.run/internal/workertemplate"
)

// TemplatesPath is the URL path the scheduler reads the pool from.
const TemplatesPath = "/worker-templates"

type lister interface {
	List() []workertemplate.WorkerTemplate
	Get(name string) (workertemplate.WorkerTemplate, bool)
}

// NewHandler serves the pool as JSON:
// GET /worker-templates lists all templates, GET /worker-templates/<name> returns one.
func NewHandler(log logr.Logger, pool lister) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(TemplatesPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(log, w, http.StatusOK, pool.List())
	})
	mux.HandleFunc(TemplatesPath+"/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, TemplatesPath+"/")
		t, ok := pool.Get(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(log, w, http.StatusOK, t)
	})
	return mux
}

func writeJSON(log logr.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "writing response")
	}
}
