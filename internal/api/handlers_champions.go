package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/pale/internal/cache"
	"github.com/dgallion1/pale/internal/parser"
	"github.com/dgallion1/pale/internal/pipeline"
	"github.com/dgallion1/pale/internal/records"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	champion, ok := championParam(r)
	if !ok {
		jsonError(w, "invalid champion name", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(champion)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"champion": job.Champion,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleJobRecords(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	res := job.Result()
	if res == nil {
		jsonError(w, fmt.Sprintf("job is %s", job.Snapshot().Status), http.StatusConflict)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/tab-separated-values") {
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		if err := records.WriteAll(w, res.Records); err != nil {
			s.log.Error("write records", "job_id", job.ID, "error", err)
		}
		return
	}

	recs := res.Records
	if recs == nil {
		recs = []records.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"champion": res.Champion,
		"records":  recs,
	})
}

// fetchErrorStatus maps a page fetch failure to a response code.
func fetchErrorStatus(err error) int {
	var statusErr *cache.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// championParam reads the champion URL parameter as a cache-safe slug.
func championParam(r *http.Request) (string, bool) {
	return parser.ChampionKey(chi.URLParam(r, "champion"))
}
