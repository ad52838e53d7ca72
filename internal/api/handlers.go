package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rmenezes/aguaviva/internal/models"
	"github.com/rmenezes/aguaviva/internal/stats"
	"github.com/rmenezes/aguaviva/internal/view"
)

// filterValue reads the first non-empty query value among the given names.
// The legacy dashboard sent "todos" for an inactive filter; treat it as
// absent so old clients keep working.
func filterValue(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" && v != "todos" {
			return v
		}
	}
	return ""
}

// parseSelection builds a filter selection from query parameters. Unknown
// values are fine (they just match nothing); only malformed syntax is an
// error.
func parseSelection(r *http.Request) (models.FilterSelection, error) {
	q := r.URL.Query()
	var sel models.FilterSelection

	if v := filterValue(q, "year", "ano"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return sel, fmt.Errorf("invalid year %q", v)
		}
		sel.Year = year
	}
	if v := filterValue(q, "month", "mes"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			return sel, fmt.Errorf("invalid month %q", v)
		}
		sel.Month = month
	}
	sel.Neighborhood = filterValue(q, "neighborhood", "bairro")
	sel.Parameter = models.Parameter(filterValue(q, "parameter", "parametro"))

	return sel, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

type indexData struct {
	Payload view.Payload
	Records int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data := indexData{
		Payload: view.Assemble(s.ds, sel),
		Records: s.ds.Len(),
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, view.Assemble(s.ds, sel))
}

func (s *Server) handleMapPoints(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, view.MapPoints(s.ds, sel))
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		http.Error(w, "no boundary data configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(s.boundaries.Raw())
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, stats.NeighborhoodDetails(s.ds.Filter(sel)))
}

type monthlyResponse struct {
	Distribution []stats.MonthBucket `json:"distribution"`
	Conformity   []stats.TrendPoint  `json:"conformity"`
	ByParameter  []stats.TrendSeries `json:"by_parameter"`
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filtered := s.ds.Filter(sel)

	var span []stats.MonthKey
	if sel.Year != 0 {
		span = stats.MonthSpan(s.ds.Records(), sel.Year)
	}

	writeJSON(w, monthlyResponse{
		Distribution: stats.MonthlyDistribution(filtered, span),
		Conformity:   stats.MonthlyConformity(filtered),
		ByParameter:  stats.MonthlyConformityByParameter(filtered),
	})
}

func (s *Server) handleCollectionPoints(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Full ranking, worst first; the dashboard trims client-side.
	writeJSON(w, stats.WorstPoints(s.ds.Filter(sel), 0))
}

type healthStatus struct {
	Status        string `json:"status"`
	Records       int    `json:"records"`
	Neighborhoods int    `json:"neighborhoods"`
	HasBoundaries bool   `json:"has_boundaries"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := healthStatus{
		Status:        "ok",
		Records:       s.ds.Len(),
		Neighborhoods: len(s.ds.Options().Neighborhoods),
		HasBoundaries: s.boundaries != nil,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if health.Records == 0 {
		health.Status = "degraded"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(health)
		return
	}
	writeJSON(w, health)
}
