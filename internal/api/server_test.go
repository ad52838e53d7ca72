package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rmenezes/aguaviva/internal/api"
	"github.com/rmenezes/aguaviva/internal/dataset"
	"github.com/rmenezes/aguaviva/internal/geo"
	"github.com/rmenezes/aguaviva/internal/models"
	"github.com/rmenezes/aguaviva/internal/view"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	return dataset.New([]models.SampleRecord{
		{
			CollectionID: "P1|2023-01-10", Year: 2023, Month: 1,
			Neighborhood: "LIBERDADE", CollectionPoint: "P1", CollectedAt: "2023-01-10",
			Parameter: models.ParamEColi, RawResult: "AUSENTE", Compliant: true,
			Latitude:  sql.NullFloat64{Float64: -12.95, Valid: true},
			Longitude: sql.NullFloat64{Float64: -38.48, Valid: true},
		},
		{
			CollectionID: "P2|2023-02-05", Year: 2023, Month: 2,
			Neighborhood: "BROTAS", CollectionPoint: "P2", CollectedAt: "2023-02-05",
			Parameter: models.ParamTurbidity, RawResult: "7,0",
			NumericValue: sql.NullFloat64{Float64: 7.0, Valid: true}, Compliant: false,
		},
	})
}

func get(t *testing.T, srv *api.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/health")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, `"records":2`) {
		t.Errorf("body = %s", body)
	}
}

func TestHealthEndpoint_EmptyDataset(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(dataset.New(nil), nil, "8080")

	w := get(t, srv, "/health")
	if w.Code != 503 {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"degraded"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestViewEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/view")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload view.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Overall.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", payload.Overall.SampleCount)
	}
	if payload.Overall.Conformity.Value != 50.0 {
		t.Errorf("Conformity = %+v, want 50.0", payload.Overall.Conformity)
	}
}

func TestViewEndpoint_Filtered(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/view?bairro=LIBERDADE&ano=2023")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload view.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Overall.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", payload.Overall.SampleCount)
	}
	// Options never shrink under filtering.
	if len(payload.Options.Neighborhoods) != 2 {
		t.Errorf("Options.Neighborhoods = %v", payload.Options.Neighborhoods)
	}
}

func TestViewEndpoint_UnknownNeighborhoodIsEmptyNotError(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/view?neighborhood=ATLANTIS")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload view.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Overall.SampleCount != 0 {
		t.Errorf("SampleCount = %d, want 0", payload.Overall.SampleCount)
	}
	if payload.Overall.Conformity.Valid {
		t.Error("expected no-data conformity for an empty match")
	}
	if len(payload.Options.Neighborhoods) != 2 {
		t.Errorf("Options must still come from the full set, got %v", payload.Options.Neighborhoods)
	}
}

func TestViewEndpoint_MalformedYear(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/view?year=twenty23")
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestViewEndpoint_TodosMeansInactive(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/view?bairro=todos")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload view.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Overall.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2 (todos is not a filter)", payload.Overall.SampleCount)
	}
}

func TestMapEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/map")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var points []view.MapPoint
	if err := json.Unmarshal(w.Body.Bytes(), &points); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len = %d, want 1 (second record has no coordinates)", len(points))
	}
	if points[0].Neighborhood != "LIBERDADE" {
		t.Errorf("point = %+v", points[0])
	}
}

func TestBoundariesEndpoint(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"nome_bairr":"LIBERDADE"},"geometry":null}]}`)
	boundaries, err := geo.Parse(raw)
	if err != nil {
		t.Fatalf("parse geojson: %v", err)
	}
	srv := api.NewServer(testDataset(t), boundaries, "8080")

	w := get(t, srv, "/api/boundaries")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != string(raw) {
		t.Error("boundary document must pass through unchanged")
	}
}

func TestBoundariesEndpoint_NotConfigured(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/boundaries")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "AguaViva") {
		t.Error("expected dashboard title")
	}
	if !strings.Contains(body, "Escherichia coli") {
		t.Error("expected parameter table")
	}
}

func TestIndexPage_UnknownPath(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/nope")
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestNeighborhoodsEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/neighborhoods")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "BROTAS") || !strings.Contains(body, "LIBERDADE") {
		t.Errorf("body = %s", body)
	}
}

func TestCollectionPointsEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/collection-points")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ranks []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &ranks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ranks) != 2 {
		t.Errorf("len = %d, want 2", len(ranks))
	}
}

func TestMonthlyEndpoint(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(testDataset(t), nil, "8080")

	w := get(t, srv, "/api/monthly?year=2023")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Distribution []json.RawMessage `json:"distribution"`
		Conformity   []json.RawMessage `json:"conformity"`
		ByParameter  []json.RawMessage `json:"by_parameter"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Distribution) != 2 {
		t.Errorf("distribution len = %d, want 2", len(resp.Distribution))
	}
	if len(resp.ByParameter) != len(models.TrackedParameters) {
		t.Errorf("by_parameter len = %d", len(resp.ByParameter))
	}
}
