package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/hoply/hoply/internal/adapters/http"
	"github.com/hoply/hoply/internal/adapters/memory"
	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/core/usecases"
	"github.com/hoply/hoply/internal/pkg/config"
)

const owner = "0f8c2e5a-3b7d-4c1e-9a6f-2d4b8e1c7a90"

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func fp(v float64) *float64 { return &v }
func sp(v string) *string { return &v }

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func newTestApp(t *testing.T, checks map[string]handler.Pinger) *fiber.App {
	t.Helper()
	store, err := memory.New()
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	ctx := context.Background()
	err = store.Matches().UpsertBatch(ctx, []domain.Match{
		{ID: 1, Sport: "football", HomeTeam: sp("Hertha BSC"), AwayTeam: sp("Union Berlin"),
			EventDate: day("2024-11-10"), EventTime: at("2024-11-10T15:30:00Z"),
			Latitude: fp(52.5147), Longitude: fp(13.2395)},
		{ID: 2, Sport: "football", HomeTeam: sp("FC Bayern"),
			EventDate: day("2024-11-09"), EventTime: at("2024-11-09T18:00:00Z"),
			Latitude: fp(48.2188), Longitude: fp(11.6247)},
		{ID: 3, Sport: "handball", HomeTeam: sp("Füchse Berlin"),
			EventDate: day("2024-11-10"), EventTime: at("2024-11-10T12:00:00Z"),
			Latitude: fp(52.5073), Longitude: fp(13.4433)},
		{ID: 4, Sport: "football", League: sp("Friendly")},
	})
	if err != nil {
		t.Fatalf("seed matches: %v", err)
	}
	err = store.Cities().UpsertBatch(ctx, []domain.City{
		{ID: 10, Name: "Berlin", ASCIIName: "Berlin", Latitude: 52.52, Longitude: 13.405, Population: 3644826},
		{ID: 11, Name: "Bern", ASCIIName: "Bern", Latitude: 46.948, Longitude: 7.447, Population: 133883},
		{ID: 12, Name: "Bremen", ASCIIName: "Bremen", Latitude: 53.079, Longitude: 8.801, Population: 569352},
	})
	if err != nil {
		t.Fatalf("seed cities: %v", err)
	}

	deps := &handler.Dependencies{
		Matches: usecases.NewMatchService(store.Matches(), nil),
		Cities:  usecases.NewCityService(store.Cities(), nil),
		Saved:   usecases.NewSavedMatchService(store.Saved(), store.Matches()),
		Hub:     handler.NewHub(),
		Search:  config.SearchConfig{DefaultLimit: 100, MaxLimit: 500, CityMinPrefix: 2, CityLimit: 5},
		Version: "test",
		Checks:  checks,
	}
	app := fiber.New()
	handler.SetupRoutes(app, deps, handler.RouterConfig{RateLimit: 1000})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, []byte, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, resp.Header
}

func matchIDs(t *testing.T, body []byte) []int64 {
	t.Helper()
	var ms []domain.Match
	if err := json.Unmarshal(body, &ms); err != nil {
		t.Fatalf("decode matches: %v (%s)", err, body)
	}
	ids := make([]int64, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListMatches(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"no filters, undated first then chronological", "", []int64{4, 2, 3, 1}},
		{"all sports sentinel", "?sport=Alle", []int64{4, 2, 3, 1}},
		{"sport", "?sport=football", []int64{4, 2, 1}},
		{"unknown sport", "?sport=curling", []int64{}},
		{"date range drops undated", "?dateFrom=2024-11-10&dateTo=2024-11-10", []int64{3, 1}},
		{"invalid date ignored", "?dateFrom=10.11.2024", []int64{4, 2, 3, 1}},
		{"radius around Berlin", "?lat=52.52&lng=13.405&distance=25", []int64{3, 1}},
		{"radius alias", "?lat=52.52&lng=13.405&radius=25", []int64{3, 1}},
		{"invalid distance ignored", "?lat=52.52&lng=13.405&distance=far", []int64{4, 2, 3, 1}},
		{"location needs both coordinates", "?lat=52.52&distance=25", []int64{4, 2, 3, 1}},
		{"limit", "?limit=2", []int64{4, 2}},
		{"combined", "?sport=football&lat=52.52&lng=13.405&distance=600&dateFrom=2024-11-01", []int64{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := do(t, app, "GET", "/v1/matches"+tt.query, "")
			if status != 200 {
				t.Fatalf("status = %d, body = %s", status, body)
			}
			if got := matchIDs(t, body); !equalIDs(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListMatches_EmptyIsArray(t *testing.T) {
	app := newTestApp(t, nil)
	status, body, _ := do(t, app, "GET", "/v1/matches?sport=curling", "")
	if status != 200 || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("got %d %s, want 200 []", status, body)
	}
}

func TestLegacyMatchesPath(t *testing.T) {
	app := newTestApp(t, nil)
	status, body, h := do(t, app, "GET", "/matches?sport=handball", "")
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if got := matchIDs(t, body); !equalIDs(got, []int64{3}) {
		t.Errorf("ids = %v", got)
	}
	if h.Get("Deprecation") != "true" {
		t.Errorf("Deprecation header = %q", h.Get("Deprecation"))
	}
	if !strings.Contains(h.Get("Link"), "/v1/matches") {
		t.Errorf("Link header = %q", h.Get("Link"))
	}
	if h.Get("Sunset") == "" {
		t.Error("missing Sunset header")
	}
}

func TestGetMatch(t *testing.T) {
	app := newTestApp(t, nil)

	status, body, _ := do(t, app, "GET", "/v1/matches/2", "")
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	var m domain.Match
	if err := json.Unmarshal(body, &m); err != nil || m.ID != 2 {
		t.Fatalf("match = %+v, err = %v", m, err)
	}

	status, body, _ = do(t, app, "GET", "/v1/matches/999", "")
	if status != 404 {
		t.Fatalf("status = %d, want 404", status)
	}
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if apiErr.Code != "not_found" || apiErr.RequestID == "" {
		t.Errorf("error body = %+v", apiErr)
	}

	status, _, _ = do(t, app, "GET", "/v1/matches/abc", "")
	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestSearchCities(t *testing.T) {
	app := newTestApp(t, nil)

	status, body, _ := do(t, app, "GET", "/v1/cities/search?q=Be", "")
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	var cities []domain.City
	if err := json.Unmarshal(body, &cities); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cities) != 2 || cities[0].Name != "Berlin" || cities[1].Name != "Bern" {
		t.Errorf("cities = %+v", cities)
	}

	for _, q := range []string{"", "B"} {
		status, body, _ = do(t, app, "GET", "/v1/cities/search?q="+q, "")
		if status != 200 || strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("q=%q: got %d %s, want 200 []", q, status, body)
		}
	}
}

func TestSavedMatchesFlow(t *testing.T) {
	app := newTestApp(t, nil)
	base := "/v1/saved/" + owner

	if status, body, _ := do(t, app, "PUT", base+"/3", ""); status != 204 {
		t.Fatalf("add: %d %s", status, body)
	}
	if status, _, _ := do(t, app, "PUT", base+"/3", ""); status != 204 {
		t.Fatalf("second add: %d", status)
	}
	if status, _, _ := do(t, app, "PUT", base+"/1", ""); status != 204 {
		t.Fatalf("add 1: %d", status)
	}
	if status, _, _ := do(t, app, "PUT", base+"/999", ""); status != 404 {
		t.Errorf("add unknown match: %d, want 404", status)
	}

	if status, body, _ := do(t, app, "PATCH", base+"/3/sections", `{"tickets":true,"travel":true}`); status != 204 {
		t.Fatalf("patch: %d %s", status, body)
	}
	if status, _, _ := do(t, app, "PATCH", base+"/2/sections", `{"tickets":true}`); status != 404 {
		t.Errorf("patch unsaved: %d, want 404", status)
	}

	status, body, h := do(t, app, "GET", base, "")
	if status != 200 {
		t.Fatalf("list: %d", status)
	}
	if h.Get("Cache-Control") != "private, no-store" {
		t.Errorf("Cache-Control = %q", h.Get("Cache-Control"))
	}
	var saved []domain.SavedMatch
	if err := json.Unmarshal(body, &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(saved) != 2 || saved[0].Match.ID != 3 || saved[1].Match.ID != 1 {
		t.Fatalf("saved = %+v", saved)
	}
	if !saved[0].Sections.Tickets || !saved[0].Sections.Travel || saved[0].Sections.Accommodation {
		t.Errorf("sections = %+v", saved[0].Sections)
	}

	if status, _, _ := do(t, app, "DELETE", base+"/3", ""); status != 204 {
		t.Fatalf("remove: %d", status)
	}
	if status, _, _ := do(t, app, "DELETE", base, ""); status != 204 {
		t.Fatalf("reset: %d", status)
	}
	_, body, _ = do(t, app, "GET", base, "")
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("after reset = %s", body)
	}
}

func TestSaved_InvalidOwner(t *testing.T) {
	app := newTestApp(t, nil)
	status, body, _ := do(t, app, "GET", "/v1/saved/not-a-uuid", "")
	if status != 400 {
		t.Fatalf("status = %d, want 400 (%s)", status, body)
	}
	if status, _, _ = do(t, app, "PUT", "/v1/saved/"+owner+"/x", ""); status != 400 {
		t.Errorf("non-numeric match id: %d, want 400", status)
	}
	if status, _, _ = do(t, app, "PATCH", "/v1/saved/"+owner+"/1/sections", `{"tickets":`); status != 400 {
		t.Errorf("bad body: %d, want 400", status)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t, map[string]handler.Pinger{"database": stubPinger{}, "nats": nil})
	if status, _, _ := do(t, app, "GET", "/v1/health", ""); status != 200 {
		t.Errorf("health: %d", status)
	}
	status, body, _ := do(t, app, "GET", "/v1/ready", "")
	if status != 200 {
		t.Fatalf("ready: %d %s", status, body)
	}

	app = newTestApp(t, map[string]handler.Pinger{"database": stubPinger{err: errors.New("connection refused")}})
	status, body, _ = do(t, app, "GET", "/v1/ready", "")
	if status != 503 {
		t.Fatalf("ready with failing db: %d", status)
	}
	if !strings.Contains(string(body), "connection refused") {
		t.Errorf("body = %s", body)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := newTestApp(t, nil)
	status, _, h := do(t, app, "GET", "/v1/matches?sport=handball", "")
	if status != 200 || h.Get("Etag") == "" {
		t.Fatalf("status = %d, etag = %q", status, h.Get("Etag"))
	}
	if h.Get("X-Catalog-Version") == "" {
		t.Error("missing X-Catalog-Version")
	}
	status, _, _ = do(t, app, "GET", "/v1/matches?sport=handball", "", "If-None-Match", h.Get("Etag"))
	if status != 304 {
		t.Errorf("status = %d, want 304", status)
	}
}

func TestGraphQL(t *testing.T) {
	app := newTestApp(t, nil)
	status, body, _ := do(t, app, "POST", "/graphql",
		`{"query":"{ matches(sport: \"handball\") { id sport home_team } cities(q: \"Bre\") { name population } }"}`)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	var res struct {
		Data struct {
			Matches []struct {
				ID       string `json:"id"`
				Sport    string `json:"sport"`
				HomeTeam string `json:"home_team"`
			} `json:"matches"`
			Cities []struct {
				Name string `json:"name"`
			} `json:"cities"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("errors: %v", res.Errors)
	}
	if len(res.Data.Matches) != 1 || res.Data.Matches[0].ID != "3" || res.Data.Matches[0].HomeTeam != "Füchse Berlin" {
		t.Errorf("matches = %+v", res.Data.Matches)
	}
	if len(res.Data.Cities) != 1 || res.Data.Cities[0].Name != "Bremen" {
		t.Errorf("cities = %+v", res.Data.Cities)
	}

	if status, _, _ = do(t, app, "POST", "/graphql", `{}`); status != 400 {
		t.Errorf("empty query: %d, want 400", status)
	}
}
