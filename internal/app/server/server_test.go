package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/clicktally/clicktally/internal/app/repository"
	"github.com/clicktally/clicktally/internal/app/service"
	"go.uber.org/zap"
)

type stubClickRepository struct {
	events    []model.ClickEvent
	nextID    int64
	deleteAll func() (int64, error)
}

func (s *stubClickRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	s.nextID++
	event.ID = s.nextID
	event.Timestamp = time.Now()
	s.events = append(s.events, *event)
	return nil
}

func (s *stubClickRepository) List(ctx context.Context, filter repository.ClickFilter, limit, offset int) ([]model.ClickEvent, error) {
	matched := s.filter(filter)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *stubClickRepository) ListAll(ctx context.Context, filter repository.ClickFilter) ([]model.ClickEvent, error) {
	return s.filter(filter), nil
}

func (s *stubClickRepository) Count(ctx context.Context, filter repository.ClickFilter) (int64, error) {
	return int64(len(s.filter(filter))), nil
}

func (s *stubClickRepository) AggregateByPlatform(ctx context.Context) ([]repository.PlatformAggregate, error) {
	counts := map[string]*repository.PlatformAggregate{}
	for _, event := range s.events {
		agg, ok := counts[event.PlatformID]
		if !ok {
			agg = &repository.PlatformAggregate{PlatformID: event.PlatformID, PlatformName: event.PlatformName}
			counts[event.PlatformID] = agg
		}
		agg.Clicks++
	}

	var rows []repository.PlatformAggregate
	for _, agg := range counts {
		rows = append(rows, *agg)
	}
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[j].Clicks > rows[i].Clicks {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}
	return rows, nil
}

func (s *stubClickRepository) DeleteAll(ctx context.Context) (int64, error) {
	if s.deleteAll != nil {
		return s.deleteAll()
	}
	n := int64(len(s.events))
	s.events = nil
	return n, nil
}

func (s *stubClickRepository) filter(f repository.ClickFilter) []model.ClickEvent {
	var matched []model.ClickEvent
	for _, event := range s.events {
		if f.PlatformID != "" && event.PlatformID != f.PlatformID {
			continue
		}
		matched = append(matched, event)
	}
	return matched
}

func newTestServer(t *testing.T, repo *stubClickRepository) *Server {
	t.Helper()

	auth := service.NewAuthService(
		service.Credentials{Username: "admin", Password: "correct-horse"},
		repository.NewMemorySessionStore(),
		[]byte("test-secret"),
	)

	return New(Dependencies{
		Logger:  zap.NewNop(),
		Auth:    auth,
		Clicks:  service.NewClickService(repo),
		Reports: service.NewReportService(repo, service.DefaultUnitValue),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body string, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func login(t *testing.T, s *Server) []*http.Cookie {
	t.Helper()

	resp := doJSON(t, s, http.MethodPost, "/api/admin/login",
		`{"username":"admin","password":"correct-horse"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}
	resp.Body.Close()
	return cookies
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	repo := &stubClickRepository{}
	s := newTestServer(t, repo)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/admin/history"},
		{http.MethodGet, "/api/admin/export-csv"},
		{http.MethodPost, "/api/admin/logout"},
		{http.MethodDelete, "/api/admin/clicks"},
	}
	for _, p := range paths {
		resp := doJSON(t, s, p.method, p.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, resp.StatusCode)
		}
		payload := decodeBody(t, resp)
		if payload["success"] != false {
			t.Fatalf("%s %s: expected success=false, got %v", p.method, p.path, payload)
		}
	}
}

func TestLoginCheckLogoutFlow(t *testing.T) {
	s := newTestServer(t, &stubClickRepository{})

	// Anonymous check.
	resp := doJSON(t, s, http.MethodGet, "/api/admin/check", "", nil)
	payload := decodeBody(t, resp)
	if payload["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", payload)
	}

	// Wrong password stays anonymous.
	resp = doJSON(t, s, http.MethodPost, "/api/admin/login",
		`{"username":"admin","password":"wrong"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatal("failed login must not set a session cookie")
	}
	resp.Body.Close()

	cookies := login(t, s)

	resp = doJSON(t, s, http.MethodGet, "/api/admin/check", "", cookies)
	payload = decodeBody(t, resp)
	if payload["authenticated"] != true || payload["username"] != "admin" {
		t.Fatalf("expected authenticated admin, got %v", payload)
	}

	resp = doJSON(t, s, http.MethodPost, "/api/admin/logout", "", cookies)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Session is gone server-side even if the client keeps the cookie.
	resp = doJSON(t, s, http.MethodGet, "/api/stats", "", cookies)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRecordClickAndStats(t *testing.T) {
	repo := &stubClickRepository{}
	s := newTestServer(t, repo)

	for i := 0; i < 3; i++ {
		resp := doJSON(t, s, http.MethodPost, "/api/click",
			`{"platform_id":"a","platform_name":"Platform A","platform_url":"https://a.example"}`, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("record click: expected 200, got %d", resp.StatusCode)
		}
		payload := decodeBody(t, resp)
		if payload["success"] != true || payload["id"] == nil {
			t.Fatalf("unexpected click response: %v", payload)
		}
	}
	for i := 0; i < 2; i++ {
		resp := doJSON(t, s, http.MethodPost, "/api/click",
			`{"platform_id":"b","platform_name":"Platform B","platform_url":"https://b.example"}`, nil)
		resp.Body.Close()
	}

	// Missing fields are rejected without persisting.
	resp := doJSON(t, s, http.MethodPost, "/api/click",
		`{"platform_id":"a","platform_url":"https://a.example"}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("incomplete click: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	if len(repo.events) != 5 {
		t.Fatalf("expected 5 persisted events, got %d", len(repo.events))
	}

	cookies := login(t, s)
	resp = doJSON(t, s, http.MethodGet, "/api/stats", "", cookies)
	payload := decodeBody(t, resp)

	stats, ok := payload["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing stats object: %v", payload)
	}
	if stats["total_clicks"] != float64(5) || stats["total_value"] != float64(5) {
		t.Fatalf("unexpected totals: %v", stats)
	}
	platforms := stats["platforms"].([]interface{})
	first := platforms[0].(map[string]interface{})
	if first["platform_id"] != "a" || first["clicks"] != float64(3) {
		t.Fatalf("expected platform a first with 3 clicks, got %v", first)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	repo := &stubClickRepository{}
	s := newTestServer(t, repo)
	for i := 0; i < 7; i++ {
		repo.Create(context.Background(), &model.ClickEvent{
			PlatformID:   "a",
			PlatformName: "Platform A",
			PlatformURL:  "https://a.example",
		})
	}

	cookies := login(t, s)
	resp := doJSON(t, s, http.MethodGet, "/api/admin/history?page=2&limit=3", "", cookies)
	payload := decodeBody(t, resp)

	history := payload["history"].(map[string]interface{})
	records := history["records"].([]interface{})
	if len(records) != 3 {
		t.Fatalf("expected 3 records on page 2, got %d", len(records))
	}
	pagination := history["pagination"].(map[string]interface{})
	if pagination["total_pages"] != float64(3) || pagination["total_records"] != float64(7) {
		t.Fatalf("unexpected pagination: %v", pagination)
	}
	if pagination["has_prev"] != true || pagination["has_next"] != true {
		t.Fatalf("unexpected pagination flags: %v", pagination)
	}

	// A malformed date is rejected up front.
	resp = doJSON(t, s, http.MethodGet, "/api/admin/history?start_date=nope", "", cookies)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad filter: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExportCSVEndpoint(t *testing.T) {
	repo := &stubClickRepository{}
	s := newTestServer(t, repo)
	repo.Create(context.Background(), &model.ClickEvent{
		PlatformID:   "a",
		PlatformName: `Name with "quotes"`,
		PlatformURL:  "https://a.example",
	})

	cookies := login(t, s)
	resp := doJSON(t, s, http.MethodGet, "/api/admin/export-csv", "", cookies)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", resp.StatusCode)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected Content-Type: %s", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "clicks_export_") {
		t.Fatalf("unexpected Content-Disposition: %s", disposition)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export body: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")) {
		t.Fatal("export must start with a UTF-8 BOM")
	}
	if !bytes.Contains(body, []byte(`"Name with ""quotes"""`)) {
		t.Fatalf("quotes are not CSV-escaped: %s", body)
	}
}

func TestDeleteAllEndpoint(t *testing.T) {
	repo := &stubClickRepository{}
	s := newTestServer(t, repo)
	for i := 0; i < 4; i++ {
		repo.Create(context.Background(), &model.ClickEvent{
			PlatformID: "a", PlatformName: "A", PlatformURL: "https://a.example",
		})
	}

	cookies := login(t, s)
	resp := doJSON(t, s, http.MethodDelete, "/api/admin/clicks", "", cookies)
	payload := decodeBody(t, resp)
	if payload["deleted_count"] != float64(4) {
		t.Fatalf("expected deleted_count=4, got %v", payload)
	}

	resp = doJSON(t, s, http.MethodGet, "/api/admin/history", "", cookies)
	history := decodeBody(t, resp)["history"].(map[string]interface{})
	pagination := history["pagination"].(map[string]interface{})
	if pagination["total_records"] != float64(0) {
		t.Fatalf("expected empty store after delete, got %v", pagination)
	}
}
