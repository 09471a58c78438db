package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joeblew999/plat-scenes/internal/service"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		Host:       "localhost",
		Port:       "0",
		MaxScreens: 8,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func onlyScreen(t *testing.T, s *Server) *service.MapViewModel {
	t.Helper()
	if n := s.Screens().Len(); n != 1 {
		t.Fatalf("screens=%d, want 1", n)
	}
	var m *service.MapViewModel
	for _, id := range s.Screens().IDs() {
		m, _ = s.Screens().Get(id)
	}
	return m
}

func TestMapPage(t *testing.T) {
	s, ts := newTestServer(t)

	status, body := do(t, http.MethodGet, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	m := onlyScreen(t, s)
	for _, want := range []string{
		`id="map"`,
		`id="annotations"`,
		`id="detail"`,
		"/api/v1/screens/" + m.Screen() + "/appear",
		"/api/v1/screens/" + m.Screen() + "/events",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	if status, _ := do(t, http.MethodGet, ts.URL+"/nope"); status != http.StatusNotFound {
		t.Fatalf("unknown page status=%d, want 404", status)
	}
}

func TestAppearTapDismiss(t *testing.T) {
	s, ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/")
	m := onlyScreen(t, s)
	base := ts.URL + "/api/v1/screens/" + m.Screen()

	status, body := do(t, http.MethodGet, base+"/appear")
	if status != http.StatusOK {
		t.Fatalf("appear status=%d body=%s", status, body)
	}
	if !strings.Contains(body, "datastar-patch-signals") || !strings.Contains(body, "datastar-patch-elements") {
		t.Fatalf("appear body missing datastar events:\n%s", body)
	}
	if !strings.Contains(body, "Reggia di Caserta") {
		t.Fatalf("appear body missing annotations:\n%s", body)
	}
	if v := m.Viewport(); v.Mode != service.CameraRegion || *v.Region != service.CityRegion() {
		t.Fatalf("viewport after appear=%+v", v)
	}

	teatro, _ := s.services.Locations.FindByTitle("Teatro di San Carlo")
	status, body = do(t, http.MethodPost, base+"/annotations/"+teatro.ID+"/tap")
	if status != http.StatusOK {
		t.Fatalf("tap status=%d body=%s", status, body)
	}
	if !strings.Contains(body, "Featured in: The Talented Mr. Ripley") {
		t.Fatalf("tap body missing caption:\n%s", body)
	}
	if p, ok := m.Selected(); !ok || p.ID != teatro.ID {
		t.Fatalf("selected=%+v ok=%v", p, ok)
	}

	status, body = do(t, http.MethodPost, base+"/dismiss")
	if status != http.StatusOK {
		t.Fatalf("dismiss status=%d body=%s", status, body)
	}
	if strings.Contains(body, "Featured in:") {
		t.Fatalf("dismiss body still shows the detail panel:\n%s", body)
	}
	if _, ok := m.Selected(); ok {
		t.Fatal("selection should be cleared")
	}
	if v := m.Viewport(); *v.Region != service.CityRegion() {
		t.Fatalf("dismiss moved the camera: %+v", v)
	}
}

func TestTapUnknownLocation(t *testing.T) {
	s, ts := newTestServer(t)
	m := s.Screens().Open()

	status, body := do(t, http.MethodPost, ts.URL+"/api/v1/screens/"+m.Screen()+"/annotations/nope/tap")
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	if !strings.Contains(body, "Unknown location") {
		t.Fatalf("body missing error signal:\n%s", body)
	}
	if _, ok := m.Selected(); ok {
		t.Fatal("unknown tap should not select")
	}
}

func TestUnknownScreen(t *testing.T) {
	_, ts := newTestServer(t)
	for _, path := range []string{"/appear", "/events"} {
		if status, _ := do(t, http.MethodGet, ts.URL+"/api/v1/screens/nope"+path); status != http.StatusNotFound {
			t.Fatalf("%s status=%d, want 404", path, status)
		}
	}
}

func TestEventStream(t *testing.T) {
	s, ts := newTestServer(t)
	m := s.Screens().Open()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/screens/"+m.Screen()+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	// Wait for the stream to subscribe before writing.
	deadline := time.Now().Add(2 * time.Second)
	for s.Screens().Bus().Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	m.CenterOnCity()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "screen-changed") {
			return
		}
	}
	t.Fatalf("stream ended without a screen-changed event: %v", scanner.Err())
}

func TestMetricsAndOpenAPI(t *testing.T) {
	s, ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/")

	status, body := do(t, http.MethodGet, ts.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics status=%d", status)
	}
	if !strings.Contains(body, "scenes_screens_open 1") {
		t.Fatalf("metrics missing open screen gauge:\n%s", body)
	}

	paths := s.OpenAPI().Paths
	for _, p := range []string{
		"/api/v1/locations",
		"/api/v1/screens/{screen}/selection",
		"/api/v1/screens/{screen}/annotations/{id}/tap",
	} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("OpenAPI missing %s", p)
		}
	}
}

func TestCatalog(t *testing.T) {
	_, ts := newTestServer(t)
	status, body := do(t, http.MethodGet, ts.URL+"/api/v1/catalog/in-city")
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%s", status, body)
	}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.IDs) != 3 {
		t.Fatalf("ids=%v, want the three city locations", out.IDs)
	}
}

func TestWebDirTemplatesReload(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "templates", "map.html")
	if err := os.MkdirAll(filepath.Dir(page), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "static"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(page, []byte(`{{define "map-page"}}v1 {{.Screen}}{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{
		Host:   "localhost",
		Port:   "0",
		WebDir: dir,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(s)
	defer func() {
		ts.Close()
		s.Close()
	}()

	if _, body := do(t, http.MethodGet, ts.URL+"/"); !strings.HasPrefix(body, "v1 ") {
		t.Fatalf("body=%q, want the v1 page", body)
	}

	if err := os.WriteFile(page, []byte(`{{define "map-page"}}v2 {{.Screen}}{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, body := do(t, http.MethodGet, ts.URL+"/"); !strings.HasPrefix(body, "v2 ") {
		t.Fatalf("body=%q, want the edited page", body)
	}
}
