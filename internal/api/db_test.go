package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-scenes/internal/db"
	"github.com/joeblew999/plat-scenes/internal/humastar"
	"github.com/joeblew999/plat-scenes/internal/service"
)

func newCatalog(t *testing.T) *DBHandler {
	t.Helper()
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.SeedLocations(context.Background(), conn, service.NewLocationService().List()); err != nil {
		t.Fatal(err)
	}
	return NewDBHandler(conn)
}

func query(h *DBHandler, q string) (*QueryOutput, error) {
	in := &QueryInput{}
	in.Body.Query = q
	return h.Query(context.Background(), in)
}

func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}
	return 0
}

func TestQueryCannotModifyCatalog(t *testing.T) {
	h := newCatalog(t)

	for _, q := range []string{
		"EXPLAIN ANALYZE DELETE FROM locations",
		"SELECT * FROM read_text('/etc/hostname')",
		"DELETE FROM locations",
		"WITH gone AS (DELETE FROM locations RETURNING id) SELECT * FROM gone",
	} {
		out, err := query(h, q)
		if err == nil {
			// Accepted statements run in a rolled-back transaction.
			t.Logf("%q returned %d rows", q, out.Body.Count)
			continue
		}
		if got := statusOf(err); got != http.StatusBadRequest {
			t.Fatalf("%q status=%d, want 400", q, got)
		}
	}

	out, err := query(h, "SELECT count(*) AS n FROM locations")
	if err != nil {
		t.Fatal(err)
	}
	if out.Body.Count != 1 {
		t.Fatalf("count rows=%d", out.Body.Count)
	}
	if n := out.Body.Rows[0]["n"]; n != int64(4) {
		t.Fatalf("locations=%v, want 4", n)
	}

	city, err := h.InCity(context.Background(), &humastar.EmptyInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(city.Body.IDs) != 3 {
		t.Fatalf("in-city ids=%v, want 3", city.Body.IDs)
	}
}

func TestQueryRejectsExplainAnalyze(t *testing.T) {
	h := newCatalog(t)
	_, err := query(h, "EXPLAIN ANALYZE SELECT 1")
	if got := statusOf(err); got != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", got)
	}
}

func TestListTables(t *testing.T) {
	h := newCatalog(t)
	out, err := h.ListTables(context.Background(), &humastar.EmptyInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Body.Tables) != 1 || out.Body.Tables[0] != "locations" {
		t.Fatalf("tables=%v, want [locations]", out.Body.Tables)
	}
}

func TestCatalogUnavailable(t *testing.T) {
	h := NewDBHandler(nil)
	if _, err := query(h, "SELECT 1"); statusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", statusOf(err))
	}
}

func TestGetLocationUnwired(t *testing.T) {
	h := NewAPIHandler(nil)
	_, err := h.GetLocation(context.Background(), &LocationIDInput{ID: "x"})
	if got := statusOf(err); got != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", got)
	}
}
