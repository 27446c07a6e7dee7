package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spendshare/internal/layout"
)

func TestClient_FetchLayout(t *testing.T) {
	sections := []layout.Section{
		{ID: "summary", Name: "Summary", Visible: true, Type: layout.SectionFull},
		{ID: "chart", Name: "Chart", Visible: false, Type: layout.SectionHalf},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		switch r.URL.Path {
		case "/alice/expenses":
			json.NewEncoder(w).Encode(sections)
		case "/alice/incomes":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	got, err := c.FetchLayout(ctx, "alice", "expenses")
	if err != nil {
		t.Fatalf("FetchLayout() error = %v", err)
	}
	if !layout.Equal(got, sections) {
		t.Errorf("FetchLayout() = %+v, want %+v", got, sections)
	}

	// 404 means no saved layout, not an error.
	got, err = c.FetchLayout(ctx, "alice", "incomes")
	if err != nil {
		t.Fatalf("FetchLayout() on 404 error = %v", err)
	}
	if got != nil {
		t.Errorf("FetchLayout() on 404 = %+v, want nil", got)
	}

	// Other statuses are errors.
	if _, err := c.FetchLayout(ctx, "bob", "expenses"); err == nil {
		t.Error("FetchLayout() on 500 should fail")
	}
}

func TestClient_PushLayout(t *testing.T) {
	var gotPath string
	var gotBody []layout.Section

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	sections := []layout.Section{{ID: "summary", Name: "Summary", Visible: true, Type: layout.SectionFull}}

	if err := c.PushLayout(context.Background(), "alice", "expenses", sections); err != nil {
		t.Fatalf("PushLayout() error = %v", err)
	}
	if gotPath != "/alice/expenses" {
		t.Errorf("path = %s, want /alice/expenses", gotPath)
	}
	if !layout.Equal(gotBody, sections) {
		t.Errorf("pushed body = %+v, want %+v", gotBody, sections)
	}
}

func TestClient_PushLayoutRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.PushLayout(context.Background(), "alice", "expenses", nil)
	if err == nil {
		t.Error("PushLayout() on 502 should fail")
	}
}
