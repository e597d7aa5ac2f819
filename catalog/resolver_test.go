package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSpectralType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "HD 36861" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("O8III((f))\n"))
	}))
	defer srv.Close()

	r := NewResolver(WithBaseURL(srv.URL))

	if sp := r.SpectralType(context.Background(), "HD 36861"); sp != "O8III((f))" {
		t.Errorf("direct lookup = %q", sp)
	}

	// Archive names drop the space after HD; the resolver retries with it.
	if sp := r.SpectralType(context.Background(), "HD36861"); sp != "O8III((f))" {
		t.Errorf("HD retry = %q", sp)
	}

	if sp := r.SpectralType(context.Background(), "HD99999"); sp != "" {
		t.Errorf("unknown star = %q, want empty", sp)
	}
}

func TestSpectralTypeServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // refuse all connections

	r := NewResolver(WithBaseURL(srv.URL))
	if sp := r.SpectralType(context.Background(), "HD 36861"); sp != "" {
		t.Errorf("dead service = %q, want empty", sp)
	}
}

func TestSpectralTypeContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(WithBaseURL(srv.URL))
	if sp := r.SpectralType(ctx, "HD 36861"); sp != "" {
		t.Errorf("cancelled lookup = %q, want empty", sp)
	}
}
