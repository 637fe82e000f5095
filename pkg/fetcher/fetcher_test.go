package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetHtml(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request carried no User-Agent")
		}
		w.Write([]byte(`<html><body><form><input name="email"></form></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewFetcher().GetHtml(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if doc.Find(`input[name="email"]`).Length() != 1 {
		t.Error("fetched document missing expected input")
	}
}

func TestGetHtmlBytesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewFetcher().GetHtmlBytes(context.Background(), srv.URL); err == nil {
		t.Error("non-200 response should be an error")
	}
}
