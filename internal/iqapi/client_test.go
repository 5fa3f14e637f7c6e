package iqapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mindcast/internal/pipeline"
)

func TestLookup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/iq/someone" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"iq": 128, "confidence": 88}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	res, err := c.Lookup(context.Background(), "someone")
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 128 || res.Confidence != 88 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLookupNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.Lookup(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLookupMissingScoreField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"confidence": 88}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.Lookup(context.Background(), "someone"); !errors.Is(err, pipeline.ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestLookupUnconfigured(t *testing.T) {
	c := NewClient("")
	if _, err := c.Lookup(context.Background(), "someone"); !errors.Is(err, pipeline.ErrUnconfigured) {
		t.Fatalf("want ErrUnconfigured, got %v", err)
	}
}
