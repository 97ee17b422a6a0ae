package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (e *TestEnv) do(t *testing.T, method string, path string, body any) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func decodeBody(t *testing.T, w *http.Response, into any) {
	t.Helper()
	defer w.Body.Close()

	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func wantStatus(t *testing.T, w *http.Response, status int) {
	t.Helper()
	if w.StatusCode != status {
		t.Fatalf("got status %s, want %d", w.Status, status)
	}
}

func wantKind(t *testing.T, w *http.Response, status int, kind string) {
	t.Helper()

	wantStatus(t, w, status)

	var eb errBody
	decodeBody(t, w, &eb)
	if eb.Kind != kind {
		t.Fatalf("got error kind %q, want %q", eb.Kind, kind)
	}
}
