package prankweb_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"prankweb-sync/internal/services"
	"prankweb-sync/internal/services/prankweb"
)

func TestPredictionStatusParsesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/prediction/v1/2SRC" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"successful","created":"2026-08-20T10:00:00","lastChange":"2026-08-21T10:00:00"}`)
	}))
	defer server.Close()

	client, err := prankweb.New(server.URL, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prediction, err := client.PredictionStatus(context.Background(), "2src")
	if err != nil {
		t.Fatalf("PredictionStatus: %v", err)
	}
	if prediction.Status != prankweb.JobSuccessful {
		t.Fatalf("status = %q", prediction.Status)
	}
	if prediction.Created != "2026-08-20T10:00:00" || prediction.LastChange != "2026-08-21T10:00:00" {
		t.Fatalf("unexpected timestamps: %+v", prediction)
	}
}

func TestPredictionStatusClassifiesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such prediction", http.StatusNotFound)
	}))
	client, err := prankweb.New(server.URL, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.PredictionStatus(context.Background(), "2SRC")
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected ErrRemote for 404, got %v", err)
	}

	server.Close()
	_, err = client.PredictionStatus(context.Background(), "2SRC")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient for closed server, got %v", err)
	}
}

func TestRetrieveArchiveDownloads(t *testing.T) {
	payload := []byte("zip-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/prediction/v1/2SRC/public/prankweb.zip" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	client, err := prankweb.New(server.URL, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dest := filepath.Join(t.TempDir(), "2SRC.zip")
	if err := client.RetrieveArchive(context.Background(), "2SRC", dest); err != nil {
		t.Fatalf("RetrieveArchive: %v", err)
	}
	raw, err := os.ReadFile(dest)
	if err != nil || string(raw) != string(payload) {
		t.Fatalf("downloaded archive = %q, %v", raw, err)
	}

	err = client.RetrieveArchive(context.Background(), "9ZZZ", filepath.Join(t.TempDir(), "9ZZZ.zip"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing archive, got %v", err)
	}
}

func TestRetrieveArchiveFromPredictionDirectory(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "v1", "2s", "2SRC", "public", "prankweb.zip")
	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(source, []byte("local-zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	client, err := prankweb.New("https://unused.example", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dest := filepath.Join(t.TempDir(), "2SRC.zip")
	if err := client.RetrieveArchive(context.Background(), "2src", dest); err != nil {
		t.Fatalf("RetrieveArchive: %v", err)
	}
	raw, err := os.ReadFile(dest)
	if err != nil || string(raw) != "local-zip" {
		t.Fatalf("copied archive = %q, %v", raw, err)
	}

	err = client.RetrieveArchive(context.Background(), "1ABC", filepath.Join(t.TempDir(), "1ABC.zip"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing local archive, got %v", err)
	}
}

func TestPredictionURLTemplate(t *testing.T) {
	client, err := prankweb.New("https://prankweb.cz/", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := "https://prankweb.cz/analyze?database=v1&code={pdb_id}"
	if got := client.PredictionURLTemplate(); got != want {
		t.Fatalf("PredictionURLTemplate = %q, want %q", got, want)
	}
}
