package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/page-comb/app/fetcher"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/repos/octo/plugins/contents/parsers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[
			{"name": "example.yml", "type": "file", "download_url": "%[1]s/raw/example.yml", "html_url": "https://github.com/octo/plugins/blob/main/parsers/example.yml"},
			{"name": "nested", "type": "dir", "download_url": null, "html_url": "https://github.com/octo/plugins/tree/main/parsers/nested"},
			{"name": "broken.yml", "type": "file", "download_url": "%[1]s/raw/broken.yml", "html_url": "https://github.com/octo/plugins/blob/main/parsers/broken.yml"}
		]`, server.URL)
	})
	mux.HandleFunc("/raw/example.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=windows-1252")
		w.Write([]byte("name: Caf\xe9"))
	})
	mux.HandleFunc("/raw/broken.yml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRemoteSourceListDirectory(t *testing.T) {
	server := newCatalogServer(t)
	source := NewRemoteSource(fetcher.NewFetcher(server.Client(), "Test Agent"), server.URL+"/", "octo", "plugins")

	refs, err := source.ListDirectory(context.Background(), "parsers")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("Expected 2 file refs (directory skipped), got %d", len(refs))
	}
	if refs[0].Name != "example.yml" || refs[1].Name != "broken.yml" {
		t.Errorf("Expected listing order to be preserved, got %s, %s", refs[0].Name, refs[1].Name)
	}
}

func TestRemoteSourceListDirectoryMissing(t *testing.T) {
	server := newCatalogServer(t)
	source := NewRemoteSource(fetcher.NewFetcher(server.Client(), "Test Agent"), server.URL, "octo", "plugins")

	_, err := source.ListDirectory(context.Background(), "templates")
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}

	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected wrapped FetchError, got %v", err)
	}
}

func TestRemoteSourceFetchFile(t *testing.T) {
	server := newCatalogServer(t)
	source := NewRemoteSource(fetcher.NewFetcher(server.Client(), "Test Agent"), server.URL, "octo", "plugins")

	refs, err := source.ListDirectory(context.Background(), "parsers")
	if err != nil {
		t.Fatal(err)
	}

	file, err := source.FetchFile(context.Background(), refs[0])
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if file.Text != "name: Café" {
		t.Errorf("Expected decoded text 'name: Café', got '%s'", file.Text)
	}
	if file.Link != "https://github.com/octo/plugins/blob/main/parsers/example.yml" {
		t.Errorf("Expected html_url as link, got '%s'", file.Link)
	}
	if file.Local {
		t.Error("Expected remote file not to be marked local")
	}

	if _, err := source.FetchFile(context.Background(), refs[1]); err == nil {
		t.Error("Expected error for failing download")
	}
}
