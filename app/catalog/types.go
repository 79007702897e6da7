package catalog

import "context"

// FileRef points at one definition file in a catalog directory.
type FileRef struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
	Type        string `json:"type"`
}

// File is a fetched definition. Link is the human-facing location of the
// source, Local is set for files read from disk.
type File struct {
	Name  string
	Text  string
	Link  string
	Local bool
}

type Source interface {
	ListDirectory(ctx context.Context, dir string) ([]FileRef, error)
	FetchFile(ctx context.Context, ref FileRef) (*File, error)
}
