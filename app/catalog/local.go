package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

var _ Source = (*LocalSource)(nil)

var definitionExtensions = []string{".yml", ".yaml", ".hbs", ".tmpl", ".html"}

// LocalSource reads catalog directories from disk. It serves development
// setups where plugins are edited next to the service.
type LocalSource struct {
	root string
}

func NewLocalSource(root string) *LocalSource {
	return &LocalSource{root: root}
}

func (s *LocalSource) ListDirectory(ctx context.Context, dir string) ([]FileRef, error) {
	dirPath := filepath.Join(s.root, dir)

	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}

	var refs []FileRef
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(definitionExtensions, filepath.Ext(entry.Name())) {
			continue
		}

		path := filepath.Join(dirPath, entry.Name())
		refs = append(refs, FileRef{
			Name:        entry.Name(),
			DownloadURL: path,
			HTMLURL:     path,
			Type:        "file",
		})
	}

	return refs, nil
}

func (s *LocalSource) FetchFile(ctx context.Context, ref FileRef) (*File, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(ref.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &File{
		Name:  ref.Name,
		Text:  string(data),
		Link:  ref.HTMLURL,
		Local: true,
	}, nil
}
