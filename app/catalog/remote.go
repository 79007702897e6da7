package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lysyi3m/page-comb/app/fetcher"
)

var _ Source = (*RemoteSource)(nil)

// RemoteSource reads a catalog repository through a GitHub style contents API.
type RemoteSource struct {
	fetcher *fetcher.Fetcher
	apiURL  string
	user    string
	repo    string
}

func NewRemoteSource(f *fetcher.Fetcher, apiURL, user, repo string) *RemoteSource {
	return &RemoteSource{
		fetcher: f,
		apiURL:  strings.TrimRight(apiURL, "/"),
		user:    user,
		repo:    repo,
	}
}

func (s *RemoteSource) ListDirectory(ctx context.Context, dir string) ([]FileRef, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.apiURL, url.PathEscape(s.user), url.PathEscape(s.repo), strings.Trim(dir, "/"))

	var entries []FileRef
	if err := s.fetcher.GetJSON(ctx, listURL, &entries); err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	refs := make([]FileRef, 0, len(entries))
	for _, entry := range entries {
		if entry.DownloadURL == "" {
			slog.Debug("Skipping catalog entry without download URL", "dir", dir, "name", entry.Name, "type", entry.Type)
			continue
		}
		refs = append(refs, entry)
	}

	slog.Debug("Catalog directory listed", "dir", dir, "files", len(refs))

	return refs, nil
}

func (s *RemoteSource) FetchFile(ctx context.Context, ref FileRef) (*File, error) {
	page, err := s.fetcher.Get(ctx, ref.DownloadURL, "")
	if err != nil {
		return nil, err
	}

	return &File{
		Name: ref.Name,
		Text: page.Text,
		Link: ref.HTMLURL,
	}, nil
}
