package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lysyi3m/page-comb/app/catalog"
)

type fakeFile struct {
	name string
	text string
	err  error
}

// fakeSource serves directories from memory. When gate is set every
// ListDirectory call signals started and blocks until gate is closed.
type fakeSource struct {
	mu        sync.Mutex
	dirs      map[string][]fakeFile
	listErrs  map[string]error
	listCalls atomic.Int32
	gate      chan struct{}
	started   chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		dirs:     make(map[string][]fakeFile),
		listErrs: make(map[string]error),
	}
}

func (s *fakeSource) set(dir string, files ...fakeFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dir] = files
}

func (s *fakeSource) failListing(dir string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErrs[dir] = err
}

func (s *fakeSource) ListDirectory(ctx context.Context, dir string) ([]catalog.FileRef, error) {
	s.listCalls.Add(1)

	if s.gate != nil {
		s.started <- struct{}{}
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.listErrs[dir]; err != nil {
		return nil, err
	}

	var refs []catalog.FileRef
	for _, f := range s.dirs[dir] {
		refs = append(refs, catalog.FileRef{
			Name:        f.name,
			DownloadURL: dir + "/" + f.name,
			HTMLURL:     "https://github.com/octo/plugins/blob/main/" + dir + "/" + f.name,
		})
	}
	return refs, nil
}

func (s *fakeSource) FetchFile(ctx context.Context, ref catalog.FileRef) (*catalog.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for dir, files := range s.dirs {
		for _, f := range files {
			if dir+"/"+f.name != ref.DownloadURL {
				continue
			}
			if f.err != nil {
				return nil, f.err
			}
			return &catalog.File{Name: f.name, Text: f.text, Link: ref.HTMLURL}, nil
		}
	}
	return nil, fmt.Errorf("file %s not found", ref.DownloadURL)
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *fakeRecorder) RecordRefresh(ctx context.Context, attempt Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func parserFile(name, pattern string) fakeFile {
	return fakeFile{
		name: name + ".yml",
		text: fmt.Sprintf("name: %s\nmatch: '%s'\nfields:\n  title: h1\n", name, pattern),
	}
}

func templateFile(name string) fakeFile {
	return fakeFile{
		name: name + ".html",
		text: fmt.Sprintf("---\nname: '%s'\n---\n<h1>{{ .title }}</h1>", name),
	}
}
