package registry

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/page-comb/app/catalog"
)

type batch[T Entry] struct {
	entries  []T
	failures []error
}

type result[T Entry] struct {
	entry T
	err   error
}

// loadDirectory lists dir and builds every file concurrently. Only the
// listing itself can fail the call; per-file failures are collected.
func loadDirectory[T Entry](ctx context.Context, source catalog.Source, dir, kind string, limit int,
	build func(*catalog.File) (T, error)) (batch[T], error) {
	refs, err := source.ListDirectory(ctx, dir)
	if err != nil {
		return batch[T]{}, fmt.Errorf("failed to list %s directory %s: %w", kind, dir, err)
	}

	results := make([]result[T], len(refs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = loadEntry(ctx, source, ref, kind, build)
			return nil
		})
	}
	_ = g.Wait()

	var b batch[T]
	for _, res := range results {
		if res.err != nil {
			b.failures = append(b.failures, res.err)
			continue
		}
		b.entries = append(b.entries, res.entry)
	}

	return b, nil
}

func loadEntry[T Entry](ctx context.Context, source catalog.Source, ref catalog.FileRef, kind string,
	build func(*catalog.File) (T, error)) (res result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = result[T]{err: &EntryError{Kind: kind, File: ref.Name, Err: fmt.Errorf("panic: %v", p)}}
		}
	}()

	file, err := source.FetchFile(ctx, ref)
	if err != nil {
		return result[T]{err: &EntryError{Kind: kind, File: ref.Name, Err: err}}
	}

	entry, err := build(file)
	if err != nil {
		return result[T]{err: &EntryError{Kind: kind, File: ref.Name, Err: err}}
	}

	return result[T]{entry: entry}
}
