package fileproc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
)

func TestForEachFileWithContextCollectsResults(t *testing.T) {
	files := []string{"a", "b", "c"}

	results, errs := ForEachFileWithContext(context.Background(), files, 2,
		func(path string) (string, error) {
			return path + "!", nil
		}, nil)

	if errs != nil {
		t.Fatalf("errs = %v, want nil", errs)
	}
	sort.Strings(results)
	want := []string{"a!", "b!", "c!"}
	for i, w := range want {
		if results[i] != w {
			t.Fatalf("results = %v, want %v", results, want)
		}
	}
}

func TestForEachFileWithContextEmptyInput(t *testing.T) {
	results, errs := ForEachFileWithContext(context.Background(), nil, 0,
		func(path string) (int, error) { return 0, nil }, nil)
	if results != nil || errs != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", results, errs)
	}
}

func TestForEachFileWithContextReportsProgress(t *testing.T) {
	files := []string{"ok1", "bad", "ok2"}
	var progress atomic.Int64

	results, errs := ForEachFileWithContext(context.Background(), files, 2,
		func(path string) (string, error) {
			if path == "bad" {
				return "", errors.New("boom")
			}
			return path, nil
		},
		func() { progress.Add(1) },
	)

	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
	// failed files still tick the progress bar
	if progress.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", progress.Load())
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Fatalf("errs = %v, want 1 entry", errs)
	}
	if errs.Errors[0].Path != "bad" {
		t.Errorf("error path = %q, want bad", errs.Errors[0].Path)
	}
}

func TestForEachFileWithContextIsolatesFailures(t *testing.T) {
	files := make([]string, 20)
	for i := range files {
		files[i] = fmt.Sprintf("file-%d", i)
	}

	results, errs := ForEachFileWithContext(context.Background(), files, 4,
		func(path string) (string, error) {
			if path == "file-7" || path == "file-13" {
				return "", errors.New("corrupt")
			}
			return path, nil
		}, nil)

	if len(results) != 18 {
		t.Errorf("got %d results, want 18", len(results))
	}
	if errs == nil || len(errs.Errors) != 2 {
		t.Fatalf("errs = %v, want 2 entries", errs)
	}
	if !errs.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestForEachFileWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("file-%d", i)
	}

	var processed atomic.Int64
	results, errs := ForEachFileWithContext(ctx, files, 2,
		func(path string) (string, error) {
			processed.Add(1)
			return path, nil
		}, nil)

	if len(results) != int(processed.Load()) {
		t.Errorf("results = %d, processed = %d", len(results), processed.Load())
	}
	if errs == nil || !errs.HasErrors() {
		t.Fatal("expected context errors to be collected")
	}
	for _, pe := range errs.Errors {
		if !errors.Is(pe.Err, context.Canceled) {
			t.Errorf("error for %s = %v, want context.Canceled", pe.Path, pe.Err)
		}
	}
}

func TestProcessingErrorsMessage(t *testing.T) {
	errs := &ProcessingErrors{}
	if errs.HasErrors() {
		t.Error("empty collection reports errors")
	}

	errs.Add("a.class", errors.New("bad magic"))
	if got := errs.Error(); got != "a.class: bad magic" {
		t.Errorf("Error() = %q", got)
	}

	errs.Add("b.class", errors.New("truncated"))
	if got := errs.Error(); got == "" {
		t.Error("Error() empty for multiple failures")
	}
}
