package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/jadenpxrk/arbor/internal/filter"
	"github.com/jadenpxrk/arbor/internal/render"
	"github.com/jadenpxrk/arbor/internal/walker"
)

// pickerDepth bounds how far below the current directory candidates are
// collected for the interactive picker.
const pickerDepth = 4

// pickerCandidates lists the directories below base that the picker offers,
// base itself first, as paths relative to base.
func pickerCandidates(base string, showHidden bool) ([]*walker.TreeEntry, []string, error) {
	w, err := walker.New(base, filter.Options{OnlyDirs: true, ShowHidden: showHidden, MaxDepth: pickerDepth}, walker.Config{})
	if err != nil {
		return nil, nil, err
	}
	entries, err := w.Walk()
	if err != nil {
		return nil, nil, err
	}

	var dirs []*walker.TreeEntry
	var labels []string
	for _, root := range entries {
		root.Walk(func(e *walker.TreeEntry) {
			rel, err := filepath.Rel(w.Root(), e.Path)
			if err != nil {
				return
			}
			dirs = append(dirs, e)
			labels = append(labels, rel)
		})
	}
	return dirs, labels, nil
}

// runInteractiveFinder lets the user fuzzy-pick the directory to display.
// It returns "" when the user aborts.
func runInteractiveFinder(showHidden bool) (string, error) {
	dirs, labels, err := pickerCandidates(".", showHidden)
	if err != nil {
		return "", fmt.Errorf("error scanning for directories: %w", err)
	}
	if len(dirs) == 0 {
		return "", errors.New("no directories found to select from")
	}

	idx, err := fuzzyfinder.Find(
		labels,
		func(i int) string { return labels[i] },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select the directory to display. Press Enter to confirm."
			}
			var preview strings.Builder
			opts := render.FormatOptions{Unicode: true, RootLabel: labels[i]}
			_ = render.WriteTree(&preview, []*walker.TreeEntry{dirs[i]}, opts)
			return preview.String()
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", fmt.Errorf("fuzzy finder error: %w", err)
	}
	return dirs[idx].Path, nil
}
