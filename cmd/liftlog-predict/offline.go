package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// history is an exercise's records read straight from an export file.
type history struct {
	Name    string
	Records []models.RecordHeader
}

func nameID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(strings.TrimSpace(name))))
}

// loadExport parses an Alpha Progression CSV export and groups its working
// sets by exercise. Weights are in kilograms.
func loadExport(r io.Reader) (map[uuid.UUID]*history, error) {
	sessions, err := alpha.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	names := make(map[uuid.UUID]string)
	resolve := func(name string) (uuid.UUID, error) {
		id := nameID(name)
		if _, ok := names[id]; !ok {
			names[id] = strings.TrimSpace(name)
		}
		return id, nil
	}
	records, _, err := alpha.ToRecords(sessions, resolve)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*history)
	for _, rec := range records {
		h, ok := out[rec.ExerciseID]
		if !ok {
			h = &history{Name: names[rec.ExerciseID]}
			out[rec.ExerciseID] = h
		}
		h.Records = append(h.Records, rec)
	}
	return out, nil
}

func loadExportFile(path string) (map[uuid.UUID]*history, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadExport(f)
}

// findHistory matches an exercise by exact name first, then by a unique
// case-insensitive substring.
func findHistory(all map[uuid.UUID]*history, query string) (*history, error) {
	if h, ok := all[nameID(query)]; ok {
		return h, nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []*history
	for _, h := range all {
		if strings.Contains(strings.ToLower(h.Name), q) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no exercise matching %q", query)
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, h := range matches {
		names[i] = h.Name
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
}

// sortedHistories returns all histories ordered by name.
func sortedHistories(all map[uuid.UUID]*history) []*history {
	out := make([]*history, 0, len(all))
	for _, h := range all {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
