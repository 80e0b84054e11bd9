// Package export writes run results in the interchange formats consumed
// outside the counter: a JSON document of per-method counts and timings, and
// one PNG overlay per method.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sahibnoorsingh009/nuclei-counter/internal/imaging"
	"github.com/sahibnoorsingh009/nuclei-counter/internal/pipeline"
)

// Status values of a method entry.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Document is the exported record of one run.
type Document struct {
	Timestamp     string                 `json:"timestamp"`
	ImageAnalyzed string                 `json:"image_analyzed"`
	Results       map[string]MethodEntry `json:"results"`
	Summary       *pipeline.Summary      `json:"summary,omitempty"`
}

// MethodEntry is the exported outcome of one method. Entries are keyed by
// the method's display name.
type MethodEntry struct {
	Method           string  `json:"method"`
	NucleiCount      int     `json:"nuclei_count"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
	Status           string  `json:"status"`
	Error            string  `json:"error,omitempty"`
}

// NewDocument builds the export document for rs. The image name is recorded
// as given; callers pass the base name of the analysed file.
func NewDocument(imageName string, rs *pipeline.ResultSet, now time.Time) *Document {
	doc := &Document{
		Timestamp:     now.UTC().Format(time.RFC3339),
		ImageAnalyzed: imageName,
		Results:       make(map[string]MethodEntry, len(rs.Results)),
	}
	for _, r := range rs.Results {
		entry := MethodEntry{
			Method:           r.Method,
			NucleiCount:      r.Count,
			ProcessingTimeMS: float64(r.Elapsed.Microseconds()) / 1000,
			Status:           StatusSuccess,
		}
		if !r.Succeeded() {
			entry.NucleiCount = 0
			entry.Status = StatusError
			entry.Error = r.Err
		}
		doc.Results[r.Name] = entry
	}
	if len(rs.Results) > 0 {
		s := rs.Summary()
		doc.Summary = &s
	}
	return doc
}

// WriteJSON writes the document to w as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// WriteFile writes the document to path, replacing any existing file.
func (d *Document) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()
	return d.WriteJSON(f)
}

// SaveOverlays writes the overlay of every succeeded method to
// dir/<method>.png, creating dir if needed. It returns the written paths in
// result order.
func SaveOverlays(dir string, rs *pipeline.ResultSet) ([]string, error) {
	if dir == "" {
		return nil, errors.New("overlay directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create overlay directory: %w", err)
	}

	var paths []string
	for _, r := range rs.Results {
		if r.Overlay == nil {
			continue
		}
		path := filepath.Join(dir, r.Method+".png")
		if err := imaging.Save(r.Overlay, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
