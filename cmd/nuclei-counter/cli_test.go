package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile writes a 100×100 PNG with four bright disks.
func createTestImageFile(t *testing.T) string {
	t.Helper()

	centres := []image.Point{{25, 25}, {25, 75}, {75, 25}, {75, 75}}
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(30)
			for _, p := range centres {
				dx, dy := x-p.X, y-p.Y
				if dx*dx+dy*dy <= 64 {
					v = 200
				}
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	path := filepath.Join(t.TempDir(), "cells.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMethodsCommand(t *testing.T) {
	out, err := execute(t, "methods")
	if err != nil {
		t.Fatalf("methods failed: %v", err)
	}
	for _, want := range []string{"otsu", "Otsu + Watershed", "circles", "#FFFF00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
}

func TestCountCommand(t *testing.T) {
	path := createTestImageFile(t)
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "results.json")
	overlayDir := filepath.Join(dir, "overlays")

	out, err := execute(t, "count", path, "--export", exportPath, "--overlays", overlayDir, "--log-level", "off")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}

	for _, want := range []string{"cells.png (100x100)", "Simple Thresholding", "Mean 4.0", "StdDev 0.00", "(4 succeeded, 0 failed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc["image_analyzed"] != "cells.png" {
		t.Errorf("image_analyzed: got %v", doc["image_analyzed"])
	}

	for _, id := range []string{"otsu", "fixed", "circles", "adaptive"} {
		if _, err := os.Stat(filepath.Join(overlayDir, id+".png")); err != nil {
			t.Errorf("overlay for %s: %v", id, err)
		}
	}
}

func TestCountCommand_Methods(t *testing.T) {
	out, err := execute(t, "count", createTestImageFile(t), "--methods", "adaptive,otsu", "--timeout", "10s")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if strings.Contains(out, "Simple Thresholding") {
		t.Errorf("unselected method in output:\n%s", out)
	}
	if strings.Index(out, "otsu") > strings.Index(out, "adaptive") {
		t.Errorf("results should follow configured order:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	path := createTestImageFile(t)
	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("workers: -1\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing image argument", []string{"count"}, "accepts 1 arg"},
		{"missing image file", []string{"count", filepath.Join(t.TempDir(), "none.png")}, "failed to open image"},
		{"unknown method", []string{"count", path, "--methods", "watershed"}, "unknown method"},
		{"missing config", []string{"methods", "--config", filepath.Join(t.TempDir(), "none.yaml")}, "failed to read config file"},
		{"invalid config", []string{"methods", "--config", badConfig}, "workers must not be negative"},
		{"invalid log level", []string{"methods", "--log-level", "loud"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output: %s", out)
	}
}
