package sinks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"postprep/config"
)

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return doc
}

func TestUpdateMediaKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeJSON(t, path, `{"token": "abc", "media": {"sfw_file": "old", "nsfw_file": "old"}}`)

	target := config.SinkTarget{
		Name: "telegram-api",
		Path: path,
		Assign: map[string]string{
			"media.sfw_file":  "sfw_output",
			"media.nsfw_file": "nsfw_output",
		},
	}
	vals := Values{
		SFWOutput:  "/srv/studio/out/cover_text.png",
		NSFWOutput: "/srv/studio/out/cover_blurred.png",
	}

	if err := Update(target, vals); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc := readJSON(t, path)
	media := doc["media"].(map[string]interface{})
	if media["sfw_file"] != vals.SFWOutput {
		t.Errorf("sfw_file = %v", media["sfw_file"])
	}
	if media["nsfw_file"] != vals.NSFWOutput {
		t.Errorf("nsfw_file = %v", media["nsfw_file"])
	}
	// Unrelated keys survive the rewrite
	if doc["token"] != "abc" {
		t.Errorf("token = %v", doc["token"])
	}
}

func TestUpdatePreviewUsesInputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeJSON(t, path, `{"post_preview": {"preview_image": "old.png"}}`)

	target := config.SinkTarget{
		Name:   "fanvue-api",
		Path:   path,
		Assign: map[string]string{"post_preview.preview_image": "sfw_input"},
	}
	vals := Values{SFWInput: "SFW/cover.png", SFWOutput: "/srv/out/cover_text.png"}

	if err := Update(target, vals); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc := readJSON(t, path)
	preview := doc["post_preview"].(map[string]interface{})
	if preview["preview_image"] != "SFW/cover.png" {
		t.Errorf("preview_image = %v, want the sfw input path", preview["preview_image"])
	}
}

func TestUpdateSkipsEmptyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeJSON(t, path, `{"media": {"sfw_file": "keep", "nsfw_file": "keep"}}`)

	target := config.SinkTarget{
		Name: "x-api",
		Path: path,
		Assign: map[string]string{
			"media.sfw_file":  "sfw_output",
			"media.nsfw_file": "nsfw_output",
		},
	}
	// NSFW variant absent this run
	vals := Values{SFWOutput: "/srv/out/a.png"}

	if err := Update(target, vals); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc := readJSON(t, path)
	media := doc["media"].(map[string]interface{})
	if media["sfw_file"] != "/srv/out/a.png" {
		t.Errorf("sfw_file = %v", media["sfw_file"])
	}
	if media["nsfw_file"] != "keep" {
		t.Errorf("nsfw_file should be untouched, got %v", media["nsfw_file"])
	}
}

func TestUpdateErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
		target  config.SinkTarget
	}{
		{
			name:    "missing section",
			content: `{"other": {}}`,
			target: config.SinkTarget{
				Name:   "t",
				Assign: map[string]string{"media.sfw_file": "sfw_output"},
			},
		},
		{
			name:    "section not an object",
			content: `{"media": "oops"}`,
			target: config.SinkTarget{
				Name:   "t",
				Assign: map[string]string{"media.sfw_file": "sfw_output"},
			},
		},
		{
			name:    "unknown value source",
			content: `{"media": {}}`,
			target: config.SinkTarget{
				Name:   "t",
				Assign: map[string]string{"media.sfw_file": "bogus"},
			},
		},
		{
			name:    "malformed document",
			content: `{`,
			target: config.SinkTarget{
				Name:   "t",
				Assign: map[string]string{"media.sfw_file": "sfw_output"},
			},
		},
	}

	vals := Values{SFWOutput: "/srv/out/a.png"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".json")
			writeJSON(t, path, tt.content)
			tt.target.Path = path
			if err := Update(tt.target, vals); err == nil {
				t.Error("Update should have failed")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		target := config.SinkTarget{
			Name:   "t",
			Path:   filepath.Join(tmpDir, "does-not-exist.json"),
			Assign: map[string]string{"media.sfw_file": "sfw_output"},
		}
		if err := Update(target, vals); err == nil {
			t.Error("Update should have failed")
		}
	})
}

// One broken target must not prevent the remaining updates.
func TestUpdateAllIndependent(t *testing.T) {
	tmpDir := t.TempDir()

	good1 := filepath.Join(tmpDir, "telegram.json")
	good2 := filepath.Join(tmpDir, "fanvue.json")
	writeJSON(t, good1, `{"media": {"sfw_file": "old", "nsfw_file": "old"}}`)
	writeJSON(t, good2, `{"post_preview": {"preview_image": "old"}}`)

	targets := []config.SinkTarget{
		{
			Name:   "telegram-api",
			Path:   good1,
			Assign: map[string]string{"media.sfw_file": "sfw_output"},
		},
		{
			Name:   "x-api",
			Path:   filepath.Join(tmpDir, "missing.json"),
			Assign: map[string]string{"media.sfw_file": "sfw_output"},
		},
		{
			Name:   "fanvue-api",
			Path:   good2,
			Assign: map[string]string{"post_preview.preview_image": "sfw_input"},
		},
	}

	vals := Values{SFWOutput: "/srv/out/a.png", SFWInput: "SFW/a.png"}
	if updated := UpdateAll(targets, vals); updated != 2 {
		t.Errorf("Expected 2 successful updates, got %d", updated)
	}

	doc := readJSON(t, good2)
	preview := doc["post_preview"].(map[string]interface{})
	if preview["preview_image"] != "SFW/a.png" {
		t.Error("Target after the failing one was not updated")
	}
}
