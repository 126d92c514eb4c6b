package prompts

import (
	"log"
	"os"
	"regexp"
	"strings"

	"postprep/media"
)

// countPattern matches an existing "(n image)" / "(n images)" marker.
var countPattern = regexp.MustCompile(`\(\d+ images?\)`)

// annotationPattern additionally swallows the whitespace in front of the
// marker so re-insertion does not accumulate spaces.
var annotationPattern = regexp.MustCompile(`\s*\(\d+ images?\)`)

// PatchPromptFile replaces every "(n image(s))" marker in a prompt file
// with the current count. Missing or unwritable files are warnings only;
// prompt patching must never abort the render pipeline.
func PatchPromptFile(path string, n int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠ Prompt file not updated (%s): %v", path, err)
		return
	}

	updated := countPattern.ReplaceAll(data, []byte(media.CountLabel(n)))

	if err := os.WriteFile(path, updated, 0644); err != nil {
		log.Printf("⚠ Failed to write prompt file %s: %v", path, err)
		return
	}
	log.Printf("✓ Updated prompt file: %s", path)
}

// PatchPlatformCounts refreshes the image-count annotation after each
// platform token in the shared social media file. Each platform is patched
// independently; failures are warnings only.
func PatchPlatformCounts(path string, platforms []string, n int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠ Social media file not updated (%s): %v", path, err)
		return
	}

	text := string(data)
	for _, platform := range platforms {
		text = patchPlatform(text, platform, n)
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		log.Printf("⚠ Failed to write social media file %s: %v", path, err)
		return
	}
	log.Printf("✓ Updated social media file: %s", path)
}

// patchPlatform strips any existing annotation between the platform token
// and the first trailing '!' or '&', then inserts the fresh count right
// before that punctuation. Text without the token, or without trailing
// punctuation after it, is left untouched.
func patchPlatform(text, platform string, n int) string {
	idx := strings.Index(text, platform)
	if idx < 0 {
		return text
	}
	start := idx + len(platform)

	punct := strings.IndexAny(text[start:], "!&")
	if punct < 0 {
		return text
	}

	segment := annotationPattern.ReplaceAllString(text[start:start+punct], "")
	return text[:start] + segment + " " + media.CountLabel(n) + text[start+punct:]
}
