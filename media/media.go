package media

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CountImages counts image files directly inside dir (non-recursive).
// A missing or unreadable folder yields 0 with a warning, never an error.
func CountImages(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("⚠ Cannot read image folder %s: %v", dir, err)
		return 0
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			count++
		}
	}
	return count
}

// CountLabel formats the image-count annotation with correct pluralization.
func CountLabel(n int) string {
	if n == 1 {
		return "(1 image)"
	}
	return fmt.Sprintf("(%d images)", n)
}
