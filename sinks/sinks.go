package sinks

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"postprep/config"
)

// Values holds the computed paths a sink target can reference.
type Values struct {
	SFWOutput  string
	NSFWOutput string
	SFWInput   string
}

// resolve maps an assign source name to its value. An empty value means
// the variant was not part of this run and the key is skipped.
func (v Values) resolve(source string) (string, error) {
	switch source {
	case "sfw_output":
		return v.SFWOutput, nil
	case "nsfw_output":
		return v.NSFWOutput, nil
	case "sfw_input":
		return v.SFWInput, nil
	default:
		return "", fmt.Errorf("unknown value source %q", source)
	}
}

// UpdateAll applies every target independently. A failure on one target is
// logged and never prevents the remaining updates. Returns the number of
// targets updated.
func UpdateAll(targets []config.SinkTarget, vals Values) int {
	updated := 0
	for _, t := range targets {
		if err := Update(t, vals); err != nil {
			log.Printf("⚠ Failed to update %s config: %v", t.Name, err)
			continue
		}
		log.Printf("✓ Updated %s config: %s", t.Name, t.Path)
		updated++
	}
	return updated
}

// Update rewrites one downstream JSON document in place, setting each
// assigned nested key to its computed value.
func Update(t config.SinkTarget, vals Values) error {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return fmt.Errorf("failed to read: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	changed := false
	for keyPath, source := range t.Assign {
		value, err := vals.resolve(source)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := setNested(doc, strings.Split(keyPath, "."), value); err != nil {
			return fmt.Errorf("key %s: %w", keyPath, err)
		}
		changed = true
	}
	if !changed {
		return nil
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	out = append(out, '\n')

	if err := os.WriteFile(t.Path, out, 0644); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}

// setNested walks the dotted key path and sets the final key. Intermediate
// keys must already exist as objects; these documents belong to other
// programs and missing sections are their schema's business, not ours.
func setNested(doc map[string]interface{}, path []string, value string) error {
	current := doc
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return fmt.Errorf("missing section %q", key)
		}
		obj, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("section %q is not an object", key)
		}
		current = obj
	}
	current[path[len(path)-1]] = value
	return nil
}
