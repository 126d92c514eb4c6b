package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SinkTarget describes one downstream config document and which of its
// nested keys receive which computed path. Assign maps dotted key paths
// to a value source: "sfw_output", "nsfw_output" or "sfw_input".
type SinkTarget struct {
	Name   string            `yaml:"name"`
	Path   string            `yaml:"path"`
	Assign map[string]string `yaml:"assign"`
}

type sinkFile struct {
	Targets []SinkTarget `yaml:"targets"`
}

// LoadSinks loads the downstream target list from a YAML file. An empty
// path selects the built-in defaults.
func LoadSinks(path string) ([]SinkTarget, error) {
	if path == "" {
		return DefaultSinks(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sink targets: %w", err)
	}

	var sf sinkFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse sink targets: %w", err)
	}
	if len(sf.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}

	for _, t := range sf.Targets {
		if t.Name == "" || t.Path == "" || len(t.Assign) == 0 {
			return nil, fmt.Errorf("sink target needs name, path and assign")
		}
	}

	return sf.Targets, nil
}

// DefaultSinks returns the three posting-API configs this tool has always
// updated.
func DefaultSinks() []SinkTarget {
	return []SinkTarget{
		{
			Name: "telegram-api",
			Path: "/home/pocahontas/git/apis/telegram-api/config.json",
			Assign: map[string]string{
				"media.sfw_file":  "sfw_output",
				"media.nsfw_file": "nsfw_output",
			},
		},
		{
			Name: "x-api",
			Path: "/home/pocahontas/git/apis/x-api/config.json",
			Assign: map[string]string{
				"media.sfw_file":  "sfw_output",
				"media.nsfw_file": "nsfw_output",
			},
		},
		{
			Name: "fanvue-api",
			Path: "/home/pocahontas/git/apis/fanvue-api/config.json",
			Assign: map[string]string{
				"post_preview.preview_image": "sfw_input",
			},
		},
	}
}
