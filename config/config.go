package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied when optional fields are absent from the config file.
const (
	DefaultFontPath        = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	DefaultFontSizePercent = 5
	DefaultColor           = "#FFFFFF"
	DefaultPosition        = "bottom"
	DefaultBlurRadius      = 15
	DefaultCountFolder     = "NSFW"
)

// Default prompt file names under the Prompts subfolder.
const (
	DefaultSFWPromptFile  = "sfw_prompt.txt"
	DefaultNSFWPromptFile = "nsfw_prompt.txt"
	DefaultSocialFile     = "social_media.txt"
)

// Config represents the pipeline configuration
type Config struct {
	ProjectFolder string      `json:"project_folder"`
	FontPath      string      `json:"font_path"`
	CountFolder   string      `json:"count_folder"`
	SFW           *Variant    `json:"sfw"`
	NSFW          *Variant    `json:"nsfw"`
	Prompts       PromptFiles `json:"prompts"`
	Ntfy          NtfyConfig  `json:"ntfy"`
}

// Variant describes one render target (safe or restricted)
type Variant struct {
	InputImage      string  `json:"input_image"`
	OutputImage     string  `json:"output_image"`
	Text            string  `json:"text"`
	FontSizePercent float64 `json:"font_size_percent"`
	Color           string  `json:"color"`
	Position        string  `json:"position"`
	Blur            *bool   `json:"blur"`
	BlurRadius      *int    `json:"blur_radius"`
	ShowImageCount  bool    `json:"show_image_count"`
}

// PromptFiles names the text files patched under the Prompts subfolder
type PromptFiles struct {
	SFWFile    string `json:"sfw_file"`
	NSFWFile   string `json:"nsfw_file"`
	SocialFile string `json:"social_file"`
}

// NtfyConfig controls the optional completion notification
type NtfyConfig struct {
	Enabled bool   `json:"enabled"`
	Server  string `json:"server"`
	Topic   string `json:"topic"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expanded, err := expandHome(cfg.ProjectFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to expand project folder: %w", err)
	}
	cfg.ProjectFolder = expanded

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in optional fields. The restricted variant defaults
// to blurred, the safe one does not.
func (c *Config) applyDefaults() {
	if c.FontPath == "" {
		if env := os.Getenv("OVERLAY_FONT"); env != "" {
			c.FontPath = env
		} else {
			c.FontPath = DefaultFontPath
		}
	}
	if c.CountFolder == "" {
		c.CountFolder = DefaultCountFolder
	}
	if c.Prompts.SFWFile == "" {
		c.Prompts.SFWFile = DefaultSFWPromptFile
	}
	if c.Prompts.NSFWFile == "" {
		c.Prompts.NSFWFile = DefaultNSFWPromptFile
	}
	if c.Prompts.SocialFile == "" {
		c.Prompts.SocialFile = DefaultSocialFile
	}

	if c.SFW != nil {
		c.SFW.applyDefaults(false)
	}
	if c.NSFW != nil {
		c.NSFW.applyDefaults(true)
	}
}

func (v *Variant) applyDefaults(restricted bool) {
	if v.FontSizePercent == 0 {
		v.FontSizePercent = DefaultFontSizePercent
	}
	if v.Color == "" {
		v.Color = DefaultColor
	}
	if v.Position == "" {
		v.Position = DefaultPosition
	}
	if v.Blur == nil {
		b := restricted
		v.Blur = &b
	}
	if v.BlurRadius == nil {
		r := DefaultBlurRadius
		v.BlurRadius = &r
	}
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.ProjectFolder == "" {
		return fmt.Errorf("project_folder is required")
	}
	if c.SFW == nil && c.NSFW == nil {
		return fmt.Errorf("at least one of sfw/nsfw is expected")
	}
	if c.SFW != nil {
		if err := c.SFW.validate(); err != nil {
			return fmt.Errorf("sfw: %w", err)
		}
	}
	if c.NSFW != nil {
		if err := c.NSFW.validate(); err != nil {
			return fmt.Errorf("nsfw: %w", err)
		}
	}
	return nil
}

func (v *Variant) validate() error {
	if v.InputImage == "" {
		return fmt.Errorf("input_image is required")
	}
	if v.OutputImage == "" {
		return fmt.Errorf("output_image is required")
	}
	if v.Text == "" {
		return fmt.Errorf("text is required")
	}
	switch v.Position {
	case "top", "bottom", "center":
	default:
		return fmt.Errorf("invalid position: %s", v.Position)
	}
	return nil
}

// BlurEnabled reports whether the variant should be blurred before drawing
func (v *Variant) BlurEnabled() bool {
	return v.Blur != nil && *v.Blur
}

// BlurRadiusValue returns the blur radius, defaulting when unset. An
// explicit zero is honored and distinct from an absent field.
func (v *Variant) BlurRadiusValue() int {
	if v.BlurRadius == nil {
		return DefaultBlurRadius
	}
	return *v.BlurRadius
}

// InputPath returns the full path to the variant's source image
func (c *Config) InputPath(v *Variant) string {
	return filepath.Join(c.ProjectFolder, v.InputImage)
}

// OutputPath returns the full path the rendered image is written to
func (c *Config) OutputPath(v *Variant) string {
	return filepath.Join(c.ProjectFolder, v.OutputImage)
}

// PromptsDir returns the folder holding the patchable prompt files
func (c *Config) PromptsDir() string {
	return filepath.Join(c.ProjectFolder, "Prompts")
}

// expandHome resolves a leading ~ to the user's home directory
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
