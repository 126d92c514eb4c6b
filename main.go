package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"postprep/config"
	"postprep/media"
	"postprep/notify"
	"postprep/overlay"
	"postprep/prompts"
	"postprep/sinks"
	"postprep/watcher"
)

// Platform tokens whose image-count annotation is refreshed in the shared
// social media file.
var platforms = []string{"Patreon", "Fanvue"}

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	watch := flag.Bool("watch", false, "Re-run the pipeline when the config or input images change")
	sinksFile := flag.String("sinks", os.Getenv("OVERLAY_SINKS"), "YAML file listing downstream config targets")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: postprep [-watch] [-sinks targets.yaml] <config.json>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	configPath := flag.Arg(0)

	if *watch {
		runWatch(configPath, *sinksFile)
		return
	}

	if err := run(configPath, *sinksFile); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run executes the whole pipeline once: count images, patch prompts,
// render both variants, update downstream configs, notify.
func run(configPath, sinksFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	targets, err := config.LoadSinks(sinksFile)
	if err != nil {
		log.Printf("⚠ Failed to load sink targets: %v. Using built-in defaults.", err)
		targets = config.DefaultSinks()
	}

	count := media.CountImages(filepath.Join(cfg.ProjectFolder, cfg.CountFolder))
	log.Printf("Found %d image(s) in %s", count, cfg.CountFolder)

	// Prompt patching is best-effort and never blocks rendering.
	prompts.PatchPromptFile(filepath.Join(cfg.PromptsDir(), cfg.Prompts.SFWFile), count)
	prompts.PatchPromptFile(filepath.Join(cfg.PromptsDir(), cfg.Prompts.NSFWFile), count)
	prompts.PatchPlatformCounts(filepath.Join(cfg.PromptsDir(), cfg.Prompts.SocialFile), platforms, count)

	var vals sinks.Values
	var outputs []string

	if cfg.SFW != nil {
		log.Printf("Processing SFW image...")
		if err := renderVariant(cfg, cfg.SFW, count); err != nil {
			return err
		}
		vals.SFWOutput = cfg.OutputPath(cfg.SFW)
		vals.SFWInput = cfg.SFW.InputImage
		outputs = append(outputs, vals.SFWOutput)
	}

	if cfg.NSFW != nil {
		log.Printf("Processing NSFW image...")
		if err := renderVariant(cfg, cfg.NSFW, count); err != nil {
			return err
		}
		vals.NSFWOutput = cfg.OutputPath(cfg.NSFW)
		outputs = append(outputs, vals.NSFWOutput)
	}

	log.Printf("✅ All images processed")

	sinks.UpdateAll(targets, vals)

	sender := notify.NewNtfySender(cfg.Ntfy)
	if err := sender.SendRunComplete(outputs); err != nil {
		log.Printf("⚠ Failed to send notification: %v", err)
	}

	return nil
}

// renderVariant maps one config variant onto a render call. The configured
// placement is honored for both variants, blurred or not.
func renderVariant(cfg *config.Config, v *config.Variant, count int) error {
	fg, err := overlay.ParseHexColor(v.Color)
	if err != nil {
		log.Printf("⚠ Invalid color %q, falling back to white", v.Color)
		fg = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	opts := overlay.Options{
		InputPath:       cfg.InputPath(v),
		OutputPath:      cfg.OutputPath(v),
		Text:            v.Text,
		FontPath:        cfg.FontPath,
		FontSizePercent: v.FontSizePercent,
		Color:           fg,
		Placement:       overlay.Placement(v.Position),
		Blur:            v.BlurEnabled(),
		BlurRadius:      v.BlurRadiusValue(),
		ShowCount:       v.ShowImageCount,
		Count:           count,
	}

	if err := overlay.Render(opts); err != nil {
		return err
	}
	log.Printf("✓ Created: %s", opts.OutputPath)
	return nil
}

// runWatch keeps the process alive and re-runs the pipeline whenever the
// config file or a variant input image changes. Pipeline failures are
// logged, not fatal; the watcher keeps going.
func runWatch(configPath, sinksFile string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	w, err := watcher.New(func() {
		if err := run(configPath, sinksFile); err != nil {
			log.Printf("Pipeline failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if err := w.Add(configPath); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if cfg.SFW != nil {
		if err := w.Add(cfg.InputPath(cfg.SFW)); err != nil {
			log.Printf("⚠ %v", err)
		}
	}
	if cfg.NSFW != nil {
		if err := w.Add(cfg.InputPath(cfg.NSFW)); err != nil {
			log.Printf("⚠ %v", err)
		}
	}

	w.Start()

	// Initial run before waiting for changes
	if err := run(configPath, sinksFile); err != nil {
		log.Printf("Pipeline failed: %v", err)
	}

	log.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	w.Stop()
}
