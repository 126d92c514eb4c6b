package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"postprep/media"
)

// Placement anchors the text block vertically.
type Placement string

const (
	PlacementTop    Placement = "top"
	PlacementBottom Placement = "bottom"
	PlacementCenter Placement = "center"
)

// Options describe a single render.
type Options struct {
	InputPath       string
	OutputPath      string
	Text            string
	FontPath        string
	FontSizePercent float64
	Color           color.RGBA
	Placement       Placement
	Blur            bool
	BlurRadius      int

	// ShowCount draws the "(n image(s))" annotation under the caption.
	ShowCount bool
	Count     int
}

// Render composes the caption (and optional count annotation) onto a copy
// of the input image and writes it to Options.OutputPath. The input file
// is never mutated.
func Render(opts Options) error {
	src, err := imaging.Open(opts.InputPath)
	if err != nil {
		return fmt.Errorf("failed to open input image %s: %w", opts.InputPath, err)
	}

	img := imaging.Clone(src)
	if opts.Blur && opts.BlurRadius > 0 {
		img = imaging.Blur(img, float64(opts.BlurRadius))
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	fontSize := int(math.Round(float64(height) * opts.FontSizePercent / 100))
	face := loadFace(opts.FontPath, fontSize)
	defer face.Close()

	captionW, captionH := measure(face, opts.Text)

	// Annotation line: secondary face at 60% of the caption size, separated
	// by a gap of 20% of the caption size.
	var (
		annotation string
		annFace    font.Face
		annW, annH int
		gap        int
	)
	if opts.ShowCount {
		annotation = media.CountLabel(opts.Count)
		annFace = loadFace(opts.FontPath, int(math.Round(float64(fontSize)*0.6)))
		defer annFace.Close()
		annW, annH = measure(annFace, annotation)
		gap = int(math.Round(float64(fontSize) * 0.2))
	}

	blockH := captionH
	if annotation != "" {
		blockH += gap + annH
	}

	y := BlockTop(opts.Placement, height, blockH)

	drawOutlined(img, face, opts.Text, CenterX(width, captionW), y, opts.Color)
	if annotation != "" {
		drawOutlined(img, annFace, annotation, CenterX(width, annW), y+captionH+gap, opts.Color)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := imaging.Save(img, opts.OutputPath); err != nil {
		return fmt.Errorf("failed to save %s: %w", opts.OutputPath, err)
	}

	return nil
}

// CenterX returns the x that horizontally centers a line of the given width.
func CenterX(imageWidth, textWidth int) int {
	return (imageWidth - textWidth) / 2
}

// BlockTop returns the y anchor for the text block. Bottom placement keeps
// a margin of a tenth of the image height under the block, top placement
// the same margin above it.
func BlockTop(p Placement, imageHeight, blockHeight int) int {
	switch p {
	case PlacementTop:
		return imageHeight / 10
	case PlacementCenter:
		return (imageHeight - blockHeight) / 2
	default:
		return imageHeight - blockHeight - imageHeight/10
	}
}

// ParseHexColor converts a "#RRGGBB" string to an RGBA color.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// OutlineColor picks the outline for the given foreground: black for
// bright text, white otherwise. A channel sum of exactly 384 stays white.
func OutlineColor(fg color.RGBA) color.RGBA {
	if int(fg.R)+int(fg.G)+int(fg.B) > 384 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// loadFace loads the configured font at the given pixel size. A font that
// cannot be read or parsed falls back to the built-in bitmap face; the
// render continues either way.
func loadFace(path string, size int) font.Face {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠ Could not load font %s: %v. Using default font.", path, err)
		return basicfont.Face7x13
	}

	ft, err := opentype.Parse(data)
	if err != nil {
		log.Printf("⚠ Could not parse font %s: %v. Using default font.", path, err)
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠ Could not size font %s: %v. Using default font.", path, err)
		return basicfont.Face7x13
	}
	return face
}

// measure returns the width and height of the rendered bounding box.
func measure(face font.Face, s string) (int, int) {
	bounds, _ := font.BoundString(face, s)
	return (bounds.Max.X - bounds.Min.X).Ceil(), (bounds.Max.Y - bounds.Min.Y).Ceil()
}

// drawText stamps s with the top-left corner of its ink box at (x, y).
func drawText(dst draw.Image, face font.Face, s string, x, y int, col color.Color) {
	bounds, _ := font.BoundString(face, s)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x) - bounds.Min.X,
			Y: fixed.I(y) - bounds.Min.Y,
		},
	}
	d.DrawString(s)
}

// drawOutlined renders the outline pass (every offset in the 5x5 grid from
// (-2,-2) to (+2,+2)) and then the foreground pass at the exact position.
func drawOutlined(dst draw.Image, face font.Face, s string, x, y int, fg color.RGBA) {
	outline := OutlineColor(fg)
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			drawText(dst, face, s, x+dx, y+dy, outline)
		}
	}
	drawText(dst, face, s, x, y, fg)
}
