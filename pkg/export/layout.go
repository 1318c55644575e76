// Package export renders the displayed rows of a tree view to static
// formats: a Markdown outline, SVG and PNG pictures, and a JSON snapshot.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// Options controls picture exports.
type Options struct {
	Title    string // Rendered in the header; defaults to the tree summary
	MaxLabel int    // Label width in cells before truncation (default 48)
}

func (o Options) withDefaults(tv *tree.Treeview) Options {
	if o.Title == "" {
		o.Title = tv.Describe()
	}
	if o.MaxLabel <= 0 {
		o.MaxLabel = 48
	}
	return o
}

// Geometry shared by the SVG and PNG renderers, in pixels.
const (
	rowHeight   = 24
	indentWidth = 20
	cellWidth   = 8 // monospace advance used for width estimates
	marginX     = 24
	headerH     = 56
	boxSize     = 12
)

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorSelected  = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorHighlight = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorGuide     = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
)

// layoutRow is one drawn line.
type layoutRow struct {
	tree.Row
	X, Y  int    // top-left of the row's content
	Text  string // truncated label
	Width int    // label width in pixels
}

type layoutResult struct {
	Title    string
	Width    int
	Height   int
	Rows     []layoutRow
	Checkbox bool
}

func buildLayout(tv *tree.Treeview, opts Options) layoutResult {
	rows := tv.Rows()
	res := layoutResult{
		Title:    opts.Title,
		Checkbox: tv.CheckboxesVisible(),
		Rows:     make([]layoutRow, 0, len(rows)),
	}

	width := marginX*2 + runewidth.StringWidth(res.Title)*cellWidth
	for i, r := range rows {
		text := runewidth.Truncate(r.Label, opts.MaxLabel, "…")
		lr := layoutRow{
			Row:   r,
			X:     marginX + r.Depth*indentWidth,
			Y:     headerH + i*rowHeight,
			Text:  text,
			Width: runewidth.StringWidth(text) * cellWidth,
		}
		if w := lr.textX() + lr.Width + marginX; w > width {
			width = w
		}
		res.Rows = append(res.Rows, lr)
	}

	res.Width = max(width, 320)
	res.Height = headerH + len(rows)*rowHeight + marginX
	return res
}

// textX is where the label starts: after the expander and, when shown, the
// checkbox.
func (r layoutRow) textX() int {
	return r.X + indentWidth + boxSize + 8
}

func expanderGlyph(r tree.Row) string {
	switch {
	case !r.HasChildren:
		return ""
	case r.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Format names the export format path's extension selects: markdown, svg,
// png or json.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown":
		return "markdown", nil
	case ".svg", ".png", ".json":
		return ext[1:], nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use .md, .svg, .png or .json)", ext)
	}
}

// Save writes tv to path in the format its extension selects.
func Save(path string, tv *tree.Treeview, opts Options) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	var write func(io.Writer) error
	switch format {
	case "markdown":
		write = func(w io.Writer) error { return Markdown(w, tv) }
	case "svg":
		write = func(w io.Writer) error { return SVG(w, tv, opts) }
	case "png":
		write = func(w io.Writer) error { return PNG(w, tv, opts) }
	default:
		write = func(w io.Writer) error { return JSON(w, tv) }
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
