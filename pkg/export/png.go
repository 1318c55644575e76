package export

import (
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// PNG rasterises the displayed rows.
func PNG(w io.Writer, tv *tree.Treeview, opts Options) error {
	layout := buildLayout(tv, opts.withDefaults(tv))
	return renderPNG(w, layout)
}

func renderPNG(w io.Writer, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 8, float64(layout.Width)-24, headerH-16, 8)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, marginX, headerH/2, 0, 0.5)

	for _, r := range layout.Rows {
		drawRowPNG(dc, r, layout.Checkbox)
	}

	return dc.EncodePNG(w)
}

func drawRowPNG(dc *gg.Context, r layoutRow, checkbox bool) {
	top := float64(r.Y)
	mid := top + rowHeight/2

	if r.Depth > 0 {
		gx := float64(r.X - indentWidth/2)
		dc.SetColor(colorGuide)
		dc.SetLineWidth(1)
		dc.DrawLine(gx, top, gx, top+rowHeight)
		dc.Stroke()
	}

	if fill, ok := rowFill(r.Row); ok {
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(float64(r.textX()-4), top+2, float64(r.Width+8), rowHeight-4, 4)
		dc.Fill()
	}

	if r.HasChildren {
		drawExpander(dc, float64(r.X)+4, mid, r.Expanded)
	}

	if checkbox {
		bx := float64(r.X + indentWidth - 4)
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.DrawRectangle(bx, mid-boxSize/2, boxSize, boxSize)
		dc.Stroke()
		if r.Selected {
			dc.SetLineWidth(2)
			dc.MoveTo(bx+2, mid)
			dc.LineTo(bx+5, mid+3)
			dc.LineTo(bx+10, mid-3)
			dc.Stroke()
		}
	}

	dc.SetColor(colorText)
	dc.DrawStringAnchored(r.Text, float64(r.textX()), mid, 0, 0.5)
	if r.Highlighted {
		// basicfont has no bold face; underline instead
		dc.SetLineWidth(1)
		y := mid + 7
		dc.DrawLine(float64(r.textX()), y, float64(r.textX()+r.Width), y)
		dc.Stroke()
	}
}

// drawExpander draws a small triangle pointing right when collapsed and
// down when expanded. The bitmap font lacks the outline glyphs.
func drawExpander(dc *gg.Context, x, y float64, expanded bool) {
	dc.SetColor(colorSubtle)
	dc.NewSubPath()
	if expanded {
		dc.MoveTo(x, y-3)
		dc.LineTo(x+8, y-3)
		dc.LineTo(x+4, y+3)
	} else {
		dc.MoveTo(x+1, y-4)
		dc.LineTo(x+7, y)
		dc.LineTo(x+1, y+4)
	}
	dc.ClosePath()
	dc.Fill()
}
