package export

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// SVG draws the displayed rows as a static picture.
func SVG(w io.Writer, tv *tree.Treeview, opts Options) error {
	layout := buildLayout(tv, opts.withDefaults(tv))
	renderSVG(w, layout)
	return nil
}

func renderSVG(w io.Writer, layout layoutResult) {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 8, layout.Width-24, headerH-16, 8, 8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(marginX, headerH/2+5, layout.Title,
		fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace;font-weight:bold", css(colorText)))

	for _, r := range layout.Rows {
		drawRowSVG(canvas, r, layout.Checkbox)
	}

	canvas.End()
}

func drawRowSVG(canvas *svg.SVG, r layoutRow, checkbox bool) {
	mid := r.Y + rowHeight/2

	if r.Depth > 0 {
		gx := r.X - indentWidth/2
		canvas.Line(gx, r.Y, gx, r.Y+rowHeight, fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGuide)))
	}

	if fill, ok := rowFill(r.Row); ok {
		canvas.Roundrect(r.textX()-4, r.Y+2, r.Width+8, rowHeight-4, 4, 4, fmt.Sprintf("fill:%s", css(fill)))
	}

	if glyph := expanderGlyph(r.Row); glyph != "" {
		canvas.Text(r.X, mid+5, glyph, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	if checkbox {
		bx := r.X + indentWidth - 4
		canvas.Rect(bx, mid-boxSize/2, boxSize, boxSize,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorStroke)))
		if r.Selected {
			canvas.Polyline(
				[]int{bx + 2, bx + 5, bx + 10},
				[]int{mid, mid + 3, mid - 3},
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorStroke)))
		}
	}

	style := fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorText))
	if r.Highlighted {
		style += ";font-weight:bold"
	}
	canvas.Text(r.textX(), mid+5, r.Text, style)
}

// rowFill is the background of selected or highlighted rows. Selection
// wins when both apply.
func rowFill(r tree.Row) (c color.RGBA, ok bool) {
	switch {
	case r.Selected:
		return colorSelected, true
	case r.Highlighted:
		return colorHighlight, true
	}
	return c, false
}
