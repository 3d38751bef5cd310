package report

import (
	"bytes"
	"fmt"
	"html"
	"math"
)

// BarChartSVG draws bars around a zero baseline with labels rotated under each bar.
func BarChartSVG(bars []Bar, w, h int, title string) []byte {
	if w <= 0 {
		w = 900
	}
	if h <= 0 {
		h = 360
	}
	const left, top, right, bottom = 70, 30, 20, 110
	plotW := float64(w - left - right)
	plotH := float64(h - top - bottom)

	var b bytes.Buffer
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", w, h, w, h)
	b.WriteString("<rect width='100%' height='100%' fill='#ffffff'/>")
	fmt.Fprintf(&b, "<text x='%d' y='20' fill='#1f2837' font-family='sans-serif' font-size='14'>%s</text>", left, html.EscapeString(title))

	if len(bars) == 0 {
		fmt.Fprintf(&b, "<text x='%d' y='%d' fill='#6b7280' font-family='sans-serif' font-size='12'>No data</text>", left, top+int(plotH/2))
		b.WriteString("</svg>")
		return b.Bytes()
	}

	lo, hi := 0.0, 0.0
	for _, bar := range bars {
		lo = math.Min(lo, bar.Value)
		hi = math.Max(hi, bar.Value)
	}
	sy := plotH / (hi - lo + 1e-9)
	zero := float64(top) + hi*sy
	slot := plotW / float64(len(bars))
	barW := math.Max(slot*0.7, 1)

	fmt.Fprintf(&b, "<g transform='translate(%d,0)'>", left)
	fmt.Fprintf(&b, "<line x1='0' y1='%d' x2='0' y2='%.2f' stroke='#9ca3af'/>", top, float64(top)+plotH)
	fmt.Fprintf(&b, "<line x1='0' y1='%.2f' x2='%.2f' y2='%.2f' stroke='#9ca3af'/>", zero, plotW, zero)
	fmt.Fprintf(&b, "<text x='-6' y='%d' text-anchor='end' font-family='sans-serif' font-size='10'>%.0f</text>", top+4, hi)
	fmt.Fprintf(&b, "<text x='-6' y='%.2f' text-anchor='end' font-family='sans-serif' font-size='10'>%.0f</text>", float64(top)+plotH, lo)

	for i, bar := range bars {
		x := float64(i)*slot + (slot-barW)/2
		height := math.Abs(bar.Value) * sy
		y := zero
		color := "#dc2626"
		if bar.Value >= 0 {
			y = zero - height
			color = "#16a34a"
		}
		label := html.EscapeString(bar.Label)
		fmt.Fprintf(&b, "<rect class='bar' x='%.2f' y='%.2f' width='%.2f' height='%.2f' fill='%s'><title>%s: %.2f</title></rect>",
			x, y, barW, height, color, label, bar.Value)
		lx, ly := x+barW/2, float64(top)+plotH+8
		fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' transform='rotate(-90 %.2f %.2f)' text-anchor='end' font-family='sans-serif' font-size='10'>%s</text>",
			lx, ly, lx, ly, label)
	}
	b.WriteString("</g>")
	b.WriteString("</svg>")
	return b.Bytes()
}
