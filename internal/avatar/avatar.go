// Package avatar produces profile images for new accounts.
//
// A Generator turns a seed (the user's handle) into a self-contained image
// data URI that can be stored on the user record and rendered directly by a
// browser. The default implementation draws a symmetric 5x5 identicon whose
// pattern and colour come from a BLAKE3 digest of the seed, so the same seed
// always yields the same avatar.
package avatar

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultSize is the rendered width and height in pixels.
const DefaultSize = 192

const dataURIPrefix = "data:image/svg+xml;base64,"

// Generator creates an avatar image for a seed.
type Generator interface {
	Generate(seed string) (string, error)
}

// Identicon is the default Generator.
type Identicon struct {
	size int
}

// NewIdenticon returns an Identicon rendering at size pixels.
// A non-positive size falls back to DefaultSize.
func NewIdenticon(size int) *Identicon {
	if size <= 0 {
		size = DefaultSize
	}
	return &Identicon{size: size}
}

const grid = 5

// Generate renders the identicon for seed as an SVG data URI.
//
// Digest layout (32 bytes):
//
//	[0..2]   foreground colour (RGB)
//	[3..17]  one byte per cell of the left 3 columns; odd byte = filled
//
// Columns 3 and 4 mirror columns 1 and 0.
func (g *Identicon) Generate(seed string) (string, error) {
	sum := blake3.Sum256([]byte(seed))

	cell := g.size / grid
	pad := (g.size - cell*grid) / 2

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		g.size, g.size, g.size, g.size)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#f0f0f0"/>`, g.size, g.size)

	fill := fmt.Sprintf("#%02x%02x%02x", sum[0], sum[1], sum[2])

	for row := 0; row < grid; row++ {
		for col := 0; col < 3; col++ {
			if sum[3+row*3+col]&1 == 0 {
				continue
			}
			writeCell(&b, pad, cell, row, col, fill)
			if mirror := grid - 1 - col; mirror != col {
				writeCell(&b, pad, cell, row, mirror, fill)
			}
		}
	}
	b.WriteString(`</svg>`)

	return dataURIPrefix + base64.StdEncoding.EncodeToString([]byte(b.String())), nil
}

func writeCell(b *strings.Builder, pad, cell, row, col int, fill string) {
	fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
		pad+col*cell, pad+row*cell, cell, cell, fill)
}

// Static always returns the same data URI. Useful in tests.
type Static string

func (s Static) Generate(string) (string, error) { return string(s), nil }
