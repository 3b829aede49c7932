package render

import (
	"fmt"
	"image"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece silhouettes on a 45x45 canvas. Each entry is a list of SVG shape
// elements without style; pieceSVG adds fill and stroke per color.
var pieceShapes = map[nchess.PieceType][]string{
	nchess.Pawn: {
		`<circle cx="22.5" cy="14" r="6"/>`,
		`<path d="M17 21 L28 21 L32 35 L13 35 Z"/>`,
		`<rect x="10" y="35" width="25" height="4"/>`,
	},
	nchess.Rook: {
		`<path d="M11 9 L16 9 L16 13 L20 13 L20 9 L25 9 L25 13 L29 13 L29 9 L34 9 L34 17 L30 20 L30 31 L15 31 L15 20 L11 17 Z"/>`,
		`<rect x="11" y="31" width="23" height="4"/>`,
		`<rect x="9" y="35" width="27" height="4"/>`,
	},
	nchess.Knight: {
		`<path d="M14 35 L16 26 C12 24 10 20 13 16 L21 9 L22 5 L25 9 C32 11 35 19 33 35 Z"/>`,
		`<circle cx="20" cy="14" r="1.5"/>`,
		`<rect x="10" y="35" width="25" height="4"/>`,
	},
	nchess.Bishop: {
		`<circle cx="22.5" cy="8" r="2.5"/>`,
		`<path d="M22.5 11 C15 16 13 23 17 29 L28 29 C32 23 30 16 22.5 11 Z"/>`,
		`<path d="M15 29 L30 29 L31 34 L14 34 Z"/>`,
		`<rect x="10" y="35" width="25" height="4"/>`,
	},
	nchess.Queen: {
		`<path d="M9 13 L14 28 L16 11 L22.5 27 L29 11 L31 28 L36 13 L32 33 L13 33 Z"/>`,
		`<circle cx="9" cy="12" r="2"/>`,
		`<circle cx="16" cy="10" r="2"/>`,
		`<circle cx="22.5" cy="9" r="2"/>`,
		`<circle cx="29" cy="10" r="2"/>`,
		`<circle cx="36" cy="12" r="2"/>`,
		`<rect x="10" y="34" width="25" height="5"/>`,
	},
	nchess.King: {
		`<path d="M21 4 L24 4 L24 7 L27 7 L27 10 L24 10 L24 14 L21 14 L21 10 L18 10 L18 7 L21 7 Z"/>`,
		`<path d="M10 21 C10 13 22.5 13 22.5 19 C22.5 13 35 13 35 21 L31 33 L14 33 Z"/>`,
		`<rect x="10" y="34" width="25" height="5"/>`,
	},
}

func pieceSVG(p nchess.Piece) (string, error) {
	shapes, ok := pieceShapes[p.Type()]
	if !ok {
		return "", fmt.Errorf("no shape for piece %v", p)
	}
	fill, stroke := "#ffffff", "#1c1f2e"
	if p.Color() == nchess.Black {
		fill, stroke = "#1c1f2e", "#e9cfa3"
	}
	style := fmt.Sprintf(`style="fill:%s;stroke:%s;stroke-width:1.5;stroke-linejoin:round"`, fill, stroke)

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`)
	for _, s := range shapes {
		b.WriteString(strings.Replace(s, "/>", " "+style+"/>", 1))
	}
	b.WriteString(`</svg>`)
	return b.String(), nil
}

type pieceKey struct {
	piece nchess.Piece
	size  int
}

type pieceCache struct {
	mu     sync.RWMutex
	images map[pieceKey]image.Image
}

func newPieceCache() *pieceCache {
	return &pieceCache{images: make(map[pieceKey]image.Image)}
}

// get rasterises a piece at size x size pixels, once per size.
func (c *pieceCache) get(p nchess.Piece, size int) (image.Image, error) {
	key := pieceKey{piece: p, size: size}
	c.mu.RLock()
	img, ok := c.images[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	c.mu.Lock()
	c.images[key] = rgba
	c.mu.Unlock()
	return rgba, nil
}
