package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"yashubustudio/bullyscan/screening"
)

// ErrNoTerms is returned when a word cloud has nothing to draw.
var ErrNoTerms = errors.New("no terms to draw")

const (
	cloudWidth   = 1000
	cloudHeight  = 560
	cloudMinFont = 14.0
	cloudMaxFont = 72.0
)

var cloudPalette = []color.RGBA{
	{R: 13, G: 110, B: 253, A: 255},
	{R: 102, G: 16, B: 242, A: 255},
	{R: 214, G: 51, B: 132, A: 255},
	{R: 253, G: 126, B: 20, A: 255},
	{R: 25, G: 135, B: 84, A: 255},
	{R: 32, G: 201, B: 151, A: 255},
	{R: 52, G: 58, B: 64, A: 255},
}

// WordCloud lays out terms on an Archimedean spiral from the centre, largest
// first. Layout is deterministic for a given input.
type WordCloud struct {
	maxWords int
	font     *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// NewWordCloud parses the embedded Go Regular font.
func NewWordCloud(maxWords int) (*WordCloud, error) {
	if maxWords <= 0 {
		maxWords = 100
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &WordCloud{maxWords: maxWords, font: f, faces: make(map[int]font.Face)}, nil
}

// Render draws terms, most frequent first, and returns a PNG.
func (w *WordCloud) Render(terms []screening.TermCount) ([]byte, error) {
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	if len(terms) > w.maxWords {
		terms = terms[:w.maxWords]
	}
	maxCount, minCount := terms[0].Count, terms[0].Count
	for _, t := range terms {
		maxCount = max(maxCount, t.Count)
		minCount = min(minCount, t.Count)
	}

	img := image.NewRGBA(image.Rect(0, 0, cloudWidth, cloudHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	w.mu.Lock()
	defer w.mu.Unlock()

	var placed []image.Rectangle
	drawn := 0
	for i, t := range terms {
		size := cloudMinFont
		if maxCount > minCount {
			size += (cloudMaxFont - cloudMinFont) * float64(t.Count-minCount) / float64(maxCount-minCount)
		} else {
			size = (cloudMinFont + cloudMaxFont) / 2
		}
		face, err := w.face(int(size))
		if err != nil {
			return nil, err
		}
		box, dot, ok := w.place(face, t.Term, placed)
		if !ok {
			continue
		}
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(cloudPalette[i%len(cloudPalette)]),
			Face: face,
			Dot:  dot,
		}
		d.DrawString(t.Term)
		placed = append(placed, box)
		drawn++
	}
	if drawn == 0 {
		return nil, fmt.Errorf("no term fits the %dx%d canvas", cloudWidth, cloudHeight)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode word cloud: %w", err)
	}
	return buf.Bytes(), nil
}

// place walks the spiral until the term's box fits without overlap.
func (w *WordCloud) place(face font.Face, term string, placed []image.Rectangle) (image.Rectangle, fixed.Point26_6, bool) {
	metrics := face.Metrics()
	width := font.MeasureString(face, term).Ceil()
	ascent := metrics.Ascent.Ceil()
	height := ascent + metrics.Descent.Ceil()
	const pad = 2
	cx, cy := cloudWidth/2, cloudHeight/2
	for step := 0; step < 4000; step++ {
		theta := 0.1 * float64(step)
		radius := 1.6 * theta
		x := cx + int(radius*math.Cos(theta)*1.6) - width/2
		y := cy + int(radius*math.Sin(theta)) - height/2
		box := image.Rect(x-pad, y-pad, x+width+pad, y+height+pad)
		if !box.In(image.Rect(0, 0, cloudWidth, cloudHeight)) {
			continue
		}
		if overlaps(box, placed) {
			continue
		}
		return box, fixed.P(x, y+ascent), true
	}
	return image.Rectangle{}, fixed.Point26_6{}, false
}

func overlaps(box image.Rectangle, placed []image.Rectangle) bool {
	for _, p := range placed {
		if box.Overlaps(p) {
			return true
		}
	}
	return false
}

func (w *WordCloud) face(size int) (font.Face, error) {
	if f, ok := w.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(w.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %d: %w", size, err)
	}
	w.faces[size] = f
	return f, nil
}
