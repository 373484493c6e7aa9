package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 72.0
	bodySize   = 10.0
	lineHeight = 13.0
	cellPad    = 3.0
	// maxCellLines bounds how tall a single results row can grow.
	maxCellLines = 30
)

// document wraps fpdf with cp1252 translation and the report's type scale.
type document struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
	imgN  int
}

func newDocument(title string) *document {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("bullyscan", true)
	pageW, _ := pdf.GetPageSize()
	return &document{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: pageW - 2*pageMargin,
	}
}

func (d *document) heading(text string) {
	d.pdf.Ln(8)
	d.pdf.SetFont("Helvetica", "B", 14)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.CellFormat(d.width, 20, d.tr(text), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", bodySize)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.MultiCell(d.width, lineHeight, d.tr(text), "", "L", false)
	d.pdf.Ln(4)
}

func (d *document) bullet(text string) {
	d.pdf.SetFont("Helvetica", "", bodySize)
	d.pdf.SetX(pageMargin + 10)
	d.pdf.MultiCell(d.width-10, lineHeight, d.tr("- "+text), "", "L", false)
}

// note renders a grey italic line, used in place of a section that failed.
func (d *document) note(text string) {
	d.pdf.SetFont("Helvetica", "I", 9)
	d.pdf.SetTextColor(120, 120, 120)
	d.pdf.MultiCell(d.width, 12, d.tr(text), "", "L", false)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.Ln(4)
}

// keyValueTable draws a two-column table of label/value pairs.
func (d *document) keyValueTable(rows [][2]string) {
	keyW := d.width * 0.45
	d.pdf.SetDrawColor(200, 200, 200)
	for i, row := range rows {
		d.pdf.SetFont("Helvetica", "", bodySize)
		fill := i%2 == 0
		d.pdf.SetFillColor(245, 246, 248)
		d.pdf.CellFormat(keyW, 16, d.tr(row[0]), "1", 0, "L", fill, 0, "")
		d.pdf.SetFont("Helvetica", "B", bodySize)
		d.pdf.CellFormat(d.width-keyW, 16, d.tr(row[1]), "1", 1, "L", fill, 0, "")
	}
	d.pdf.Ln(6)
}

// image places a PNG or JPEG centred at the given width. The bytes are
// checked before registration so a bad image never poisons the document.
func (d *document) image(data []byte, width float64) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("image has no area")
	}
	imgType := "PNG"
	if format == "jpeg" {
		imgType = "JPG"
	}
	d.imgN++
	name := fmt.Sprintf("img%d", d.imgN)
	opts := fpdf.ImageOptions{ImageType: imgType}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return err
	}
	if width > d.width {
		width = d.width
	}
	height := width * float64(cfg.Height) / float64(cfg.Width)
	d.ensureSpace(height)
	x := pageMargin + (d.width-width)/2
	d.pdf.ImageOptions(name, x, d.pdf.GetY(), width, height, false, opts, 0, "")
	d.pdf.SetY(d.pdf.GetY() + height + 6)
	return nil
}

// ensureSpace starts a new page when h points do not fit above the bottom margin.
func (d *document) ensureSpace(h float64) {
	_, pageH := d.pdf.GetPageSize()
	if d.pdf.GetY()+h > pageH-pageMargin {
		d.pdf.AddPage()
	}
}

// column describes one column of a wrapped table.
type column struct {
	title string
	width float64
	align string
}

// table draws rows with wrapped cells and repeats the header after every
// page break.
func (d *document) table(cols []column, rows [][]string) {
	header := func() {
		d.pdf.SetFont("Helvetica", "B", 9)
		d.pdf.SetFillColor(52, 58, 64)
		d.pdf.SetTextColor(255, 255, 255)
		for _, c := range cols {
			d.pdf.CellFormat(c.width, 16, d.tr(c.title), "1", 0, "C", true, 0, "")
		}
		d.pdf.Ln(-1)
		d.pdf.SetTextColor(33, 37, 41)
	}
	d.ensureSpace(32)
	header()
	_, pageH := d.pdf.GetPageSize()
	lineH := 11.0
	d.pdf.SetDrawColor(200, 200, 200)
	for _, cells := range rows {
		d.pdf.SetFont("Helvetica", "", 8.5)
		lines := make([][]string, len(cols))
		maxLines := 1
		for i, c := range cols {
			lines[i] = d.wrap(cells[i], c.width)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		rowH := float64(maxLines)*lineH + 2
		if d.pdf.GetY()+rowH > pageH-pageMargin {
			d.pdf.AddPage()
			header()
			d.pdf.SetFont("Helvetica", "", 8.5)
		}
		x, y := pageMargin, d.pdf.GetY()
		for i, c := range cols {
			d.pdf.Rect(x, y, c.width, rowH, "D")
			for j, line := range lines[i] {
				d.pdf.SetXY(x, y+1+float64(j)*lineH)
				d.pdf.CellFormat(c.width, lineH, line, "", 0, c.align, false, 0, "")
			}
			x += c.width
		}
		d.pdf.SetXY(pageMargin, y+rowH)
	}
	d.pdf.Ln(6)
}

// wrap splits text into lines that fit width with the current font. The
// returned lines are already cp1252 encoded.
func (d *document) wrap(text string, width float64) []string {
	raw := d.tr(text)
	runes := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		runes[i] = rune(raw[i])
	}
	split := d.pdf.SplitText(string(runes), width)
	if len(split) == 0 {
		return []string{""}
	}
	if len(split) > maxCellLines {
		split = append(split[:maxCellLines-1], "...")
	}
	out := make([]string, len(split))
	for i, line := range split {
		b := make([]byte, 0, len(line))
		for _, r := range line {
			b = append(b, byte(r))
		}
		out[i] = string(b)
	}
	return out
}
