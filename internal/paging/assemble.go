package paging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jonathan/resume-studio/internal/capture"
	"github.com/jung-kurt/gofpdf"
)

const imageName = "snapshot"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// FileName derives the download name for a document title.
func FileName(title string) string {
	return unsafeFileChars.ReplaceAllString(title, "_") + ".pdf"
}

// Document is an assembled PDF.
type Document struct {
	Name  string
	Pages int
	data  []byte
}

// Bytes returns the encoded PDF.
func (d *Document) Bytes() []byte {
	return d.data
}

// WriteTo writes the encoded PDF to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.data)
	return int64(n), err
}

// Save writes the PDF into dir under its Name and returns the path.
func (d *Document) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Message: "failed to create output directory", Cause: err}
	}
	path := filepath.Join(dir, d.Name)
	if err := os.WriteFile(path, d.data, 0o644); err != nil {
		return "", &Error{Message: "failed to write PDF", Cause: err}
	}
	return path, nil
}

// Assemble lays bmp out across pages. Every page repaints the whole bitmap
// at its placement offset so consecutive pages show consecutive slices.
func Assemble(bmp capture.Bitmap, title string, layout Layout) (*Document, error) {
	placements, err := Plan(bmp.Width, bmp.Height, layout)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", layout.Media, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("resume-studio", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(bmp.PNG))
	if err := pdf.Error(); err != nil {
		return nil, &Error{Message: "failed to register snapshot", Cause: err}
	}

	for _, p := range placements {
		pdf.AddPage()
		pdf.ImageOptions(imageName, 0, p.Y, layout.PageWidth, p.Height, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &Error{Message: "failed to encode PDF", Cause: err}
	}

	return &Document{
		Name:  FileName(title),
		Pages: pdf.PageCount(),
		data:  buf.Bytes(),
	}, nil
}
