package qrlabel

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// qrImagePixels is the rasterization size of each QR glyph. The PDF
// scales the image, so this only bounds print resolution.
const qrImagePixels = 512

// ScanURL builds the URL encoded into a printed code
func ScanURL(baseURL, shortID string) string {
	return fmt.Sprintf("%s/%s", baseURL, shortID)
}

// RenderGridPDF renders codes onto A4 grid pages per spec and returns
// the PDF bytes. Codes appear in input order, row-major.
func RenderGridPDF(codes []string, baseURL string, spec GridSpec) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 9)

	cellW, cellH := spec.CellSize()
	glyph := GlyphSize(cellW, cellH)

	for _, page := range Paginate(codes, spec.PerPage()) {
		pdf.AddPage()

		for i, code := range page {
			x, y := spec.CellOrigin(i)

			if err := placeQR(pdf, code, baseURL, x+(cellW-glyph)/2, y+(cellH-glyph)/2-3, glyph); err != nil {
				return nil, err
			}

			// Caption centered under the glyph
			pdf.SetXY(x, y+(cellH+glyph)/2-1)
			pdf.CellFormat(cellW, 5, code, "", 0, "C", false, 0, "")
		}
	}

	return outputPDF(pdf)
}

// RenderLabelPDF renders one code per page on a fixed-size adhesive
// label, choosing the side-by-side or stacked arrangement from the
// label height.
func RenderLabelPDF(codes []string, baseURL string, label LabelSpec) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: label.WidthMM, Ht: label.HeightMM},
	})
	pdf.SetFont("Helvetica", "", 10)

	const pad = 3.0

	for _, code := range codes {
		pdf.AddPage()

		switch label.Layout() {
		case LayoutSideBySide:
			glyph := label.HeightMM - 2*pad
			if err := placeQR(pdf, code, baseURL, pad, pad, glyph); err != nil {
				return nil, err
			}
			pdf.SetXY(glyph+2*pad, label.HeightMM/2-3)
			pdf.CellFormat(label.WidthMM-glyph-3*pad, 6, code, "", 0, "L", false, 0, "")

		case LayoutStacked:
			glyph := label.HeightMM - 12 - 2*pad
			if glyph > label.WidthMM-2*pad {
				glyph = label.WidthMM - 2*pad
			}
			if err := placeQR(pdf, code, baseURL, (label.WidthMM-glyph)/2, pad, glyph); err != nil {
				return nil, err
			}
			pdf.SetXY(pad, label.HeightMM-10)
			pdf.CellFormat(label.WidthMM-2*pad, 6, code, "", 0, "C", false, 0, "")
		}
	}

	return outputPDF(pdf)
}

// placeQR rasterizes a code at high error correction and draws it at
// the given position and size
func placeQR(pdf *gofpdf.Fpdf, code, baseURL string, x, y, size float64) error {
	png, err := qrcode.Encode(ScanURL(baseURL, code), qrcode.High, qrImagePixels)
	if err != nil {
		return fmt.Errorf("failed to encode QR for %s: %w", code, err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr-"+code, opts, bytes.NewReader(png))
	pdf.ImageOptions("qr-"+code, x, y, size, size, false, opts, 0, "")
	return nil
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to produce PDF: %w", err)
	}
	return buf.Bytes(), nil
}
