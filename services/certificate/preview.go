package certificate

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	previewW = 1200
	previewH = 630
)

var (
	fontsOnce sync.Once
	fontsErr  error
	boldFont  *truetype.Font
	plainFont *truetype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontsErr = truetype.Parse(gobold.TTF)
		if fontsErr != nil {
			return
		}
		plainFont, fontsErr = truetype.Parse(goregular.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// RenderPreview draws a PNG share card for a certificate.
func RenderPreview(doc Document) ([]byte, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load preview fonts: %w", err)
	}

	dc := gg.NewContext(previewW, previewH)
	dc.SetHexColor("#00004D")
	dc.DrawRectangle(0, 0, previewW, previewH)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 215, G: 181, B: 109, A: 255})
	dc.SetLineWidth(6)
	dc.DrawRectangle(24, 24, previewW-48, previewH-48)
	dc.Stroke()

	cx := float64(previewW) / 2
	dc.SetFontFace(face(boldFont, 54))
	dc.SetColor(color.White)
	dc.DrawStringAnchored("CERTIFICATE OF COMPLETION", cx, 130, 0.5, 0.5)

	dc.SetFontFace(face(plainFont, 28))
	dc.SetHexColor("#D7B56D")
	dc.DrawStringAnchored("awarded to", cx, 210, 0.5, 0.5)

	dc.SetFontFace(face(boldFont, 60))
	dc.SetColor(color.White)
	dc.DrawStringAnchored(doc.StudentName, cx, 290, 0.5, 0.5)

	dc.SetFontFace(face(plainFont, 34))
	dc.DrawStringWrapped(doc.CourseTitle, cx, 390, 0.5, 0.5, previewW-200, 1.3, gg.AlignCenter)

	dc.SetFontFace(face(plainFont, 22))
	dc.SetHexColor("#BBBBCC")
	dc.DrawStringAnchored(fmt.Sprintf("%s  |  %s", doc.IssuedAt.Format("Jan 2, 2006"), doc.CertificateNumber), cx, 540, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
