package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Document is everything printed on a certificate.
type Document struct {
	StudentName       string
	CourseTitle       string
	InstructorName    string
	CertificateNumber string
	ValidationHash    string
	IssuedAt          time.Time
	VerifyURL         string
}

const (
	pageW = 297.0
	pageH = 210.0
)

// RenderPDF draws an A4 landscape certificate at fixed coordinates.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetModificationDate(doc.IssuedAt)
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// frame
	pdf.SetDrawColor(0, 0, 77)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetDrawColor(215, 181, 109)
	pdf.SetLineWidth(0.8)
	pdf.Rect(15, 15, pageW-30, pageH-30, "D")

	center := func(y float64, style string, size float64, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(20, y)
		pdf.CellFormat(pageW-40, size*0.5, tr(text), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 77)
	center(32, "B", 36, "CERTIFICATE")
	center(50, "", 16, "OF COMPLETION")

	pdf.SetTextColor(60, 60, 60)
	center(70, "", 13, "This is to certify that")
	pdf.SetTextColor(0, 0, 77)
	center(84, "B", 28, doc.StudentName)
	pdf.SetTextColor(60, 60, 60)
	center(102, "", 13, "has successfully completed the course")
	pdf.SetTextColor(0, 0, 77)
	center(114, "B", 22, doc.CourseTitle)
	pdf.SetTextColor(60, 60, 60)
	center(132, "", 12, fmt.Sprintf("Completed on %s", doc.IssuedAt.Format("January 2, 2006")))

	// signature block
	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(60, 60, 60)
	pdf.Line(pageW/2-40, 158, pageW/2+40, 158)
	center(161, "B", 12, doc.InstructorName)
	center(168, "", 10, "Instructor")

	// footer
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.SetXY(22, 178)
	pdf.CellFormat(120, 4, tr("Certificate No: "+doc.CertificateNumber), "", 2, "L", false, 0, "")
	pdf.CellFormat(120, 4, "Validation: "+shortHash(doc.ValidationHash), "", 2, "L", false, 0, "")
	pdf.CellFormat(120, 4, tr("Verify at "+doc.VerifyURL), "", 0, "L", false, 0, "")

	pdf.SetXY(pageW-62, 176)
	pdf.CellFormat(40, 14, "[QR CODE]", "1", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
