package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"geoattendance/backend/internal/entity"
)

const ContentTypePDF = "application/pdf"

var (
	pdfHeaders = []string{"S.No", "Emp ID", "Name", "Date", "Check-In", "Check-In Loc", "Check-Out", "Check-Out Loc"}
	pdfWidths  = []float64{14, 30, 45, 28, 28, 44, 28, 44}
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 8.0
	pdfFooterGap = 18.0
	notOut       = "Not out"
)

// PDF renders records as a landscape A4 table.
func (f *Formatter) PDF(records []entity.AttendanceWithUser, filter Filter) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfFooterGap)
	pdf.SetTitle(Title, true)
	pdf.SetCreator(system, true)
	pdf.AliasNbPages("{nb}")

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb} | %s", pdf.PageNo(), system), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, tr(f.FilterLine(filter)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(0x44, 0x72, 0xC4)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range pdfHeaders {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetDrawColor(0xCC, 0xCC, 0xCC)
	}
	header()

	_, pageHeight := pdf.GetPageSize()

	for i, r := range records {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfFooterGap {
			pdf.AddPage()
			header()
		}

		cells := f.row(i, r, 4)
		if r.CheckOutTime == nil {
			cells[6] = notOut
		}
		if r.UserName == "" {
			cells[2] = "Unknown"
		}

		fill := i%2 == 1
		pdf.SetFillColor(0xF2, 0xF2, 0xF2)
		for j, c := range cells {
			pdf.CellFormat(pdfWidths[j], pdfRowHeight, fit(pdf, tr(c), pdfWidths[j]-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if pdf.GetY()+2*pdfRowHeight > pageHeight-pdfFooterGap {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, pdfRowHeight, fmt.Sprintf("Total Records: %d", len(records)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

// fit shortens s with an ellipsis until it is at most width wide. s is
// already in the single-byte font encoding.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
