package render

import (
	"bytes"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"example.com/qrisgate/internal/locale"
)

// Receipt is the content of a printable payment request.
type Receipt struct {
	Reference    string
	MerchantName string
	MerchantCity string
	Amount       decimal.Decimal
	Payload      string
	QR           []byte
	GeneratedAt  time.Time
	ExpiresAt    time.Time
}

const receiptQRImage = "qris"

// RenderReceiptPDF lays rec out on a single A5 page.
func RenderReceiptPDF(rec Receipt, tr locale.Translator) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	title := tr.T("receipt.title")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("qrisgate", false)
	pdf.SetCreator("qrisgate", false)
	pdf.SetMargins(12, 14, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tx := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 15)
	pdf.Cell(0, 9, tx(title))
	pdf.Ln(11)

	addSummaryRows(pdf, tx, rec, tr)

	if len(rec.QR) > 0 {
		addQRImage(pdf, rec.QR)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Cell(0, 5, tx(tr.T("receipt.payload")))
	pdf.Ln(5)
	pdf.SetFont("Courier", "", 7)
	pdf.MultiCell(0, 3.5, rec.Payload, "1", "L", false)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, tx(tr.T("receipt.footer")), "", "C", false)

	if pdf.Err() {
		return nil, errors.Wrapf(ErrRender, "receipt pdf: %v", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrapf(ErrRender, "write receipt pdf: %v", err)
	}
	return buf.Bytes(), nil
}

func addSummaryRows(pdf *gofpdf.Fpdf, tx func(string) string, rec Receipt, tr locale.Translator) {
	items := []struct {
		label string
		value string
	}{
		{label: tr.T("receipt.merchant"), value: rec.MerchantName},
		{label: tr.T("receipt.city"), value: rec.MerchantCity},
		{label: tr.T("receipt.amount"), value: tr.FormatAmount(rec.Amount)},
		{label: tr.T("receipt.generated"), value: tr.FormatTimestamp(rec.GeneratedAt)},
		{label: tr.T("receipt.expires"), value: tr.FormatTimestamp(rec.ExpiresAt)},
		{label: tr.T("receipt.reference"), value: rec.Reference},
	}
	for _, item := range items {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(34, 6, tx(item.label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tx(emptyFallback(item.value, "-")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addQRImage(pdf *gofpdf.Fpdf, png []byte) {
	const side = 70.0
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(receiptQRImage, opts, bytes.NewReader(png))
	pageWidth, _ := pdf.GetPageSize()
	x := (pageWidth - side) / 2
	pdf.ImageOptions(receiptQRImage, x, pdf.GetY(), side, side, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + side + 4)
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
