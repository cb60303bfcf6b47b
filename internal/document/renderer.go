package document

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// EntryLine is one time entry row in the completion report.
type EntryLine struct {
	WorkerName string
	StartTime  time.Time
	EndTime    time.Time
	Hours      float64
	Note       string
}

// CompletionData is everything the completion report needs.
type CompletionData struct {
	Reference     string
	Title         string
	Description   string
	ServiceType   string
	Priority      string
	ScheduledDate *time.Time
	ClientName    string
	Workers       []string // every assigned worker, logged time or not
	CompletedBy   string
	CompletedAt   time.Time
	TotalHours    float64
	Entries       []EntryLine
	Remarks       string
	SignaturePNG  []byte // client signature, PNG bytes
	SignatureName string
}

// Renderer produces the completion report document.
type Renderer interface {
	RenderCompletionReport(data CompletionData) ([]byte, error)
}

// PDFRenderer renders completion reports as PDF.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// FormatHours formats fractional hours as "Xh YYmin". Minutes are
// rounded, with carry into the hour at 60.
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	h := int(hours)
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh %02dmin", h, m)
}

// RenderCompletionReport renders the completion report PDF.
func (r *PDFRenderer) RenderCompletionReport(data CompletionData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Work Order Completion Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// order summary
	pdf.SetFont("Helvetica", "", 11)
	writeField := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, value, "", "L", false)
	}

	writeField("Reference:", data.Reference)
	writeField("Title:", data.Title)
	if data.Description != "" {
		writeField("Description:", data.Description)
	}
	if data.ServiceType != "" {
		writeField("Service type:", data.ServiceType)
	}
	if data.Priority != "" {
		writeField("Priority:", data.Priority)
	}
	if data.ScheduledDate != nil {
		writeField("Scheduled date:", data.ScheduledDate.Format("2006-01-02"))
	}
	if data.ClientName != "" {
		writeField("Client:", data.ClientName)
	}
	if len(data.Workers) > 0 {
		writeField("Assigned workers:", strings.Join(data.Workers, ", "))
	}
	writeField("Completed by:", data.CompletedBy)
	writeField("Completed at:", data.CompletedAt.Format("2006-01-02 15:04"))
	writeField("Total hours:", FormatHours(data.TotalHours))
	pdf.Ln(4)

	// time entries table
	if len(data.Entries) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Time entries", "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(45, 7, "Worker", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, "Start", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, "End", "1", 0, "L", true, 0, "")
		pdf.CellFormat(0, 7, "Duration", "1", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, e := range data.Entries {
			pdf.CellFormat(45, 7, e.WorkerName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, e.StartTime.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, e.EndTime.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, FormatHours(e.Hours), "1", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	// remarks
	if data.Remarks != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Remarks", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, data.Remarks, "", "L", false)
		pdf.Ln(4)
	}

	// client signature
	if len(data.SignaturePNG) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, "Client signature", "", 1, "L", false, 0, "")

		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(data.SignaturePNG))
		pdf.ImageOptions("signature", pdf.GetX(), pdf.GetY(), 60, 0, true, opts, 0, "")

		if data.SignatureName != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, 6, data.SignatureName, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render completion report: %w", err)
	}
	return buf.Bytes(), nil
}
