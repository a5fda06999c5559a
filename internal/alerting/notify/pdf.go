package notify

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// AlertDocument carries the alert fields rendered into the PDF digest.
type AlertDocument struct {
	Classification  string
	DeviceID        string
	Glucose         float64
	Prediction      float64
	HeartRate       int
	Oxygen          int
	Recommendations []string
	Samples         []SampleRow
}

// SampleRow is one window entry in the digest table.
type SampleRow struct {
	Time      time.Time
	Glucose   float64
	Variation float64
	HeartRate int
	Oxygen    int
}

// BuildAlertPDF renders a minimal PDF digest of an alert.
func BuildAlertPDF(doc AlertDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Glucose Alert: %s", doc.Classification))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Device: %s", doc.DeviceID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Current Glucose (mg/dL): %.2f", doc.Glucose))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Prediction 15 min (mg/dL): %.2f", doc.Prediction))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Heart Rate (BPM): %d", doc.HeartRate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Oxygen Saturation: %d%%", doc.Oxygen))
	pdf.Ln(8)

	if len(doc.Recommendations) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Recommendations")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, line := range doc.Recommendations {
			pdf.MultiCell(0, 5, "- "+line, "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	// Window table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Time (UTC)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Glucose", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Variation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "BPM", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "SpO2", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range doc.Samples {
		pdf.CellFormat(45, 6, row.Time.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", row.Glucose), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", row.Variation), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.HeartRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.Oxygen), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
