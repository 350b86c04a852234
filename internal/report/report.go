// Package report renders the event log as a printable PDF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"ElephantWatchAPI/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// LogPDF writes the snapshot's log, newest first, plus a device table.
func LogPDF(w io.Writer, snap models.SimulationSnapshot, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Elephant Watch Event Log", false)
	pdf.SetCreator("ElephantWatchAPI", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Event Log", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	summary := []string{
		"Generated: " + generated.Format("2006-01-02 15:04:05 MST"),
		"Mode: " + string(snap.SimMode),
		"Threat level: " + string(snap.ThreatLevel),
		"Status: " + snap.StatusBar,
		"Subject position: " + snap.ElephantPos.String(),
	}
	for _, line := range summary {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Devices", "", 1, "L", false, 0, "")
	widths := []float64{25, 40, 25, 20, 40, 40}
	headers := []string{"ID", "Type", "Status", "Battery", "Last active", "Location"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, d := range snap.Devices {
		row := []string{d.ID, string(d.Type), string(d.Status), strconv.Itoa(d.Battery) + "%", d.LastActive, d.LocationName}
		if d.Status == models.DeviceOffline {
			pdf.SetTextColor(200, 0, 0)
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Log (%d entries, newest first)", len(snap.Logs)), "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	for _, entry := range snap.Logs {
		pdf.MultiCell(0, 5, tr(entry), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render log pdf: %w", err)
	}
	return pdf.Output(w)
}
