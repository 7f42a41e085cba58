package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrledger/internal/domain/calendar"
)

const timeOfDay = "15:04"

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeOfDay)
}

// WriteCSV renders a month of records as CSV with a trailing totals row.
func WriteCSV(w io.Writer, h History, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "check_in", "check_out", "hours_worked", "present", "notes"}); err != nil {
		return err
	}
	for _, r := range h.Records {
		row := []string{
			calendar.FormatDate(r.Date),
			clock(r.CheckIn, loc),
			clock(r.CheckOut, loc),
			strconv.FormatFloat(r.HoursWorked, 'f', 2, 64),
			strconv.FormatBool(r.IsPresent),
			r.Notes,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"total", "", "", strconv.FormatFloat(h.TotalHours, 'f', 2, 64), strconv.Itoa(h.TotalDays), ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WritePDF renders a month of records as a one-table PDF report.
func WritePDF(w io.Writer, employeeName string, h History, loc *time.Location) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Attendance Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s %d", time.Month(h.Month), h.Year))
	pdf.Ln(10)

	widths := []float64{35, 30, 30, 30, 25}
	pdf.SetFont("Helvetica", "B", 11)
	for i, heading := range []string{"Date", "Check-in", "Check-out", "Hours", "Present"} {
		pdf.CellFormat(widths[i], 8, heading, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, r := range h.Records {
		present := "no"
		if r.IsPresent {
			present = "yes"
		}
		cells := []string{
			calendar.FormatDate(r.Date),
			clock(r.CheckIn, loc),
			clock(r.CheckOut, loc),
			fmt.Sprintf("%.2f", r.HoursWorked),
			present,
		}
		for i, value := range cells {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total hours: %.2f    Days recorded: %d", h.TotalHours, h.TotalDays))

	return pdf.Output(w)
}
