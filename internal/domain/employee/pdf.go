package employee

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var directoryColumns = []struct {
	title string
	width float64
}{
	{"Code", 20},
	{"Name", 45},
	{"Email", 60},
	{"Phone", 32},
	{"Department", 40},
	{"Designation", 40},
	{"Joined", 25},
}

// RenderDirectoryPDF writes the employee directory as a landscape A4 table.
func RenderDirectoryPDF(w io.Writer, employees []Employee, generatedAt time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Employee Directory", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Employee Directory")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s - %d employees", generatedAt.UTC().Format("2006-01-02 15:04 MST"), len(employees)))
	pdf.Ln(10)

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range directoryColumns {
			pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, emp := range employees {
		if pdf.GetY() > 190 {
			pdf.AddPage()
			header()
		}
		values := []string{
			emp.Code,
			emp.FullName(),
			emp.Email,
			emp.Phone,
			emp.Department,
			emp.Designation,
			emp.JoiningDate.Format("2006-01-02"),
		}
		for i, col := range directoryColumns {
			pdf.CellFormat(col.width, 6, tr(values[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
