package stats

import (
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteCSV writes the enumerator statistics table as CSV.
func (r *Report) WriteCSV(w io.Writer) error {
	b, err := csvutil.Marshal(r.Enumerators)
	if err != nil {
		return eris.Wrap(err, "stats: encode csv")
	}
	if _, err := w.Write(b); err != nil {
		return eris.Wrap(err, "stats: write csv")
	}
	return nil
}

// WriteXLSX writes the full report as a workbook with one sheet per section.
func (r *Report) WriteXLSX(w io.Writer) error {
	file := xlsx.NewFile()

	if err := r.writeOverviewSheet(file); err != nil {
		return err
	}
	if err := r.writeEnumeratorSheet(file); err != nil {
		return err
	}
	if err := r.writeVariableSheet(file); err != nil {
		return err
	}
	if err := r.writeSuspectSheet(file); err != nil {
		return err
	}

	return eris.Wrap(file.Write(w), "stats: write xlsx")
}

func (r *Report) writeOverviewSheet(file *xlsx.File) error {
	sheet, err := file.AddSheet("Overview")
	if err != nil {
		return eris.Wrap(err, "stats: add overview sheet")
	}
	addRow(sheet, "Metric", "Value")
	addRow(sheet, "Constraint Errors", fmt.Sprint(r.Overview.ConstraintErrors))
	addRow(sheet, "Logic Errors", fmt.Sprint(r.Overview.LogicErrors))
	addRow(sheet, "Total Errors", fmt.Sprint(r.Overview.TotalErrors))
	addRow(sheet, "Farmers Affected", fmt.Sprint(r.Overview.SubjectsAffected))
	return nil
}

func (r *Report) writeEnumeratorSheet(file *xlsx.File) error {
	sheet, err := file.AddSheet("Enumerators")
	if err != nil {
		return eris.Wrap(err, "stats: add enumerator sheet")
	}
	addRow(sheet, "Username", "Total Errors", "Solved", "Remaining", "Progress (%)")
	for _, s := range r.Enumerators {
		addRow(sheet, s.Username, fmt.Sprint(s.Total), fmt.Sprint(s.Solved),
			fmt.Sprint(s.Remaining), fmt.Sprintf("%.1f", s.Progress))
	}
	return nil
}

func (r *Report) writeVariableSheet(file *xlsx.File) error {
	sheet, err := file.AddSheet("Variables")
	if err != nil {
		return eris.Wrap(err, "stats: add variable sheet")
	}
	addRow(sheet, "Variable", "Category", "Error Count")
	for _, v := range r.TopVariables {
		addRow(sheet, v.Variable, string(v.Category), fmt.Sprint(v.Count))
	}
	return nil
}

func (r *Report) writeSuspectSheet(file *xlsx.File) error {
	sheet, err := file.AddSheet("Suspects")
	if err != nil {
		return eris.Wrap(err, "stats: add suspect sheet")
	}
	addRow(sheet, "Kind", "Variable", "Enumerator", "Farmer", "Detail")
	for _, s := range r.Suspects {
		addRow(sheet, string(s.Kind), s.Variable, s.Enumerator, s.FarmerName, s.Detail)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}
