package export

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"guias/internal/errs"
)

const defaultSheet = "Guias"

// DefaultGuideColumns is the column order used for guide listings. Keys not listed here are
// appended in alphabetical order when WriteXLSX is asked to include them.
var DefaultGuideColumns = []string{
	"codigo_guia",
	"codigo_proveedor",
	"nombre_proveedor",
	"placa",
	"tipo_fruta",
	"cantidad_racimos",
	"estado",
	"fecha_registro",
	"hora_registro",
	"peso_bruto",
	"tipo_pesaje",
	"fecha_pesaje",
	"hora_pesaje",
	"peso_tara",
	"peso_neto",
	"peso_producto",
	"fecha_salida",
	"hora_salida",
}

type Options struct {
	Sheet   string
	Columns []string
	// IncludeExtra appends every key found in the rows but missing from Columns.
	IncludeExtra bool
}

// WriteXLSX renders rows as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, rows []map[string]any, opts Options) error {
	if w == nil {
		return errors.New("writer is required")
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	columns := opts.Columns
	if len(columns) == 0 {
		columns = DefaultGuideColumns
	}
	if opts.IncludeExtra {
		columns = withExtraColumns(columns, rows)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errs.Wrap(err, "rename sheet")
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errs.Wrap(err, "write header row")
	}

	for i, row := range rows {
		values := make([]any, len(columns))
		for j, column := range columns {
			values[j] = cellValue(row[column])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errs.Wrapf(err, "cell for row %d", i+2)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errs.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return errs.Wrap(err, "freeze header")
	}

	if _, err := f.WriteTo(w); err != nil {
		return errs.Wrap(err, "write workbook")
	}
	return nil
}

func withExtraColumns(columns []string, rows []map[string]any) []string {
	seen := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		seen[column] = struct{}{}
	}

	var extra []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)

	out := make([]string, 0, len(columns)+len(extra))
	out = append(out, columns...)
	return append(out, extra...)
}

func cellValue(v any) any {
	switch value := v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return value
	default:
		return fmt.Sprint(value)
	}
}
