package order

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// BuildWorkbook converts a confirmed order summary into an .xlsx file with
// CodigoArticulo/Unidades columns, ready to attach to the account-manager
// notification. The file is written under dir and its path returned.
func BuildWorkbook(confirmedText, dir string) (string, error) {
	lines, err := ParseConfirmed(confirmedText)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Pedido"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("order: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"CodigoArticulo", "Unidades"}); err != nil {
		return "", fmt.Errorf("order: write header: %w", err)
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("order: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{line.Code, line.Quantity}); err != nil {
			return "", fmt.Errorf("order: write row: %w", err)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("pedido_%s.xlsx", uuid.NewString()))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("order: save workbook: %w", err)
	}
	return path, nil
}
