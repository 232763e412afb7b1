// Package excel exporta reportes del libro a XLSX con excelize.
package excel

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/xuri/excelize/v2"
)

const statementSheet = "Estado de cuenta"

var _ reports.StatementExporter = (*StatementExporter)(nil)

// StatementExporter escribe el estado de cuenta de un tercero en una hoja.
type StatementExporter struct{}

// NewStatementExporter construye el exportador.
func NewStatementExporter() *StatementExporter { return &StatementExporter{} }

// ExportStatement devuelve el libro XLSX. Montos como números para que la hoja pueda sumarlos.
func (e *StatementExporter) ExportStatement(_ context.Context, st *dto.PartyStatementResponse) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("xlsx: estado de cuenta vacío")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), statementSheet); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	header := [][]interface{}{
		{"Tercero", st.Party.Name},
		{"NIT/CC", st.Party.TaxID},
		{"Saldo inicial", st.OpeningBalance.InexactFloat64()},
		{},
		{"Fecha", "Documento", "Tipo", "Asiento", "Monto", "Saldo"},
	}
	for i, values := range header {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(statementSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: encabezado: %w", err)
		}
	}
	_ = f.SetCellStyle(statementSheet, "A1", "A3", bold)
	_ = f.SetCellStyle(statementSheet, "A5", "F5", bold)
	_ = f.SetCellStyle(statementSheet, "B3", "B3", money)

	row := len(header) + 1
	for _, l := range st.Lines {
		values := []interface{}{
			l.Date.Format("2006-01-02"),
			l.DocumentNumber,
			l.Kind,
			l.EntryType,
			l.Amount.InexactFloat64(),
			l.Balance.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("xlsx: celda: %w", err)
		}
		if err := f.SetSheetRow(statementSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", row, err)
		}
		row++
	}

	closing := []interface{}{"", "", "", "Saldo final", "", st.ClosingBalance.InexactFloat64()}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(statementSheet, cell, &closing); err != nil {
		return nil, fmt.Errorf("xlsx: saldo final: %w", err)
	}
	_ = f.SetCellStyle(statementSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), bold)
	_ = f.SetCellStyle(statementSheet, "E6", fmt.Sprintf("F%d", row), money)
	_ = f.SetColWidth(statementSheet, "A", "F", 16)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
