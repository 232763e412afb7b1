package reports

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// DocumentSheet datos para la representación impresa de un documento.
type DocumentSheet struct {
	Document *entity.Document
	Items    []*entity.LineItem
	Party    *entity.Party // nil en compras/ventas de contado sin tercero
}

// DocumentRenderer genera el PDF de un documento (implementado en infrastructure/pdf).
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, sheet DocumentSheet) ([]byte, error)
}

// StatementExporter exporta el estado de cuenta a hoja de cálculo (implementado en infrastructure/excel).
type StatementExporter interface {
	ExportStatement(ctx context.Context, st *dto.PartyStatementResponse) ([]byte, error)
}
