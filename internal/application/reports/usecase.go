// Package reports consultas de lectura sobre los libros: estado de cuenta,
// kardex, auditoría de stock, libro de caja y representaciones impresas.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/catalog"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase reportes por tenant. Nunca escribe.
type UseCase struct {
	uow      ledger.UnitOfWork
	renderer DocumentRenderer
	exporter StatementExporter
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso. renderer y exporter pueden ser nil si no se ofrecen esos formatos.
func NewUseCase(uow ledger.UnitOfWork, renderer DocumentRenderer, exporter StatementExporter, log zerolog.Logger) *UseCase {
	return &UseCase{uow: uow, renderer: renderer, exporter: exporter, log: log}
}

// PartyStatement asientos aplicados del tercero con saldo corrido.
// Con from definido el saldo inicial es la suma de asientos anteriores.
func (uc *UseCase) PartyStatement(ctx context.Context, tc domain.TenantContext, partyID string, from, to *time.Time) (*dto.PartyStatementResponse, error) {
	var out *dto.PartyStatementResponse
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		party, err := s.Parties.GetByID(ctx, tc.TenantID, partyID)
		if err != nil {
			return err
		}
		if party == nil {
			return domain.PartyNotFound(partyID)
		}
		opening := decimal.Zero
		if from != nil {
			if opening, err = s.Entries.BalanceBefore(ctx, tc.TenantID, partyID, *from); err != nil {
				return fmt.Errorf("balance before: %w", err)
			}
		}
		entries, err := s.Entries.ListByParty(ctx, tc.TenantID, partyID, from, to)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })

		docs := make(map[string]*entity.Document)
		running := opening
		lines := make([]dto.StatementLine, 0, len(entries))
		for _, e := range entries {
			if !e.Applied() {
				continue
			}
			doc, ok := docs[e.DocumentID]
			if !ok {
				if doc, err = s.Documents.GetByID(ctx, tc.TenantID, e.DocumentID); err != nil {
					return err
				}
				docs[e.DocumentID] = doc
			}
			running = running.Add(e.Amount)
			line := dto.StatementLine{
				EntryID:    e.ID,
				DocumentID: e.DocumentID,
				EntryType:  string(e.EntryType),
				Date:       e.CreatedAt,
				Amount:     e.Amount,
				Balance:    running,
			}
			if doc != nil {
				line.DocumentNumber = doc.DocumentNumber
				line.Kind = string(doc.Kind)
				line.Date = doc.Date
			}
			lines = append(lines, line)
		}
		out = &dto.PartyStatementResponse{
			Party:          *catalog.ToPartyResponse(party),
			From:           from,
			To:             to,
			OpeningBalance: opening,
			ClosingBalance: running,
			Lines:          lines,
		}
		return nil
	})
	return out, err
}

// StockCard kardex del producto con cantidad corrida sobre movimientos aplicados.
func (uc *UseCase) StockCard(ctx context.Context, tc domain.TenantContext, productID string, from, to *time.Time) (*dto.StockCardResponse, error) {
	var out *dto.StockCardResponse
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		product, err := s.Products.GetByID(ctx, tc.TenantID, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ProductNotFound(productID)
		}
		// la cantidad corrida necesita todo el historial; el rango solo filtra renglones
		movements, err := s.Movements.ListByProduct(ctx, tc.TenantID, productID, nil, to, 0, 0)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		sort.SliceStable(movements, func(i, j int) bool { return movements[i].CreatedAt.Before(movements[j].CreatedAt) })

		qty := decimal.Zero
		lines := make([]dto.StockCardLine, 0, len(movements))
		for _, m := range movements {
			if !m.Applied() {
				continue
			}
			qty = qty.Add(m.DeltaQuantity)
			if from != nil && m.CreatedAt.Before(*from) {
				continue
			}
			lines = append(lines, dto.StockCardLine{
				MovementID:          m.ID,
				ReferenceDocumentID: m.ReferenceDocumentID,
				Type:                string(m.Type),
				Date:                m.CreatedAt,
				Delta:               m.DeltaQuantity,
				Quantity:            qty,
			})
		}
		out = &dto.StockCardResponse{Product: *catalog.ToProductResponse(product), Lines: lines}
		return nil
	})
	return out, err
}

// StockAudit compara la cantidad en caché con la suma del libro de movimientos.
func (uc *UseCase) StockAudit(ctx context.Context, tc domain.TenantContext, productID string) (*dto.StockAuditResponse, error) {
	var out *dto.StockAuditResponse
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		product, err := s.Products.GetByID(ctx, tc.TenantID, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ProductNotFound(productID)
		}
		sum, err := s.Products.LedgerQuantity(ctx, tc.TenantID, productID)
		if err != nil {
			return fmt.Errorf("ledger quantity: %w", err)
		}
		out = &dto.StockAuditResponse{
			ProductID:      productID,
			CachedQuantity: product.StockQuantity,
			LedgerQuantity: sum,
			Consistent:     sum.Equal(product.StockQuantity),
		}
		return nil
	})
	if err == nil && !out.Consistent {
		uc.log.Warn().Str("tenant_id", tc.TenantID).Str("product_id", productID).
			Str("cached", out.CachedQuantity.String()).Str("ledger", out.LedgerQuantity.String()).
			Msg("stock en caché no coincide con el libro de movimientos")
	}
	return out, err
}

// Cashbook entradas y salidas de caja de los documentos finalizados del periodo.
// Ventas y cobros suman; compras y pagos restan. Los anulados no cuentan.
func (uc *UseCase) Cashbook(ctx context.Context, tc domain.TenantContext, from, to *time.Time) (*dto.CashbookResponse, error) {
	var docs []*entity.Document
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		docs, err = s.Documents.List(ctx, tc.TenantID, repository.DocumentFilter{
			Status: entity.StatusFinalized, From: from, To: to,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &dto.CashbookResponse{From: from, To: to, TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	balance := decimal.Zero
	for _, d := range docs {
		if !d.AmountPaid.IsPositive() {
			continue
		}
		line := dto.CashbookLine{
			DocumentID:     d.ID,
			DocumentNumber: d.DocumentNumber,
			Kind:           string(d.Kind),
			Date:           d.Date,
			CashIn:         decimal.Zero,
			CashOut:        decimal.Zero,
		}
		switch d.Kind {
		case entity.DocumentSale, entity.DocumentPaymentIn:
			line.CashIn = d.AmountPaid
			out.TotalIn = out.TotalIn.Add(d.AmountPaid)
			balance = balance.Add(d.AmountPaid)
		default:
			line.CashOut = d.AmountPaid
			out.TotalOut = out.TotalOut.Add(d.AmountPaid)
			balance = balance.Sub(d.AmountPaid)
		}
		line.Balance = balance
		out.Lines = append(out.Lines, line)
	}
	out.Net = balance
	return out, nil
}

// DocumentPDF representación impresa del documento.
func (uc *UseCase) DocumentPDF(ctx context.Context, tc domain.TenantContext, documentID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("pdf: %w", domain.ErrInvalidInput)
	}
	var sheet DocumentSheet
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		doc, err := s.Documents.GetByID(ctx, tc.TenantID, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.DocumentNotFound(documentID)
		}
		items, err := s.Documents.GetItems(ctx, tc.TenantID, documentID)
		if err != nil {
			return err
		}
		sheet = DocumentSheet{Document: doc, Items: items}
		if doc.PartyID != "" {
			if sheet.Party, err = s.Parties.GetByID(ctx, tc.TenantID, doc.PartyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderDocument(ctx, sheet)
}

// StatementXLSX estado de cuenta exportado a hoja de cálculo.
func (uc *UseCase) StatementXLSX(ctx context.Context, tc domain.TenantContext, partyID string, from, to *time.Time) ([]byte, error) {
	if uc.exporter == nil {
		return nil, fmt.Errorf("xlsx: %w", domain.ErrInvalidInput)
	}
	st, err := uc.PartyStatement(ctx, tc, partyID, from, to)
	if err != nil {
		return nil, err
	}
	return uc.exporter.ExportStatement(ctx, st)
}
