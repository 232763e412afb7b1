package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/posting"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DocumentWriter valida y persiste encabezado y líneas de un documento.
type DocumentWriter struct {
	validate *validator.Validate
	newID    func() string
	now      func() time.Time
}

// NewDocumentWriter construye el escritor.
func NewDocumentWriter(newID func() string, now func() time.Time) *DocumentWriter {
	return &DocumentWriter{validate: validator.New(), newID: newID, now: now}
}

// Prepare valida la solicitud y arma el documento en estado borrador con su ID definitivo.
// No toca el almacén; las referencias se resuelven en Resolve.
func (w *DocumentWriter) Prepare(tc domain.TenantContext, kind entity.DocumentKind, in dto.CreateDocumentRequest) (*entity.Document, []*entity.LineItem, error) {
	if !kind.Valid() {
		return nil, nil, domain.NewValidationError("kind", "tipo de documento desconocido")
	}
	if err := w.validate.Struct(in); err != nil {
		return nil, nil, toValidationError(err)
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, nil, domain.NewValidationError("date", "formato esperado YYYY-MM-DD")
	}
	if in.GrandTotal.IsNegative() {
		return nil, nil, domain.NewValidationError("grand_total", "no puede ser negativo")
	}
	if in.AmountPaid.IsNegative() || in.AmountPaid.GreaterThan(in.GrandTotal) {
		return nil, nil, domain.NewValidationError("amount_paid", "debe estar entre 0 y grand_total")
	}
	if kind.CarriesItems() && len(in.Items) == 0 {
		return nil, nil, domain.NewValidationError("items", "el documento requiere al menos una línea")
	}
	if !kind.CarriesItems() && len(in.Items) > 0 {
		return nil, nil, domain.NewValidationError("items", "los pagos no llevan líneas")
	}

	now := w.now().UTC()
	doc := &entity.Document{
		ID:             w.newID(),
		TenantID:       tc.TenantID,
		Kind:           kind,
		DocumentNumber: strings.TrimSpace(in.DocumentNumber),
		PartyID:        in.PartyID,
		PartyName:      in.PartyName,
		Date:           date,
		GrandTotal:     in.GrandTotal,
		Status:         entity.StatusDraft,
		Notes:          in.Notes,
		CreatedBy:      tc.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	paid, status, err := resolvePayment(in.PaymentStatus, in.GrandTotal, in.AmountPaid)
	if err != nil {
		return nil, nil, err
	}
	doc.AmountPaid, doc.PaymentStatus = paid, status
	cashSale := kind.CarriesItems() && status == entity.PaymentPaid
	if doc.PartyID == "" && !cashSale {
		return nil, nil, domain.NewValidationError("party_id", "requerido salvo en documentos pagados de contado")
	}

	items := make([]*entity.LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == "" && strings.TrimSpace(it.Description) == "" {
			return nil, nil, domain.NewValidationError(field, "requiere product_id o description")
		}
		if !it.Quantity.IsPositive() {
			return nil, nil, domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		if it.UnitPrice.IsNegative() {
			return nil, nil, domain.NewValidationError(field+".unit_price", "no puede ser negativo")
		}
		lineTotal := it.Quantity.Mul(it.UnitPrice)
		if it.LineTotal != nil {
			if !posting.WithinTolerance(*it.LineTotal, lineTotal) {
				return nil, nil, domain.NewValidationError(field+".line_total", "no coincide con quantity * unit_price")
			}
			lineTotal = *it.LineTotal
		}
		items = append(items, &entity.LineItem{
			ID:          w.newID(),
			DocumentID:  doc.ID,
			Position:    i + 1,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   lineTotal,
		})
	}
	if kind.CarriesItems() && !posting.WithinTolerance(posting.SumLines(items), doc.GrandTotal) {
		return nil, nil, domain.NewValidationError("grand_total", "no coincide con la suma de las líneas")
	}
	return doc, items, nil
}

// resolvePayment normaliza amount_paid según payment_status.
func resolvePayment(status string, total, paid decimal.Decimal) (decimal.Decimal, entity.PaymentStatus, error) {
	switch entity.PaymentStatus(status) {
	case "":
		return paid, posting.PaymentStatusFor(total, paid), nil
	case entity.PaymentPaid:
		if paid.IsZero() {
			paid = total
		}
		if !paid.Equal(total) {
			return paid, "", domain.NewValidationError("amount_paid", "un documento pagado debe tener amount_paid = grand_total")
		}
		return paid, entity.PaymentPaid, nil
	case entity.PaymentUnpaid:
		if !paid.IsZero() {
			return paid, "", domain.NewValidationError("amount_paid", "un documento sin pagar no lleva amount_paid")
		}
		return paid, entity.PaymentUnpaid, nil
	case entity.PaymentPartial:
		if !paid.IsPositive() || !paid.LessThan(total) {
			return paid, "", domain.NewValidationError("amount_paid", "pago parcial debe ser mayor que 0 y menor que grand_total")
		}
		return paid, entity.PaymentPartial, nil
	}
	return paid, "", domain.NewValidationError("payment_status", "valor desconocido")
}

// Resolve verifica que productos y tercero existan dentro del tenant.
func (w *DocumentWriter) Resolve(ctx context.Context, s repository.Stores, doc *entity.Document, items []*entity.LineItem) error {
	if doc.PartyID != "" {
		party, err := s.Parties.GetByID(ctx, doc.TenantID, doc.PartyID)
		if err != nil {
			return fmt.Errorf("get party: %w", err)
		}
		if party == nil {
			return domain.PartyNotFound(doc.PartyID)
		}
		if doc.PartyName == "" {
			doc.PartyName = party.Name
		}
	}
	seen := make(map[string]bool)
	for _, it := range items {
		if it.ProductID == "" || seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		p, err := s.Products.GetByID(ctx, doc.TenantID, it.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if p == nil {
			return domain.ProductNotFound(it.ProductID)
		}
		if it.Description == "" {
			it.Description = p.Name
		}
	}
	return nil
}

// Write persiste encabezado (borrador) y las líneas que falten. Es reejecutable:
// si el encabezado ya existe lo devuelve y solo inserta las posiciones ausentes.
// Si las líneas fallan con el encabezado ya persistido devuelve PartialWriteError.
func (w *DocumentWriter) Write(ctx context.Context, s repository.Stores, doc *entity.Document, items []*entity.LineItem) (*entity.Document, error) {
	stored, err := s.Documents.GetByID(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if stored == nil {
		if err := s.Documents.Create(ctx, doc); err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}
		stored = doc
	}
	if len(items) == 0 {
		return stored, nil
	}

	existing, err := s.Documents.GetItems(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return stored, &domain.PartialWriteError{DocumentID: doc.ID, Err: err}
	}
	have := make(map[int]bool, len(existing))
	for _, it := range existing {
		have[it.Position] = true
	}
	missing := make([]*entity.LineItem, 0, len(items))
	for _, it := range items {
		if !have[it.Position] {
			missing = append(missing, it)
		}
	}
	if len(missing) == 0 {
		return stored, nil
	}
	if err := s.Documents.CreateItems(ctx, doc.TenantID, missing); err != nil {
		return stored, &domain.PartialWriteError{DocumentID: doc.ID, Err: err}
	}
	return stored, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(jsonField(fe.Namespace()), fmt.Sprintf("regla %q no cumplida", fe.Tag()))
	}
	return domain.NewValidationError("", err.Error())
}

// jsonField convierte "CreateDocumentRequest.Items[0].ProductID" en "Items[0].ProductID".
func jsonField(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
