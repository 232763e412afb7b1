package posting

import (
	"sort"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TotalsTolerance diferencia máxima aceptada entre la suma de líneas y el total del documento.
var TotalsTolerance = decimal.NewFromFloat(0.01)

// StockSign signo de la cantidad en inventario según el tipo de documento (servicio de dominio).
// Compra suma, venta resta; los pagos no mueven inventario.
func StockSign(kind entity.DocumentKind) int {
	switch kind {
	case entity.DocumentPurchase:
		return 1
	case entity.DocumentSale:
		return -1
	default:
		return 0
	}
}

// MovementTypeFor tipo de movimiento que genera cada documento con líneas.
func MovementTypeFor(kind entity.DocumentKind) entity.MovementType {
	if kind == entity.DocumentSale {
		return entity.MovementSaleDispatched
	}
	return entity.MovementPurchaseReceived
}

// BalanceDelta delta neto sobre el saldo del tercero.
//
//	compra:        -(total - pagado)  → aumenta lo que debemos
//	venta:         +(total - pagado)  → aumenta lo que nos deben
//	pago emitido:  +monto             → reduce lo que debemos
//	cobro:         -monto             → reduce lo que nos deben
//
// Un documento creado como pagado produce un único delta combinado igual a cero.
func BalanceDelta(doc *entity.Document) decimal.Decimal {
	switch doc.Kind {
	case entity.DocumentPurchase:
		return doc.Outstanding().Neg()
	case entity.DocumentSale:
		return doc.Outstanding()
	case entity.DocumentPaymentOut:
		return doc.GrandTotal
	case entity.DocumentPaymentIn:
		return doc.GrandTotal.Neg()
	}
	return decimal.Zero
}

// ProductDelta efecto agregado de un documento sobre un producto.
type ProductDelta struct {
	ProductID string
	Delta     decimal.Decimal
}

// StockDeltas agrega las líneas por producto y devuelve los deltas ordenados por ID,
// de modo que dos documentos concurrentes incrementen filas en el mismo orden.
// Las líneas sin producto (texto libre) no generan movimiento.
func StockDeltas(kind entity.DocumentKind, items []*entity.LineItem) []ProductDelta {
	sign := StockSign(kind)
	if sign == 0 {
		return nil
	}
	acc := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.ProductID == "" {
			continue
		}
		acc[it.ProductID] = acc[it.ProductID].Add(it.Quantity)
	}
	out := make([]ProductDelta, 0, len(acc))
	for id, qty := range acc {
		if sign < 0 {
			qty = qty.Neg()
		}
		out = append(out, ProductDelta{ProductID: id, Delta: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// SumLines suma los totales de línea.
func SumLines(items []*entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// WithinTolerance compara dos montos con la tolerancia de totales.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(TotalsTolerance)
}

// PaymentStatusFor deriva el estado de pago a partir del monto pagado.
func PaymentStatusFor(total, paid decimal.Decimal) entity.PaymentStatus {
	switch {
	case paid.IsZero():
		return entity.PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return entity.PaymentPaid
	default:
		return entity.PaymentPartial
	}
}
