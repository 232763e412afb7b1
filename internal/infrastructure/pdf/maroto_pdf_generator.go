// Package pdf genera la representación impresa de compras, ventas y pagos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento   │  N° + Fecha + Estado         │
//	│  TERCERO: Nombre + NIT/CC + saldo vigente                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Total                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Total / Pagado / Saldo pendiente                   │
//	│  FOOTER: QR de consulta + leyenda de anulación               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 20, Blue: 20}
)

var kindTitles = map[entity.DocumentKind]string{
	entity.DocumentPurchase:   "FACTURA DE COMPRA",
	entity.DocumentSale:       "FACTURA DE VENTA",
	entity.DocumentPaymentOut: "COMPROBANTE DE PAGO",
	entity.DocumentPaymentIn:  "RECIBO DE CAJA",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ reports.DocumentRenderer = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa reports.DocumentRenderer usando Maroto v2.
type MarotoPDFGenerator struct {
	// BaseURL si no está vacío se imprime un QR con BaseURL + "/documents/" + ID.
	BaseURL string
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator(baseURL string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{BaseURL: strings.TrimRight(baseURL, "/")}
}

// RenderDocument genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderDocument(_ context.Context, sheet reports.DocumentSheet) ([]byte, error) {
	doc := sheet.Document
	if doc == nil {
		return nil, fmt.Errorf("pdf: documento vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title(doc.Kind)+" "+doc.DocumentNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partyRow(doc, sheet.Party))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(sheet.Items) > 0 {
		m.AddRows(tableHeaderRow())
		m.AddRows(tableDetailRows(sheet.Items)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}
	m.AddRows(totalsRow(doc))
	if doc.Notes != "" {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Notas: "+doc.Notes, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRows(doc)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(doc *entity.Document) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(title(doc.Kind), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Pago: "+paymentLabel(doc.PaymentStatus), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("N° "+doc.DocumentNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+doc.Date.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Estado: "+statusLabel(doc.Status), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: statusColor(doc.Status),
			}),
		),
	)
}

func partyRow(doc *entity.Document, party *entity.Party) core.Row {
	heading := "PROVEEDOR"
	if doc.Kind == entity.DocumentSale || doc.Kind == entity.DocumentPaymentIn {
		heading = "CLIENTE"
	}
	name := nonEmpty(doc.PartyName, "Contado")
	detail := "Sin tercero registrado"
	if party != nil {
		name = party.Name
		detail = fmt.Sprintf("NIT/CC: %s   |   Tel: %s   |   Saldo vigente: $%s",
			nonEmpty(party.TaxID, "-"), nonEmpty(party.Phone, "-"), money(party.CurrentBalance))
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New(heading, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(detail, props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 2, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Total", 3, align.Right),
	)
}

func tableDetailRows(items []*entity.LineItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(nonEmpty(it.Description, it.ProductID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New("$"+money(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New("$"+money(it.LineTotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(doc *entity.Document) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total:"),
			label("Pagado:"),
			label("Saldo pendiente:"),
		),
		col.New(3).Add(
			value("$"+money(doc.GrandTotal)),
			value("$"+money(doc.AmountPaid)),
			value("$"+money(doc.Outstanding())),
		),
	)
}

func (g *MarotoPDFGenerator) footerRows(doc *entity.Document) []core.Row {
	var rows []core.Row
	if doc.Status == entity.StatusCancelled {
		rows = append(rows, row.New(12).Add(col.New(12).Add(
			text.New("DOCUMENTO ANULADO", props.Text{
				Style: fontstyle.Bold, Size: 14, Align: align.Center, Color: colorRed, Top: 2,
			}),
		)))
	}
	if g.BaseURL != "" {
		rows = append(rows, row.New(40).Add(
			col.New(3).Add(code.NewQr(g.BaseURL+"/documents/"+doc.ID, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(text.New("Escanea el código para consultar el documento y sus movimientos.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			})),
		))
	}
	rows = append(rows, row.New(6).Add(col.New(12).Add(
		text.New("ID interno: "+doc.ID, props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func title(kind entity.DocumentKind) string {
	if t, ok := kindTitles[kind]; ok {
		return t
	}
	return strings.ToUpper(string(kind))
}

func paymentLabel(s entity.PaymentStatus) string {
	switch s {
	case entity.PaymentPaid:
		return "pagado"
	case entity.PaymentPartial:
		return "parcial"
	}
	return "pendiente"
}

func statusLabel(s entity.DocumentStatus) string {
	switch s {
	case entity.StatusFinalized:
		return "finalizado"
	case entity.StatusCancelled:
		return "anulado"
	case entity.StatusPendingReconciliation, entity.StatusReversalPending:
		return "en reconciliación"
	}
	return "borrador"
}

func statusColor(s entity.DocumentStatus) *props.Color {
	if s == entity.StatusCancelled {
		return colorRed
	}
	return colorGray
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea con puntos de miles y coma decimal: 1234567.5 → "1.234.567,50".
func money(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
