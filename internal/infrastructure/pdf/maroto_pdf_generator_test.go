package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	tests := map[string]string{
		"0":          "0,00",
		"110":        "110,00",
		"1234567.5":  "1.234.567,50",
		"-25000":     "-25.000,00",
		"999.999":    "1.000,00",
		"1000000.01": "1.000.000,01",
	}
	for in, want := range tests {
		assert.Equal(t, want, money(decimal.RequireFromString(in)), in)
	}
}

func TestRenderDocument(t *testing.T) {
	g := NewMarotoPDFGenerator("https://ledger.local/")
	doc := &entity.Document{
		ID: "d1", Kind: entity.DocumentPurchase, DocumentNumber: "FC-001",
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), GrandTotal: decimal.NewFromInt(110),
		Status: entity.StatusCancelled, PaymentStatus: entity.PaymentUnpaid, Notes: "entrega parcial",
	}
	items := []*entity.LineItem{
		{Position: 1, ProductID: "A", Description: "Arroz", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(50)},
		{Position: 2, ProductID: "B", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(60)},
	}

	out, err := g.RenderDocument(context.Background(), reports.DocumentSheet{
		Document: doc, Items: items,
		Party: &entity.Party{Name: "Proveedor Uno", CurrentBalance: decimal.NewFromInt(-110)},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.RenderDocument(context.Background(), reports.DocumentSheet{})
	assert.Error(t, err)
}
