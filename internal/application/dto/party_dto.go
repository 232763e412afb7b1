package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePartyRequest body para POST /api/parties.
type CreatePartyRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Kind  string `json:"kind" validate:"required,oneof=supplier customer both"`
	TaxID string `json:"tax_id" validate:"max=50"`
	Phone string `json:"phone" validate:"max=50"`
}

// PartyResponse tercero en respuestas.
type PartyResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	TaxID          string          `json:"tax_id,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}
