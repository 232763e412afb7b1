// Package catalog casos de uso de productos y terceros. El stock y el saldo
// nunca se editan aquí: solo cambian a través de documentos.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// ProductUseCase CRUD de productos por tenant.
type ProductUseCase struct {
	uow ledger.UnitOfWork
	now func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(uow ledger.UnitOfWork) *ProductUseCase {
	return &ProductUseCase{uow: uow, now: time.Now}
}

// Create crea un producto con stock cero.
func (uc *ProductUseCase) Create(ctx context.Context, tc domain.TenantContext, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, domain.NewValidationError("", err.Error())
	}
	if in.Price.IsNegative() || in.ReorderPoint.IsNegative() {
		return nil, domain.NewValidationError("price", "no puede ser negativo")
	}
	if in.Unit == "" {
		in.Unit = "und"
	}
	now := uc.now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		TenantID:      tc.TenantID,
		SKU:           strings.TrimSpace(in.SKU),
		Name:          in.Name,
		Unit:          in.Unit,
		Price:         in.Price,
		StockQuantity: decimal.Zero,
		ReorderPoint:  in.ReorderPoint,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		existing, err := s.Products.GetBySKU(ctx, tc.TenantID, product.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return s.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto del tenant.
func (uc *ProductUseCase) GetByID(ctx context.Context, tc domain.TenantContext, id string) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		product, err = s.Products.GetByID(ctx, tc.TenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ProductNotFound(id)
	}
	return ToProductResponse(product), nil
}

// Update modifica los datos descriptivos. La cantidad en stock no se toca.
func (uc *ProductUseCase) Update(ctx context.Context, tc domain.TenantContext, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, domain.NewValidationError("", err.Error())
	}
	var product *entity.Product
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		product, err = s.Products.GetByID(ctx, tc.TenantID, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ProductNotFound(id)
		}
		if in.Name != nil {
			product.Name = *in.Name
		}
		if in.Unit != nil {
			product.Unit = *in.Unit
		}
		if in.Price != nil {
			if in.Price.IsNegative() {
				return domain.NewValidationError("price", "no puede ser negativo")
			}
			product.Price = *in.Price
		}
		if in.ReorderPoint != nil {
			if in.ReorderPoint.IsNegative() {
				return domain.NewValidationError("reorder_point", "no puede ser negativo")
			}
			product.ReorderPoint = *in.ReorderPoint
		}
		product.UpdatedAt = uc.now().UTC()
		return s.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// List lista productos del tenant con paginación.
func (uc *ProductUseCase) List(ctx context.Context, tc domain.TenantContext, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.Normalize()
	var list []*entity.Product
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		list, err = s.Products.List(ctx, tc.TenantID, page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	}, nil
}

// ToProductResponse mapea la entidad; BelowReorder solo aplica con punto de reorden positivo.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		SKU:           p.SKU,
		Name:          p.Name,
		Unit:          p.Unit,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ReorderPoint:  p.ReorderPoint,
		BelowReorder:  p.ReorderPoint.IsPositive() && p.StockQuantity.LessThan(p.ReorderPoint),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
