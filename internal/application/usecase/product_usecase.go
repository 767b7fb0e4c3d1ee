// Package usecase agrupa los casos de uso de catálogo: productos, clientes y
// empresas emisoras. La facturación y el stock tienen sus propios paquetes.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
	"github.com/gestionpos/facturacion-api/pkg/afip"
)

// ProductUseCase CRUD de productos del catálogo.
type ProductUseCase struct {
	productRepo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(productRepo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo}
}

// CreateProduct da de alta un producto. El SKU es único por empresa.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, companyID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, ok := afip.IVARatePercent[in.IVARateID]; !ok {
		return nil, fmt.Errorf("%w: alícuota de IVA %d", domain.ErrInvalidInput, in.IVARateID)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: el precio debe ser positivo", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: el stock inicial no puede ser negativo", domain.ErrInvalidInput)
	}

	if existing, err := uc.productRepo.GetByCompanyAndSKU(companyID, in.SKU); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: SKU %q", domain.ErrDuplicate, in.SKU)
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Cost:        in.Cost,
		IVARateID:   in.IVARateID,
		Stock:       in.Stock,
		UnitMeasure: in.UnitMeasure,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetProduct devuelve un producto de la empresa.
func (uc *ProductUseCase) GetProduct(ctx context.Context, companyID, productID string) (*dto.ProductResponse, error) {
	product, err := uc.ownedProduct(companyID, productID)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// UpdateProduct modifica los datos comerciales de un producto. El stock no se
// toca acá: solo cambia por movimientos.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, companyID, productID string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if _, ok := afip.IVARatePercent[in.IVARateID]; !ok {
		return nil, fmt.Errorf("%w: alícuota de IVA %d", domain.ErrInvalidInput, in.IVARateID)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: el precio debe ser positivo", domain.ErrInvalidInput)
	}
	product, err := uc.ownedProduct(companyID, productID)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Cost = in.Cost
	product.IVARateID = in.IVARateID
	product.UnitMeasure = in.UnitMeasure
	product.UpdatedAt = time.Now()

	if err := uc.productRepo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// ListProducts lista los productos de la empresa.
func (uc *ProductUseCase) ListProducts(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.ProductResponse, error) {
	page.DefaultPage()
	products, err := uc.productRepo.ListByCompany(companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func (uc *ProductUseCase) ownedProduct(companyID, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Cost:        p.Cost,
		IVARateID:   p.IVARateID,
		Stock:       p.Stock,
		UnitMeasure: p.UnitMeasure,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
