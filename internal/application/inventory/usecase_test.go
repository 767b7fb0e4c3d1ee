package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/application/inventory"
	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

// ── Fakes en memoria ──────────────────────────────────────────────────────────

type memProductRepo struct {
	products map[string]*entity.Product
}

func (r *memProductRepo) Create(p *entity.Product) error  { r.products[p.ID] = p; return nil }
func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memProductRepo) GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (r *memProductRepo) Update(p *entity.Product) error { r.products[p.ID] = p; return nil }
func (r *memProductRepo) AdjustStock(productID string, delta int) (int, error) {
	p, ok := r.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.Stock += delta
	return p.Stock, nil
}
func (r *memProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

type memMovementRepo struct {
	movements []*entity.StockMovement
}

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}
func (r *memMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (r *memMovementRepo) ListByDocument(documentID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.movements {
		if m.DocumentID != nil && *m.DocumentID == documentID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memDocumentRepo struct {
	docs map[string]*entity.Document
}

func (r *memDocumentRepo) Create(d *entity.Document) error { r.docs[d.ID] = d; return nil }
func (r *memDocumentRepo) GetByID(id string) (*entity.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}
func (r *memDocumentRepo) Update(d *entity.Document) error { r.docs[d.ID] = d; return nil }
func (r *memDocumentRepo) NextSequential(companyID string, voucherType, pointOfSale int) (int64, error) {
	return 1, nil
}
func (r *memDocumentRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Document, error) {
	return nil, nil
}

// memTxRunner ejecuta fn directo y revierte el stock si fn falla, imitando el
// rollback transaccional.
type memTxRunner struct {
	products  *memProductRepo
	movements *memMovementRepo
}

func (r *memTxRunner) RunInventory(ctx context.Context, fn func(
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	before := make(map[string]int, len(r.products.products))
	for id, p := range r.products.products {
		before[id] = p.Stock
	}
	moves := len(r.movements.movements)
	if err := fn(r.movements, r.products); err != nil {
		for id, stock := range before {
			r.products.products[id].Stock = stock
		}
		r.movements.movements = r.movements.movements[:moves]
		return err
	}
	return nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

func newFixture() (*inventory.StockUseCase, *memProductRepo, *memMovementRepo) {
	products := &memProductRepo{products: map[string]*entity.Product{
		"prod-1": {
			ID:        "prod-1",
			CompanyID: "co-1",
			SKU:       "YER-500",
			Name:      "Yerba mate 500g",
			Price:     decimal.RequireFromString("121.00"),
			IVARateID: 5,
			Stock:     10,
		},
	}}
	movements := &memMovementRepo{}
	docs := &memDocumentRepo{docs: map[string]*entity.Document{
		"doc-1": {ID: "doc-1", CompanyID: "co-1"},
	}}
	runner := &memTxRunner{products: products, movements: movements}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	uc := inventory.NewStockUseCase(runner, products, movements, docs, log)
	return uc, products, movements
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAdjustStock_Positivo(t *testing.T) {
	uc, products, movements := newFixture()

	resp, err := uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{
		ProductID: "prod-1",
		Delta:     5,
		Notes:     "conteo físico",
	})
	require.NoError(t, err)

	assert.Equal(t, "in", resp.Direction)
	assert.Equal(t, "adjustment", resp.Origin)
	assert.Equal(t, 5, resp.Quantity, "la cantidad siempre es positiva")
	assert.Equal(t, 15, resp.ResultingStock)
	assert.Equal(t, 15, products.products["prod-1"].Stock)
	require.Len(t, movements.movements, 1)
	assert.Equal(t, "user-1", movements.movements[0].CreatedBy)
}

func TestAdjustStock_Negativo(t *testing.T) {
	uc, products, _ := newFixture()

	resp, err := uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{
		ProductID: "prod-1",
		Delta:     -4,
		Notes:     "rotura",
	})
	require.NoError(t, err)

	assert.Equal(t, "out", resp.Direction)
	assert.Equal(t, 4, resp.Quantity)
	assert.Equal(t, 6, resp.ResultingStock)
	assert.Equal(t, 6, products.products["prod-1"].Stock)
}

func TestAdjustStock_NoDejaStockNegativo(t *testing.T) {
	uc, products, movements := newFixture()

	_, err := uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{
		ProductID: "prod-1",
		Delta:     -11,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 10, products.products["prod-1"].Stock, "el rollback debe dejar el stock original")
	assert.Empty(t, movements.movements, "un ajuste rechazado no registra movimiento")
}

func TestAdjustStock_DeltaCero(t *testing.T) {
	uc, _, _ := newFixture()

	_, err := uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{
		ProductID: "prod-1",
		Delta:     0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStock_ProductoDeOtraEmpresa(t *testing.T) {
	uc, _, _ := newFixture()

	_, err := uc.AdjustStock(context.Background(), "co-2", "user-1", dto.AdjustStockRequest{
		ProductID: "prod-1",
		Delta:     1,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProductMovements(t *testing.T) {
	uc, _, _ := newFixture()

	_, err := uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{ProductID: "prod-1", Delta: 2})
	require.NoError(t, err)
	_, err = uc.AdjustStock(context.Background(), "co-1", "user-1", dto.AdjustStockRequest{ProductID: "prod-1", Delta: -1})
	require.NoError(t, err)

	list, err := uc.ProductMovements(context.Background(), "co-1", "prod-1", dto.MovementFilter{}, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 12, list[0].ResultingStock)
	assert.Equal(t, 11, list[1].ResultingStock)
}

func TestDocumentMovements_DocumentoAjeno(t *testing.T) {
	uc, _, _ := newFixture()

	_, err := uc.DocumentMovements(context.Background(), "co-2", "doc-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.DocumentMovements(context.Background(), "co-1", "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
