// Package inventory cubre los movimientos de stock que no nacen de un
// documento: ajustes manuales y consulta del historial. Los movimientos por
// venta, compra o anulación los genera el ciclo de vida de documentos.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

// TxRunner ejecuta fn dentro de una única transacción: el ajuste de stock y su
// movimiento se confirman o revierten juntos.
type TxRunner interface {
	RunInventory(ctx context.Context, fn func(
		movementRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// StockUseCase ajustes manuales de stock y consulta de movimientos.
type StockUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	documentRepo repository.DocumentRepository
	log          *logger.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	documentRepo repository.DocumentRepository,
	log *logger.Logger,
) *StockUseCase {
	return &StockUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		documentRepo: documentRepo,
		log:          log,
	}
}

// AdjustStock aplica un ajuste manual con signo sobre el stock de un producto.
// El stock nunca queda negativo: un ajuste que lo dejaría por debajo de cero
// se rechaza completo.
func (uc *StockUseCase) AdjustStock(ctx context.Context, companyID, userID string, in dto.AdjustStockRequest) (*dto.StockMovementResponse, error) {
	if in.Delta == 0 {
		return nil, fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
	}
	if _, err := uc.ownedProduct(companyID, in.ProductID); err != nil {
		return nil, err
	}

	direction := entity.MovementIn
	quantity := in.Delta
	if in.Delta < 0 {
		direction = entity.MovementOut
		quantity = -in.Delta
	}

	movement := &entity.StockMovement{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		ProductID: in.ProductID,
		Direction: direction,
		Origin:    entity.MovementOriginAdjustment,
		Quantity:  quantity,
		Notes:     in.Notes,
		CreatedAt: time.Now(),
		CreatedBy: userID,
	}

	err := uc.txRunner.RunInventory(ctx, func(movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		resulting, err := productRepo.AdjustStock(in.ProductID, in.Delta)
		if err != nil {
			return err
		}
		if resulting < 0 {
			return fmt.Errorf("%w: producto %s quedaría en %d", domain.ErrInsufficientStock, in.ProductID, resulting)
		}
		movement.ResultingStock = resulting
		return movementRepo.Create(movement)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("product_id", in.ProductID).
		Int("delta", in.Delta).
		Int("resulting_stock", movement.ResultingStock).
		Msg("ajuste de stock aplicado")

	return toMovementResponse(movement), nil
}

// ProductMovements devuelve el historial de movimientos de un producto,
// opcionalmente acotado por fechas.
func (uc *StockUseCase) ProductMovements(ctx context.Context, companyID, productID string, filter dto.MovementFilter, page dto.PageRequest) ([]*dto.StockMovementResponse, error) {
	page.DefaultPage()
	if _, err := uc.ownedProduct(companyID, productID); err != nil {
		return nil, err
	}
	movements, err := uc.movementRepo.ListByProduct(productID, filter.From, filter.To, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementResponses(movements), nil
}

// DocumentMovements devuelve los movimientos generados por un documento.
func (uc *StockUseCase) DocumentMovements(ctx context.Context, companyID, documentID string) ([]*dto.StockMovementResponse, error) {
	doc, err := uc.documentRepo.GetByID(documentID)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	movements, err := uc.movementRepo.ListByDocument(documentID)
	if err != nil {
		return nil, err
	}
	return toMovementResponses(movements), nil
}

func (uc *StockUseCase) ownedProduct(companyID, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func toMovementResponse(m *entity.StockMovement) *dto.StockMovementResponse {
	return &dto.StockMovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Direction:      m.Direction,
		Origin:         m.Origin,
		Quantity:       m.Quantity,
		ResultingStock: m.ResultingStock,
		DocumentID:     m.DocumentID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

func toMovementResponses(movements []*entity.StockMovement) []*dto.StockMovementResponse {
	out := make([]*dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	return out
}
