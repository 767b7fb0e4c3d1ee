package billing

import (
	"context"

	domafip "github.com/gestionpos/facturacion-api/internal/domain/afip"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una única transacción con repos transaccionales.
// Documento, ítems y movimientos de stock se confirman o revierten juntos:
// nunca queda visible un documento con movimientos sin matchear.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		movementRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// InvoiceAuthorizer puerto hacia el servicio de autorización de comprobantes.
// La implementación concreta es el cliente WSFEv1; en tests se inyecta un stub.
type InvoiceAuthorizer interface {
	RequestCAE(ctx context.Context, req *domafip.InvoiceRequest, autoAssign bool) (*domafip.InvoiceResponse, error)
	LastVoucherNumber(ctx context.Context, pointOfSale, voucherType int) (int64, error)
}
