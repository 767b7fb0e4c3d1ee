// Package repository define los puertos de persistencia del dominio (DIP).
// Las implementaciones concretas viven en internal/infrastructure/postgres.
package repository

import (
	"time"

	"github.com/gestionpos/facturacion-api/internal/domain/entity"
)

// DocumentRepository persistencia de documentos de venta/compra y sus ítems.
type DocumentRepository interface {
	Create(doc *entity.Document) error
	GetByID(id string) (*entity.Document, error)
	Update(doc *entity.Document) error
	// NextSequential devuelve el siguiente número local para (voucherType, pointOfSale).
	// Es solo informativo: AFIP es la fuente de verdad de la numeración fiscal.
	NextSequential(companyID string, voucherType, pointOfSale int) (int64, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Document, error)
}

// StockMovementRepository persistencia de movimientos de stock.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByDocument(documentID string) ([]*entity.StockMovement, error)
}

// ProductRepository persistencia de productos.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	// AdjustStock suma delta (puede ser negativo) y devuelve el stock resultante.
	AdjustStock(productID string, delta int) (int, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
}

// CustomerRepository persistencia de clientes/proveedores.
type CustomerRepository interface {
	Create(customer *entity.Customer) error
	GetByID(id string) (*entity.Customer, error)
	Update(customer *entity.Customer) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Customer, error)
}

// CompanyRepository persistencia de empresas emisoras.
type CompanyRepository interface {
	Create(company *entity.Company) error
	GetByID(id string) (*entity.Company, error)
	Update(company *entity.Company) error
}

// UserRepository persistencia de usuarios.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
}

// LevyRepository persistencia de definiciones de tributos por empresa.
type LevyRepository interface {
	ListByCompany(companyID string) ([]*entity.Levy, error)
}
