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
	afipws "github.com/gestionpos/facturacion-api/internal/infrastructure/afip"
	"github.com/gestionpos/facturacion-api/pkg/afip"
)

// RegistryLookup puerto hacia el padrón de contribuyentes de AFIP.
type RegistryLookup interface {
	GetPersona(ctx context.Context, cuit int64) (*afipws.PersonaInfo, error)
}

// CustomerUseCase CRUD de clientes/proveedores y precarga desde el padrón.
type CustomerUseCase struct {
	customerRepo repository.CustomerRepository
	registry     RegistryLookup
}

// NewCustomerUseCase construye el caso de uso. registry puede ser nil si la
// empresa no tiene habilitado el servicio de padrón.
func NewCustomerUseCase(customerRepo repository.CustomerRepository, registry RegistryLookup) *CustomerUseCase {
	return &CustomerUseCase{customerRepo: customerRepo, registry: registry}
}

// CreateCustomer da de alta un cliente. Si el documento es CUIT/CUIL se valida
// el dígito verificador antes de persistir.
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if !afip.ValidDocTypes[in.DocType] {
		return nil, fmt.Errorf("%w: tipo de documento %d", domain.ErrInvalidInput, in.DocType)
	}
	switch in.DocType {
	case afip.DocTypeCUIT, afip.DocTypeCUIL:
		if err := afip.ValidateCUITNumber(in.DocNumber); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	case afip.DocTypeDNI:
		if in.DocNumber <= 0 {
			return nil, fmt.Errorf("%w: número de DNI requerido", domain.ErrInvalidInput)
		}
	case afip.DocTypeConsumidorFinal:
		in.DocNumber = 0
	}

	now := time.Now()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		DocType:   in.DocType,
		DocNumber: in.DocNumber,
		Address:   in.Address,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.customerRepo.Create(customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// GetCustomer devuelve un cliente de la empresa.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, companyID, customerID string) (*dto.CustomerResponse, error) {
	customer, err := uc.ownedCustomer(companyID, customerID)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// UpdateCustomer modifica los datos de contacto de un cliente. El tipo y
// número de documento son inmutables: identifican al cliente ante AFIP.
func (uc *CustomerUseCase) UpdateCustomer(ctx context.Context, companyID, customerID string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := uc.ownedCustomer(companyID, customerID)
	if err != nil {
		return nil, err
	}
	customer.Name = in.Name
	customer.Address = in.Address
	customer.Email = in.Email
	customer.Phone = in.Phone
	customer.UpdatedAt = time.Now()

	if err := uc.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// ListCustomers lista los clientes de la empresa.
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.CustomerResponse, error) {
	page.DefaultPage()
	customers, err := uc.customerRepo.ListByCompany(companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// LookupPersona consulta el padrón de AFIP para precargar un alta de cliente.
// No persiste nada: devuelve los datos de constancia para que el operador los
// confirme.
func (uc *CustomerUseCase) LookupPersona(ctx context.Context, cuit int64) (*dto.PersonaResponse, error) {
	if uc.registry == nil {
		return nil, fmt.Errorf("%w: consulta de padrón no habilitada", domain.ErrAuthorityUnavailable)
	}
	if err := afip.ValidateCUITNumber(cuit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	persona, err := uc.registry.GetPersona(ctx, cuit)
	if err != nil {
		return nil, err
	}
	return &dto.PersonaResponse{
		CUIT:         persona.CUIT,
		LegalName:    persona.LegalName,
		Address:      persona.Address,
		City:         persona.City,
		ProvinceID:   persona.ProvinceID,
		PostalCode:   persona.PostalCode,
		PersonType:   persona.PersonType,
		ActiveStatus: persona.ActiveStatus == "ACTIVO",
	}, nil
}

func (uc *CustomerUseCase) ownedCustomer(companyID, customerID string) (*entity.Customer, error) {
	customer, err := uc.customerRepo.GetByID(customerID)
	if err != nil || customer == nil {
		return nil, domain.ErrNotFound
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return customer, nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		DocType:   c.DocType,
		DocNumber: c.DocNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
