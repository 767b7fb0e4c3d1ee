package dto

import "time"

// CreateCustomerRequest alta de cliente o proveedor.
type CreateCustomerRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	DocType   int    `json:"doc_type" validate:"required"`
	DocNumber int64  `json:"doc_number" validate:"min=0"`
	Address   string `json:"address" validate:"max=300"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=30"`
}

// UpdateCustomerRequest modificación de cliente.
type UpdateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=300"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=30"`
}

// CustomerResponse cliente serializado.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DocType   int       `json:"doc_type"`
	DocNumber int64     `json:"doc_number"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PersonaResponse datos del padrón de AFIP para precargar un alta de cliente.
type PersonaResponse struct {
	CUIT         int64  `json:"cuit"`
	LegalName    string `json:"legal_name"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	ProvinceID   int    `json:"province_id,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	PersonType   string `json:"person_type"`
	ActiveStatus bool   `json:"active"`
}
