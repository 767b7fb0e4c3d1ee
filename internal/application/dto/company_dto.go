package dto

import "time"

// CreateCompanyRequest alta de empresa emisora.
type CreateCompanyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	CUIT         int64  `json:"cuit" validate:"required"`
	Address      string `json:"address" validate:"max=300"`
	Phone        string `json:"phone" validate:"max=30"`
	Email        string `json:"email" validate:"omitempty,email"`
	IVACondition string `json:"iva_condition" validate:"required,oneof=responsable_inscripto monotributo exento"`
}

// UpdateCompanyRequest modificación de empresa. El CUIT no se modifica: un
// cambio de CUIT es otra empresa.
type UpdateCompanyRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Address      string `json:"address" validate:"max=300"`
	Phone        string `json:"phone" validate:"max=30"`
	Email        string `json:"email" validate:"omitempty,email"`
	IVACondition string `json:"iva_condition" validate:"required,oneof=responsable_inscripto monotributo exento"`
}

// CompanyResponse empresa serializada.
type CompanyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CUIT         int64     `json:"cuit"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	IVACondition string    `json:"iva_condition"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
