package entity

import "time"

// Customer representa un cliente o proveedor (contraparte de documentos).
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	DocType   int    // tipo de documento AFIP: 80=CUIT, 86=CUIL, 96=DNI, 99=consumidor final
	DocNumber int64  // número de documento; 0 para consumidor final
	Address   string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
