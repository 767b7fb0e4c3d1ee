package entity

import "time"

// Company representa la empresa emisora de comprobantes (tenant del sistema).
type Company struct {
	ID           string
	Name         string
	CUIT         int64 // CUIT del emisor, sin guiones
	Address      string
	Phone        string
	Email        string
	IVACondition string // "responsable_inscripto" | "monotributo" | "exento"
	Status       string // active, suspended, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
