package entity

import "time"

// Customer representa un cliente de la empresa (facturación).
// Email se usa para el match de lectura de ventas por parte de actores con rol client.
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
