package entity

import "time"

// Company representa la empresa (tenant) dueña de productos, bodegas y ventas.
type Company struct {
	ID        string
	Name      string
	TaxID     string // NINEA o registro fiscal
	Address   string
	Phone     string
	Email     string
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
