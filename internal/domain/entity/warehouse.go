package entity

import "time"

// Warehouse representa un entrepôt o bodega donde se almacena inventario (multi-bodega).
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	Principal bool // bodega principal de la empresa
	CreatedAt time.Time
	UpdatedAt time.Time
}
