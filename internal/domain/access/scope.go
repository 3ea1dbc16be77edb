// Package access implementa la política de acceso a ventas como una tabla de
// decisión única por rol, en lugar de clases de permiso dispersas.
//
//	rol           lectura                         escritura
//	admin         todas las ventas                todas las ventas
//	entrepreneur  ventas de su empresa            ventas de su empresa
//	client        ventas con su email de cliente  nunca
//	otro          denegado                        denegado
//
// Creación: client, entrepreneur y admin; actualización/borrado solo
// entrepreneur y admin. La política se evalúa antes de cualquier mutación.
package access

import (
	"strings"

	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

// Acciones evaluadas por la política.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionCreate = "create"
)

// Actor es la identidad evaluada: viene del proveedor de identidad externo
// (claims del JWT); nunca se autentican credenciales aquí.
type Actor struct {
	ID        string
	Email     string
	Role      string
	CompanyID string
}

// CanRead decide si el actor puede leer la venta.
func CanRead(a Actor, sale *entity.Sale) error {
	switch a.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleEntrepreneur:
		if a.CompanyID == sale.CompanyID {
			return nil
		}
	case entity.RoleClient:
		if emailsMatch(a.Email, sale.ClientEmail) {
			return nil
		}
	}
	return &domain.AccessDeniedError{ActorID: a.ID, Role: a.Role, SaleID: sale.ID, Action: ActionRead}
}

// CanWrite decide si el actor puede modificar o borrar la venta.
// Los clientes nunca escriben, sin importar la propiedad.
func CanWrite(a Actor, sale *entity.Sale) error {
	switch a.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleEntrepreneur:
		if a.CompanyID == sale.CompanyID {
			return nil
		}
	}
	return &domain.AccessDeniedError{ActorID: a.ID, Role: a.Role, SaleID: sale.ID, Action: ActionWrite}
}

// CanCreate decide si el actor puede crear ventas.
func CanCreate(a Actor) error {
	switch a.Role {
	case entity.RoleAdmin, entity.RoleEntrepreneur, entity.RoleClient:
		return nil
	}
	return &domain.AccessDeniedError{ActorID: a.ID, Role: a.Role, Action: ActionCreate}
}

// emailsMatch compara emails recortando espacios y sin distinguir mayúsculas.
// Un email vacío nunca hace match (venta sin cliente registrado).
func emailsMatch(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
