package usecase

import (
	"github.com/kmbaye/gestock-api/internal/application/dto"
	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/access"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

// UserUseCase expone consultas de usuarios con alcance por rol: todo actor ve
// su propio perfil, admin y entrepreneur ven los usuarios de su empresa, y
// solo admin cruza empresas.
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Profile devuelve el perfil del actor autenticado.
func (uc *UserUseCase) Profile(actorID string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return toUserResponse(user), nil
}

// GetByID devuelve un usuario aplicando el alcance del actor.
func (uc *UserUseCase) GetByID(actor access.Actor, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if !canViewUser(actor, user) {
		return nil, domain.ErrForbidden
	}
	return toUserResponse(user), nil
}

func canViewUser(actor access.Actor, user *entity.User) bool {
	if actor.ID == user.ID {
		return true
	}
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleEntrepreneur:
		return actor.CompanyID != "" && actor.CompanyID == user.CompanyID
	default:
		return false
	}
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
