package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbaye/gestock-api/internal/application/usecase"
	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/access"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) Create(user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmailAndCompany(email, companyID string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.CompanyID == companyID {
			return u, nil
		}
	}
	return nil, nil
}

func newUserFixture() (*usecase.UserUseCase, *fakeUserRepo) {
	repo := &fakeUserRepo{users: map[string]*entity.User{
		"u-admin":  {ID: "u-admin", CompanyID: "c0", Email: "admin@root.sn", Name: "Admin", Role: entity.RoleAdmin, Status: "active"},
		"u-c1":     {ID: "u-c1", CompanyID: "c1", Email: "seller@c1.sn", Name: "Vendedor C1", Role: entity.RoleEntrepreneur, Status: "active"},
		"u-c1-bis": {ID: "u-c1-bis", CompanyID: "c1", Email: "caja@c1.sn", Name: "Cajero C1", Role: entity.RoleEntrepreneur, Status: "active"},
		"u-c2":     {ID: "u-c2", CompanyID: "c2", Email: "seller@c2.sn", Name: "Vendedor C2", Role: entity.RoleEntrepreneur, Status: "active"},
		"u-client": {ID: "u-client", CompanyID: "c1", Email: "cliente@ejemplo.com", Name: "Cliente", Role: entity.RoleClient, Status: "active"},
	}}
	return usecase.NewUserUseCase(repo), repo
}

func TestUserProfile_Propio(t *testing.T) {
	uc, _ := newUserFixture()

	out, err := uc.Profile("u-c1")
	require.NoError(t, err)
	assert.Equal(t, "u-c1", out.ID)
	assert.Equal(t, "c1", out.CompanyID)
	assert.Equal(t, "seller@c1.sn", out.Email)
	assert.Equal(t, entity.RoleEntrepreneur, out.Role)
}

func TestUserProfile_Inexistente(t *testing.T) {
	uc, _ := newUserFixture()

	_, err := uc.Profile("no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserGetByID_Alcance(t *testing.T) {
	uc, _ := newUserFixture()

	admin := access.Actor{ID: "u-admin", Role: entity.RoleAdmin, CompanyID: "c0"}
	sellerC1 := access.Actor{ID: "u-c1", Role: entity.RoleEntrepreneur, CompanyID: "c1"}
	client := access.Actor{ID: "u-client", Role: entity.RoleClient, CompanyID: "c1"}

	cases := []struct {
		name    string
		actor   access.Actor
		target  string
		wantErr error
	}{
		{"admin ve cualquier usuario", admin, "u-c2", nil},
		{"entrepreneur ve su propia empresa", sellerC1, "u-c1-bis", nil},
		{"entrepreneur no cruza empresas", sellerC1, "u-c2", domain.ErrForbidden},
		{"client se ve a sí mismo", client, "u-client", nil},
		{"client no ve a otros", client, "u-c1", domain.ErrForbidden},
		{"usuario inexistente", admin, "no-existe", domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := uc.GetByID(tc.actor, tc.target)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.target, out.ID)
		})
	}
}

func TestUserGetByID_EntrepreneurSinEmpresa(t *testing.T) {
	uc, repo := newUserFixture()
	repo.users["u-sin"] = &entity.User{ID: "u-sin", CompanyID: "", Email: "sin@empresa.sn", Role: entity.RoleEntrepreneur, Status: "active"}

	// Un entrepreneur sin empresa asignada no matchea por empresa vacía.
	actor := access.Actor{ID: "u-sin", Role: entity.RoleEntrepreneur, CompanyID: ""}
	_, err := uc.GetByID(actor, "u-c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
