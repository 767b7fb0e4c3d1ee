package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/application/usecase"
	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	afipws "github.com/gestionpos/facturacion-api/internal/infrastructure/afip"
)

type memCustomerRepo struct {
	customers map[string]*entity.Customer
}

func (r *memCustomerRepo) Create(c *entity.Customer) error { r.customers[c.ID] = c; return nil }
func (r *memCustomerRepo) GetByID(id string) (*entity.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}
func (r *memCustomerRepo) Update(c *entity.Customer) error { r.customers[c.ID] = c; return nil }
func (r *memCustomerRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubRegistry struct {
	persona *afipws.PersonaInfo
	err     error
	queried int64
}

func (s *stubRegistry) GetPersona(ctx context.Context, cuit int64) (*afipws.PersonaInfo, error) {
	s.queried = cuit
	if s.err != nil {
		return nil, s.err
	}
	return s.persona, nil
}

func newCustomerFixture(registry usecase.RegistryLookup) (*usecase.CustomerUseCase, *memCustomerRepo) {
	repo := &memCustomerRepo{customers: map[string]*entity.Customer{}}
	return usecase.NewCustomerUseCase(repo, registry), repo
}

func TestCreateCustomer_ConCUITValido(t *testing.T) {
	uc, repo := newCustomerFixture(nil)

	resp, err := uc.CreateCustomer(context.Background(), "co-1", dto.CreateCustomerRequest{
		Name:      "Distribuidora Sur SRL",
		DocType:   80,
		DocNumber: 30712345671,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, int64(30712345671), resp.DocNumber)
	assert.Equal(t, "co-1", repo.customers[resp.ID].CompanyID)
}

func TestCreateCustomer_CUITConDigitoInvalido(t *testing.T) {
	uc, repo := newCustomerFixture(nil)

	_, err := uc.CreateCustomer(context.Background(), "co-1", dto.CreateCustomerRequest{
		Name:      "Cliente",
		DocType:   80,
		DocNumber: 30712345672,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, repo.customers)
}

func TestCreateCustomer_ConsumidorFinalSinNumero(t *testing.T) {
	uc, _ := newCustomerFixture(nil)

	resp, err := uc.CreateCustomer(context.Background(), "co-1", dto.CreateCustomerRequest{
		Name:      "Consumidor Final",
		DocType:   99,
		DocNumber: 12345, // se descarta: consumidor final no lleva número
	})
	require.NoError(t, err)
	assert.Zero(t, resp.DocNumber)
}

func TestCreateCustomer_TipoDeDocumentoDesconocido(t *testing.T) {
	uc, _ := newCustomerFixture(nil)

	_, err := uc.CreateCustomer(context.Background(), "co-1", dto.CreateCustomerRequest{
		Name:    "Cliente",
		DocType: 42,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateCustomer_NoTocaElDocumento(t *testing.T) {
	uc, repo := newCustomerFixture(nil)
	repo.customers["cust-1"] = &entity.Customer{
		ID: "cust-1", CompanyID: "co-1", Name: "Viejo", DocType: 96, DocNumber: 12345678,
	}

	resp, err := uc.UpdateCustomer(context.Background(), "co-1", "cust-1", dto.UpdateCustomerRequest{
		Name:  "Nuevo Nombre",
		Email: "nuevo@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nuevo Nombre", resp.Name)
	assert.Equal(t, 96, resp.DocType, "el tipo de documento es inmutable")
	assert.Equal(t, int64(12345678), resp.DocNumber)
}

func TestUpdateCustomer_DeOtraEmpresa(t *testing.T) {
	uc, repo := newCustomerFixture(nil)
	repo.customers["cust-1"] = &entity.Customer{ID: "cust-1", CompanyID: "co-1", Name: "Cliente"}

	_, err := uc.UpdateCustomer(context.Background(), "co-2", "cust-1", dto.UpdateCustomerRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLookupPersona_Precarga(t *testing.T) {
	registry := &stubRegistry{persona: &afipws.PersonaInfo{
		CUIT:         30712345671,
		LegalName:    "DISTRIBUIDORA SUR SRL",
		Address:      "AV SIEMPREVIVA 742",
		City:         "ROSARIO",
		ProvinceID:   21,
		PostalCode:   "2000",
		PersonType:   "JURIDICA",
		ActiveStatus: "ACTIVO",
	}}
	uc, _ := newCustomerFixture(registry)

	resp, err := uc.LookupPersona(context.Background(), 30712345671)
	require.NoError(t, err)

	assert.Equal(t, int64(30712345671), registry.queried)
	assert.Equal(t, "DISTRIBUIDORA SUR SRL", resp.LegalName)
	assert.True(t, resp.ActiveStatus)
}

func TestLookupPersona_CUITInvalidoNoConsulta(t *testing.T) {
	registry := &stubRegistry{}
	uc, _ := newCustomerFixture(registry)

	_, err := uc.LookupPersona(context.Background(), 30712345672)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, registry.queried, "un CUIT inválido no debe llegar al padrón")
}

func TestLookupPersona_NoEncontrado(t *testing.T) {
	registry := &stubRegistry{err: domain.ErrNotFound}
	uc, _ := newCustomerFixture(registry)

	_, err := uc.LookupPersona(context.Background(), 30712345671)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLookupPersona_SinPadronHabilitado(t *testing.T) {
	uc, _ := newCustomerFixture(nil)

	_, err := uc.LookupPersona(context.Background(), 30712345671)
	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}
