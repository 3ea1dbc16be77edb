package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbaye/gestock-api/internal/application/billing"
	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/access"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

type pdfCompanyRepo struct {
	companies map[string]*entity.Company
}

func (r *pdfCompanyRepo) Create(company *entity.Company) error {
	r.companies[company.ID] = company
	return nil
}

func (r *pdfCompanyRepo) GetByID(id string) (*entity.Company, error) {
	return r.companies[id], nil
}

func (r *pdfCompanyRepo) GetByTaxID(taxID string) (*entity.Company, error) {
	for _, c := range r.companies {
		if c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, nil
}

func (r *pdfCompanyRepo) List(limit, offset int) ([]*entity.Company, error) {
	list := make([]*entity.Company, 0, len(r.companies))
	for _, c := range r.companies {
		list = append(list, c)
	}
	return list, nil
}

type stubPDFGenerator struct {
	calls int
	fail  error
}

func (g *stubPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	sale *entity.Sale,
	company *entity.Company,
	customer *entity.Customer,
	lines []billing.SaleLineForPDF,
) ([]byte, error) {
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	return []byte("%PDF-1.7 " + sale.InvoiceNumber), nil
}

type pdfFixture struct {
	*wfFixture
	companies *pdfCompanyRepo
	generator *stubPDFGenerator
	uc        *billing.PDFUseCase
}

func newPDFFixture() *pdfFixture {
	wf := newWorkflowFixture()
	companies := &pdfCompanyRepo{companies: make(map[string]*entity.Company)}
	gen := &stubPDFGenerator{}
	uc := billing.NewPDFUseCase(
		&bSaleRepo{store: wf.store},
		companies,
		&bCustomerRepo{store: wf.store},
		&bProductRepo{store: wf.store},
		gen,
	)
	return &pdfFixture{wfFixture: wf, companies: companies, generator: gen, uc: uc}
}

// finalizedSale crea y finaliza una venta en c1, devolviendo su ID y número.
func (f *pdfFixture) finalizedSale(t *testing.T) (string, string) {
	t.Helper()
	created, err := f.workflow.CreateSale(context.Background(), entrepreneurC1, basicSaleRequest())
	require.NoError(t, err)
	finalized, err := f.workflow.FinalizeSale(context.Background(), entrepreneurC1, created.ID)
	require.NoError(t, err)
	return finalized.ID, finalized.InvoiceNumber
}

func TestDownloadInvoicePDF_Genera(t *testing.T) {
	f := newPDFFixture()
	f.seedCompany("c1")
	f.companies.companies["c1"] = &entity.Company{ID: "c1", Name: "Comercial Dakar SARL", TaxID: "SN-001"}
	saleID, number := f.finalizedSale(t)

	pdf, filename, err := f.uc.DownloadInvoicePDF(context.Background(), entrepreneurC1, saleID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "factura_"+number+".pdf", filename)
	assert.Equal(t, 1, f.generator.calls)
}

// Una venta finalizada cuya empresa ya no existe debe reportarse como
// no-encontrado, no como error interno.
func TestDownloadInvoicePDF_EmpresaInexistente(t *testing.T) {
	f := newPDFFixture()
	f.seedCompany("c1")
	saleID, _ := f.finalizedSale(t)

	_, _, err := f.uc.DownloadInvoicePDF(context.Background(), entrepreneurC1, saleID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.generator.calls)
}

func TestDownloadInvoicePDF_VentaSinFinalizar(t *testing.T) {
	f := newPDFFixture()
	f.seedCompany("c1")
	f.companies.companies["c1"] = &entity.Company{ID: "c1", Name: "Comercial Dakar SARL"}
	created, err := f.workflow.CreateSale(context.Background(), entrepreneurC1, basicSaleRequest())
	require.NoError(t, err)

	_, _, err = f.uc.DownloadInvoicePDF(context.Background(), entrepreneurC1, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDownloadInvoicePDF_VentaInexistente(t *testing.T) {
	f := newPDFFixture()

	_, _, err := f.uc.DownloadInvoicePDF(context.Background(), adminActor, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloadInvoicePDF_ActorDeOtraEmpresa(t *testing.T) {
	f := newPDFFixture()
	f.seedCompany("c1")
	f.companies.companies["c1"] = &entity.Company{ID: "c1", Name: "Comercial Dakar SARL"}
	saleID, _ := f.finalizedSale(t)

	otro := access.Actor{ID: "seller-2", Email: "seller@c2.sn", Role: entity.RoleEntrepreneur, CompanyID: "c2"}
	_, _, err := f.uc.DownloadInvoicePDF(context.Background(), otro, saleID)
	require.Error(t, err)
	var denied *domain.AccessDeniedError
	assert.True(t, errors.As(err, &denied))
	assert.Equal(t, 0, f.generator.calls)
}

func TestDownloadInvoicePDF_GeneradorFalla(t *testing.T) {
	f := newPDFFixture()
	f.seedCompany("c1")
	f.companies.companies["c1"] = &entity.Company{ID: "c1", Name: "Comercial Dakar SARL"}
	f.generator.fail = errors.New("motor PDF caído")
	saleID, _ := f.finalizedSale(t)

	_, _, err := f.uc.DownloadInvoicePDF(context.Background(), entrepreneurC1, saleID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generación fallida")
}
