package stock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbaye/gestock-api/internal/application/stock"
	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
	"github.com/kmbaye/gestock-api/pkg/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: emulan la capa de persistencia con mapas. El fakeTxRunner
// toma un snapshot del estado antes de cada ejecución y lo restaura si la
// función devuelve error, emulando el rollback transaccional.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	stocks     map[string]*entity.StockRecord // productID|warehouseID
	movements  []*entity.StockMovement
	products   map[string]*entity.Product
	warehouses map[string]string // warehouseID -> companyID
}

func newMemStore() *memStore {
	return &memStore{
		stocks:     make(map[string]*entity.StockRecord),
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]string),
	}
}

func stockKey(productID, warehouseID string) string {
	return productID + "|" + warehouseID
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	for k, v := range s.stocks {
		rec := *v
		cp.stocks[k] = &rec
	}
	cp.movements = append([]*entity.StockMovement(nil), s.movements...)
	for k, v := range s.products {
		p := *v
		cp.products[k] = &p
	}
	for k, v := range s.warehouses {
		cp.warehouses[k] = v
	}
	return cp
}

func (s *memStore) restore(snap *memStore) {
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.products = snap.products
	s.warehouses = snap.warehouses
}

type fakeStockRepo struct {
	store *memStore
}

func (r *fakeStockRepo) Get(productID, warehouseID string) (*entity.StockRecord, error) {
	if rec, ok := r.store.stocks[stockKey(productID, warehouseID)]; ok {
		cp := *rec
		return &cp, nil
	}
	// Creación perezosa: el registro inexistente equivale a uno en cero.
	return &entity.StockRecord{ProductID: productID, WarehouseID: warehouseID}, nil
}

func (r *fakeStockRepo) GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error) {
	return r.Get(productID, warehouseID)
}

func (r *fakeStockRepo) Upsert(record *entity.StockRecord) error {
	cp := *record
	r.store.stocks[stockKey(record.ProductID, record.WarehouseID)] = &cp
	return nil
}

func (r *fakeStockRepo) ListByProductForCompany(productID, companyID string) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	for _, rec := range r.store.stocks {
		if rec.ProductID == productID && r.store.warehouses[rec.WarehouseID] == companyID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) SumPhysicalByProduct(productID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, rec := range r.store.stocks {
		if rec.ProductID == productID {
			total = total.Add(rec.Physical)
		}
	}
	return total, nil
}

type fakeMovementRepo struct {
	store    *memStore
	failNext error // si no es nil, el próximo Create falla con este error
}

func (r *fakeMovementRepo) Create(mov *entity.StockMovement) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	cp := *mov
	r.store.movements = append(r.store.movements, &cp)
	return nil
}

func (r *fakeMovementRepo) ListByProduct(productID, warehouseID string, limit, offset int) ([]*entity.StockMovement, error) {
	var matched []*entity.StockMovement
	for i := len(r.store.movements) - 1; i >= 0; i-- { // más reciente primero
		m := r.store.movements[i]
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			matched = append(matched, m)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeMovementRepo) ListByRef(refID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.store.movements {
		if m.RefID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	store *memStore
}

func (r *fakeProductRepo) Create(product *entity.Product) error {
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	if p, ok := r.store.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error) {
	for _, p := range r.store.products {
		if p.CompanyID == companyID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(product *entity.Product) error {
	cp := *product
	r.store.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateStockCache(productID string, total decimal.Decimal) error {
	if p, ok := r.store.products[productID]; ok {
		p.StockCached = total
	}
	return nil
}

func (r *fakeProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.store.products {
		if p.CompanyID == companyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTxRunner struct {
	store   *memStore
	movRepo *fakeMovementRepo
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	snap := r.store.snapshot()
	err := fn(&fakeStockRepo{store: r.store}, r.movRepo, &fakeProductRepo{store: r.store})
	if err != nil {
		r.store.restore(snap)
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del libro de stock sobre los fakes
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store  *memStore
	ledger *stock.Ledger
}

func newFixture() *fixture {
	store := newMemStore()
	movRepo := &fakeMovementRepo{store: store}
	runner := &fakeTxRunner{store: store, movRepo: movRepo}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	ledger := stock.NewLedger(runner, &fakeStockRepo{store: store}, movRepo, &fakeProductRepo{store: store}, log)
	return &fixture{store: store, ledger: ledger}
}

func (f *fixture) seedProduct(id, companyID string, cached string) {
	f.store.products[id] = &entity.Product{ID: id, CompanyID: companyID, SKU: "SKU-" + id, StockCached: d(cached)}
}

func (f *fixture) seedStock(productID, warehouseID, physical, reserved, avgCost string) {
	f.store.stocks[stockKey(productID, warehouseID)] = &entity.StockRecord{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Physical:    d(physical),
		Reserved:    d(reserved),
		AvgUnitCost: d(avgCost),
	}
}

func (f *fixture) record(productID, warehouseID string) *entity.StockRecord {
	return f.store.stocks[stockKey(productID, warehouseID)]
}

func (f *fixture) movementsOfType(movType string) []*entity.StockMovement {
	var out []*entity.StockMovement
	for _, m := range f.store.movements {
		if m.Type == movType {
			out = append(out, m)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Reserve(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "0", "100")

	err := f.ledger.Reserve(context.Background(), "p1", "w1", d("4"), "actor-1", "sale-1")
	require.NoError(t, err)

	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("10")), "la reserva no toca la cantidad física")
	assert.True(t, rec.Reserved.Equal(d("4")))
	assert.True(t, rec.Available().Equal(d("6")))

	movs := f.movementsOfType(entity.MovementTypeRESERVE)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(d("4")))
	assert.Equal(t, "sale-1", movs[0].RefID)
	assert.Equal(t, "actor-1", movs[0].CreatedBy)
}

// La reserva es todo-o-nada: si el disponible no alcanza, el registro queda
// intacto y no se escribe ningún movimiento.
func TestLedger_Reserve_StockInsuficiente(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "5")
	f.seedStock("p1", "w1", "5", "3", "100")

	err := f.ledger.Reserve(context.Background(), "p1", "w1", d("3"), "actor-1", "sale-1")

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Requested.Equal(d("3")))
	assert.True(t, insufficient.Available.Equal(d("2")))

	rec := f.record("p1", "w1")
	assert.True(t, rec.Reserved.Equal(d("3")), "el registro debe quedar intacto")
	assert.Empty(t, f.store.movements, "sin movimiento en una reserva fallida")
}

func TestLedger_Reserve_CantidadInvalida(t *testing.T) {
	f := newFixture()
	for _, qty := range []decimal.Decimal{decimal.Zero, d("-2")} {
		err := f.ledger.Reserve(context.Background(), "p1", "w1", qty, "actor-1", "sale-1")
		var invQty *domain.InvalidQuantityError
		assert.ErrorAs(t, err, &invQty, "cantidad %s debe ser rechazada", qty)
	}
}

// Una reserva puede agotar exactamente el disponible.
func TestLedger_Reserve_TodoElDisponible(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "5")
	f.seedStock("p1", "w1", "5", "2", "100")

	require.NoError(t, f.ledger.Reserve(context.Background(), "p1", "w1", d("3"), "actor-1", "sale-1"))

	rec := f.record("p1", "w1")
	assert.True(t, rec.Reserved.Equal(d("5")))
	assert.True(t, rec.Available().IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Commit / Release
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Commit(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "4", "100")

	err := f.ledger.Commit(context.Background(), "p1", "w1", d("4"), "actor-1", "sale-1")
	require.NoError(t, err)

	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("6")))
	assert.True(t, rec.Reserved.IsZero())

	// La caché del producto se refresca en la misma operación.
	assert.True(t, f.store.products["p1"].StockCached.Equal(d("6")))

	movs := f.movementsOfType(entity.MovementTypeCOMMIT)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(d("-4")), "el commit registra cantidad negativa")
}

func TestLedger_Commit_SinReservaSuficiente(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "2", "100")

	err := f.ledger.Commit(context.Background(), "p1", "w1", d("3"), "actor-1", "sale-1")

	var invState *domain.InvalidStateError
	require.ErrorAs(t, err, &invState)
	assert.Equal(t, "commit", invState.Op)
	assert.True(t, invState.Reserved.Equal(d("2")))

	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("10")), "rollback: nada cambia")
	assert.True(t, rec.Reserved.Equal(d("2")))
}

func TestLedger_Release(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "4", "100")

	err := f.ledger.Release(context.Background(), "p1", "w1", d("4"), "actor-1", "sale-1")
	require.NoError(t, err)

	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("10")), "liberar no toca la cantidad física")
	assert.True(t, rec.Reserved.IsZero())

	movs := f.movementsOfType(entity.MovementTypeRELEASE)
	require.Len(t, movs, 1)
}

func TestLedger_Release_SinReservaSuficiente(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "1", "100")

	err := f.ledger.Release(context.Background(), "p1", "w1", d("2"), "actor-1", "sale-1")

	var invState *domain.InvalidStateError
	require.ErrorAs(t, err, &invState)
	assert.Equal(t, "release", invState.Op)
}

// Si el diario falla a mitad de la operación, el rollback deshace también la
// mutación del registro de stock.
func TestLedger_RollbackAnteFalloDelDiario(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "0", "100")

	movRepo := &fakeMovementRepo{store: f.store, failNext: errors.New("diario caído")}
	runner := &fakeTxRunner{store: f.store, movRepo: movRepo}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	ledger := stock.NewLedger(runner, &fakeStockRepo{store: f.store}, movRepo, &fakeProductRepo{store: f.store}, log)

	err := ledger.Reserve(context.Background(), "p1", "w1", d("4"), "actor-1", "sale-1")
	require.Error(t, err)

	rec := f.record("p1", "w1")
	assert.True(t, rec.Reserved.IsZero(), "la mutación debe revertirse con el rollback")
	assert.Empty(t, f.store.movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Restock
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Restock_CostoPromedioPonderado(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "0", "100")

	err := f.ledger.Restock(context.Background(), "p1", "w1", d("10"), d("200"), "actor-1")
	require.NoError(t, err)

	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("20")))
	assert.True(t, rec.AvgUnitCost.Equal(d("150")), "costo = %s", rec.AvgUnitCost)
	assert.True(t, f.store.products["p1"].StockCached.Equal(d("20")))

	movs := f.movementsOfType(entity.MovementTypeRESTOCK)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].UnitCost.Equal(d("200")), "el movimiento guarda el costo de entrada")
}

// El primer restock crea el registro perezosamente y toma el costo de entrada
// como promedio inicial.
func TestLedger_Restock_RegistroInexistente(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "0")

	err := f.ledger.Restock(context.Background(), "p1", "w1", d("5"), d("320"), "actor-1")
	require.NoError(t, err)

	rec := f.record("p1", "w1")
	require.NotNil(t, rec)
	assert.True(t, rec.Physical.Equal(d("5")))
	assert.True(t, rec.AvgUnitCost.Equal(d("320")))
}

func TestLedger_Restock_EntradasInvalidas(t *testing.T) {
	f := newFixture()

	err := f.ledger.Restock(context.Background(), "p1", "w1", decimal.Zero, d("100"), "actor-1")
	var invQty *domain.InvalidQuantityError
	assert.ErrorAs(t, err, &invQty)

	err = f.ledger.Restock(context.Background(), "p1", "w1", d("5"), d("-1"), "actor-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Adjust_PositivoYNegativo(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "2", "100")

	require.NoError(t, f.ledger.Adjust(context.Background(), "p1", "w1", d("5"), "actor-1", "conteo físico"))
	assert.True(t, f.record("p1", "w1").Physical.Equal(d("15")))

	require.NoError(t, f.ledger.Adjust(context.Background(), "p1", "w1", d("-13"), "actor-1", "merma"))
	rec := f.record("p1", "w1")
	assert.True(t, rec.Physical.Equal(d("2")), "puede bajar hasta la cantidad reservada")
	assert.True(t, f.store.products["p1"].StockCached.Equal(d("2")))

	movs := f.movementsOfType(entity.MovementTypeADJUST)
	require.Len(t, movs, 2)
	assert.Equal(t, "merma", movs[1].RefID, "la nota viaja en la referencia del movimiento")
}

// El ajuste nunca deja Physical < Reserved ni Physical < 0.
func TestLedger_Adjust_RespetaInvariantes(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "4", "100")

	err := f.ledger.Adjust(context.Background(), "p1", "w1", d("-7"), "actor-1", "merma")
	var invState *domain.InvalidStateError
	require.ErrorAs(t, err, &invState)
	assert.Equal(t, "adjust", invState.Op)
	assert.True(t, invState.Reserved.Equal(d("4")))
	assert.True(t, f.record("p1", "w1").Physical.Equal(d("10")), "registro intacto")

	err = f.ledger.Adjust(context.Background(), "p1", "w1", d("-11"), "actor-1", "merma")
	assert.ErrorAs(t, err, &invState)

	err = f.ledger.Adjust(context.Background(), "p1", "w1", decimal.Zero, "actor-1", "")
	var invQty *domain.InvalidQuantityError
	assert.ErrorAs(t, err, &invQty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Available(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "10")
	f.seedStock("p1", "w1", "10", "4", "100")

	got, err := f.ledger.Available(context.Background(), "p1", "w1")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("6")))

	// Registro inexistente: disponible cero, sin error.
	got, err = f.ledger.Available(context.Background(), "p1", "w-nunca")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestLedger_AvailableForProduct_SumaBodegasDeLaEmpresa(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "18")
	f.store.warehouses["w1"] = "c1"
	f.store.warehouses["w2"] = "c1"
	f.store.warehouses["w-ajena"] = "c2"
	f.seedStock("p1", "w1", "10", "4", "100")
	f.seedStock("p1", "w2", "8", "1", "100")
	f.seedStock("p1", "w-ajena", "99", "0", "100")

	got, err := f.ledger.AvailableForProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("13")), "disponible = %s (solo bodegas de la empresa)", got)
}

func TestLedger_AvailableForProduct_ProductoInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.ledger.AvailableForProduct(context.Background(), "p-nunca")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_Movements_PaginadoRecientePrimero(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "0")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.ledger.Restock(context.Background(), "p1", "w1", d("1"), d("100"), "actor-1"))
	}

	movs, err := f.ledger.Movements(context.Background(), "p1", "w1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	movs, err = f.ledger.Movements(context.Background(), "p1", "w1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile
// ──────────────────────────────────────────────────────────────────────────────

func TestLedger_Reconcile_SinDivergencia(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "18")
	f.seedStock("p1", "w1", "10", "0", "100")
	f.seedStock("p1", "w2", "8", "0", "100")

	report, err := f.ledger.Reconcile(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, report.Diverged)
	assert.True(t, report.Cached.Equal(d("18")))
	assert.True(t, report.Canonical.Equal(d("18")))
}

// La divergencia se reporta, nunca se corrige en silencio: la caché queda tal
// como estaba para que el operador decida.
func TestLedger_Reconcile_ConDivergencia(t *testing.T) {
	f := newFixture()
	f.seedProduct("p1", "c1", "25")
	f.seedStock("p1", "w1", "10", "0", "100")

	report, err := f.ledger.Reconcile(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, report.Diverged)
	assert.True(t, report.Cached.Equal(d("25")))
	assert.True(t, report.Canonical.Equal(d("10")))
	assert.True(t, f.store.products["p1"].StockCached.Equal(d("25")), "la caché no se toca")
}

func TestLedger_Reconcile_ProductoInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.ledger.Reconcile(context.Background(), "p-nunca")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
