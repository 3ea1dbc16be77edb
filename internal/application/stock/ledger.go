// Package stock implementa el libro de stock: la única fuente de verdad de la
// cantidad disponible por (producto, bodega). Todas las mutaciones bloquean la
// fila (SELECT FOR UPDATE), registran un movimiento en el diario y refrescan
// la caché del producto dentro de la misma transacción.
package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
	"github.com/kmbaye/gestock-api/internal/domain/sales"
	"github.com/kmbaye/gestock-api/internal/observability"
	"github.com/kmbaye/gestock-api/pkg/logger"
)

// Ledger coordina las operaciones del libro de stock.
type Ledger struct {
	txRunner    TxRunner
	stockRepo   repository.StockRepository // atado al pool, solo lecturas
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewLedger construye el libro de stock. stockRepo y movRepo van atados al
// pool y solo sirven lecturas; las mutaciones corren en el txRunner.
func NewLedger(txRunner TxRunner, stockRepo repository.StockRepository, movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, log *logger.Logger) *Ledger {
	return &Ledger{txRunner: txRunner, stockRepo: stockRepo, movRepo: movRepo, productRepo: productRepo, log: log}
}

// Reserve aparta cantidad disponible (física - reservada) para una venta.
// Todo-o-nada: si no alcanza el disponible, falla con InsufficientStockError
// y el registro queda intacto.
func (l *Ledger) Reserve(ctx context.Context, productID, warehouseID string, qty decimal.Decimal, actorID, refID string) error {
	if !qty.GreaterThan(decimal.Zero) {
		return &domain.InvalidQuantityError{Quantity: qty}
	}
	return l.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		return ReserveInTx(stockRepo, movRepo, productID, warehouseID, qty, actorID, refID, time.Now())
	})
}

// Commit convierte una reserva en baja física: descuenta física y reservada.
func (l *Ledger) Commit(ctx context.Context, productID, warehouseID string, qty decimal.Decimal, actorID, refID string) error {
	if !qty.GreaterThan(decimal.Zero) {
		return &domain.InvalidQuantityError{Quantity: qty}
	}
	return l.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		return CommitInTx(stockRepo, movRepo, productRepo, productID, warehouseID, qty, actorID, refID, time.Now())
	})
}

// Release deshace una reserva sin tocar la cantidad física (cancelación de
// venta antes del commit).
func (l *Ledger) Release(ctx context.Context, productID, warehouseID string, qty decimal.Decimal, actorID, refID string) error {
	if !qty.GreaterThan(decimal.Zero) {
		return &domain.InvalidQuantityError{Quantity: qty}
	}
	return l.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		return ReleaseInTx(stockRepo, movRepo, productID, warehouseID, qty, actorID, refID, time.Now())
	})
}

// Restock incrementa la cantidad física y recalcula el costo promedio
// ponderado del registro.
func (l *Ledger) Restock(ctx context.Context, productID, warehouseID string, qty, unitCost decimal.Decimal, actorID string) error {
	if !qty.GreaterThan(decimal.Zero) {
		return &domain.InvalidQuantityError{Quantity: qty}
	}
	if unitCost.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return l.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		now := time.Now()
		record, err := stockRepo.GetForUpdate(productID, warehouseID)
		if err != nil {
			return err
		}
		record.AvgUnitCost = sales.WeightedAvgCost(record.Physical, record.AvgUnitCost, qty, unitCost)
		record.Physical = record.Physical.Add(qty)
		record.UpdatedAt = now
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			ProductID:   productID,
			WarehouseID: warehouseID,
			Type:        entity.MovementTypeRESTOCK,
			Quantity:    qty,
			UnitCost:    unitCost,
			CreatedBy:   actorID,
			CreatedAt:   now,
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		return refreshProductCache(stockRepo, productRepo, productID)
	})
}

// Adjust aplica una corrección manual (positiva o negativa) sobre la cantidad
// física, respetando los invariantes: nunca deja Physical < Reserved ni < 0.
func (l *Ledger) Adjust(ctx context.Context, productID, warehouseID string, qty decimal.Decimal, actorID, note string) error {
	if qty.IsZero() {
		return &domain.InvalidQuantityError{Quantity: qty}
	}
	return l.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		now := time.Now()
		record, err := stockRepo.GetForUpdate(productID, warehouseID)
		if err != nil {
			return err
		}
		newPhysical := record.Physical.Add(qty)
		if newPhysical.LessThan(decimal.Zero) || newPhysical.LessThan(record.Reserved) {
			return &domain.InvalidStateError{
				ProductID:   productID,
				WarehouseID: warehouseID,
				Op:          "adjust",
				Requested:   qty.Neg(),
				Reserved:    record.Reserved,
			}
		}
		record.Physical = newPhysical
		record.UpdatedAt = now
		if err := stockRepo.Upsert(record); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			ProductID:   productID,
			WarehouseID: warehouseID,
			Type:        entity.MovementTypeADJUST,
			Quantity:    qty,
			UnitCost:    record.AvgUnitCost,
			RefID:       note,
			CreatedBy:   actorID,
			CreatedAt:   now,
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		return refreshProductCache(stockRepo, productRepo, productID)
	})
}

// Available devuelve física - reservada para un (producto, bodega).
func (l *Ledger) Available(_ context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	record, err := l.stockRepo.Get(productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return record.Available(), nil
}

// AvailableForProduct suma el disponible en todas las bodegas de la empresa
// dueña del producto.
func (l *Ledger) AvailableForProduct(_ context.Context, productID string) (decimal.Decimal, error) {
	product, err := l.productRepo.GetByID(productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	records, err := l.stockRepo.ListByProductForCompany(productID, product.CompanyID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Available())
	}
	return total, nil
}

// ReconcileReport resultado de la conciliación caché vs registros.
type ReconcileReport struct {
	ProductID string
	Cached    decimal.Decimal
	Canonical decimal.Decimal
	Diverged  bool
}

// Reconcile compara la caché de stock del producto con la suma canónica de
// stock_records. Una divergencia es una alerta de calidad de datos: se
// registra y se reporta, nunca se confía en silencio en ninguno de los dos.
func (l *Ledger) Reconcile(_ context.Context, productID string) (*ReconcileReport, error) {
	product, err := l.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	canonical, err := l.stockRepo.SumPhysicalByProduct(productID)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{
		ProductID: productID,
		Cached:    product.StockCached,
		Canonical: canonical,
		Diverged:  !product.StockCached.Equal(canonical),
	}
	if report.Diverged {
		observability.StockCacheDivergence.Inc()
		l.log.Warn().
			Str("product_id", productID).
			Str("cached", product.StockCached.String()).
			Str("canonical", canonical.String()).
			Msg("divergencia caché de stock vs stock_records")
	}
	return report, nil
}

// Movements lista el diario de movimientos de un producto en una bodega.
func (l *Ledger) Movements(_ context.Context, productID, warehouseID string, limit, offset int) ([]*entity.StockMovement, error) {
	return l.movRepo.ListByProduct(productID, warehouseID, limit, offset)
}

// MovementsByRef lista los movimientos originados por una venta u otra referencia.
func (l *Ledger) MovementsByRef(_ context.Context, refID string) ([]*entity.StockMovement, error) {
	return l.movRepo.ListByRef(refID)
}

// ─── Operaciones dentro de transacción (usadas también por el flujo de venta) ──

// ReserveInTx aparta cantidad usando los repositorios del caller (misma tx).
func ReserveInTx(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productID, warehouseID string,
	qty decimal.Decimal,
	actorID, refID string,
	now time.Time,
) error {
	record, err := stockRepo.GetForUpdate(productID, warehouseID)
	if err != nil {
		return err
	}
	if qty.GreaterThan(record.Available()) {
		observability.InsufficientStock.Inc()
		return &domain.InsufficientStockError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Requested:   qty,
			Available:   record.Available(),
		}
	}
	record.Reserved = record.Reserved.Add(qty)
	record.UpdatedAt = now
	if err := stockRepo.Upsert(record); err != nil {
		return err
	}
	return movRepo.Create(&entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        entity.MovementTypeRESERVE,
		Quantity:    qty,
		UnitCost:    record.AvgUnitCost,
		RefID:       refID,
		CreatedBy:   actorID,
		CreatedAt:   now,
	})
}

// CommitInTx convierte reserva en baja física usando los repos del caller.
func CommitInTx(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	productID, warehouseID string,
	qty decimal.Decimal,
	actorID, refID string,
	now time.Time,
) error {
	record, err := stockRepo.GetForUpdate(productID, warehouseID)
	if err != nil {
		return err
	}
	if record.Reserved.LessThan(qty) {
		return &domain.InvalidStateError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Op:          "commit",
			Requested:   qty,
			Reserved:    record.Reserved,
		}
	}
	record.Physical = record.Physical.Sub(qty)
	record.Reserved = record.Reserved.Sub(qty)
	record.UpdatedAt = now
	if err := stockRepo.Upsert(record); err != nil {
		return err
	}
	if err := movRepo.Create(&entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        entity.MovementTypeCOMMIT,
		Quantity:    qty.Neg(),
		UnitCost:    record.AvgUnitCost,
		RefID:       refID,
		CreatedBy:   actorID,
		CreatedAt:   now,
	}); err != nil {
		return err
	}
	return refreshProductCache(stockRepo, productRepo, productID)
}

// ReleaseInTx deshace una reserva usando los repos del caller.
func ReleaseInTx(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productID, warehouseID string,
	qty decimal.Decimal,
	actorID, refID string,
	now time.Time,
) error {
	record, err := stockRepo.GetForUpdate(productID, warehouseID)
	if err != nil {
		return err
	}
	if record.Reserved.LessThan(qty) {
		return &domain.InvalidStateError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Op:          "release",
			Requested:   qty,
			Reserved:    record.Reserved,
		}
	}
	record.Reserved = record.Reserved.Sub(qty)
	record.UpdatedAt = now
	if err := stockRepo.Upsert(record); err != nil {
		return err
	}
	return movRepo.Create(&entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        entity.MovementTypeRELEASE,
		Quantity:    qty.Neg(),
		UnitCost:    record.AvgUnitCost,
		RefID:       refID,
		CreatedBy:   actorID,
		CreatedAt:   now,
	})
}

// refreshProductCache recalcula la caché derivada del producto dentro de la
// misma tx que la mutación física.
func refreshProductCache(stockRepo repository.StockRepository, productRepo repository.ProductRepository, productID string) error {
	total, err := stockRepo.SumPhysicalByProduct(productID)
	if err != nil {
		return err
	}
	return productRepo.UpdateStockCache(productID, total)
}
