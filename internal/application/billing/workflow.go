package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kmbaye/gestock-api/internal/application/dto"
	appstock "github.com/kmbaye/gestock-api/internal/application/stock"
	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/access"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
	"github.com/kmbaye/gestock-api/internal/domain/sales"
	"github.com/kmbaye/gestock-api/internal/observability"
	"github.com/kmbaye/gestock-api/pkg/logger"
)

// SaleWorkflow orquesta el ciclo de vida de una venta:
//
//	DRAFT -> RESERVED -> FINALIZED
//	RESERVED -> RELEASED   (cancelación antes de pago, sin consumir número)
//	FINALIZED -> VOIDED    (anulación posterior; el número nunca se reusa y el
//	                        stock no se repone salvo restock explícito)
//
// Cada transición corre dentro de una sola transacción; el rollback deshace
// las reservas hechas en esa misma ejecución (todo-o-nada).
// La política de acceso se evalúa antes de cualquier mutación.
type SaleWorkflow struct {
	txRunner      BillingTxRunner
	saleRepo      repository.SaleRepository // atado al pool, solo lecturas
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	sequencer     *Sequencer
	log           *logger.Logger
}

// NewSaleWorkflow construye el flujo de venta.
func NewSaleWorkflow(
	txRunner BillingTxRunner,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	sequencer *Sequencer,
	log *logger.Logger,
) *SaleWorkflow {
	return &SaleWorkflow{
		txRunner:      txRunner,
		saleRepo:      saleRepo,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		sequencer:     sequencer,
		log:           log,
	}
}

// CreateSale valida las líneas, reserva stock por cada una (todo-o-nada) y
// persiste la venta en estado RESERVED. Ningún efecto sobre stock ocurre si
// alguna línea es inválida (validación primero, fail fast).
func (w *SaleWorkflow) CreateSale(ctx context.Context, actor access.Actor, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if err := access.CanCreate(actor); err != nil {
		return nil, err
	}
	companyID := actor.CompanyID
	if actor.Role == entity.RoleAdmin && in.CompanyID != "" {
		companyID = in.CompanyID
	}
	if in.WarehouseID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}

	// Bodega de la empresa
	wh, err := w.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	// Cliente opcional; si viene, debe ser de la empresa y aporta el email
	// para el match de lectura de la política de acceso.
	clientEmail := ""
	if in.CustomerID != "" {
		customer, err := w.customerRepo.GetByID(in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, domain.ErrNotFound
		}
		if customer.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
		clientEmail = customer.Email
	}

	// Validar productos y armar líneas con defaults del catálogo
	now := time.Now()
	saleID := uuid.New().String()
	lines := make([]*entity.SaleLine, 0, len(in.Lines))
	lineTotals := make([]sales.LineTotals, 0, len(in.Lines))
	for i, item := range in.Lines {
		if item.ProductID == "" {
			return nil, &domain.SaleLineError{Line: i, Err: domain.ErrInvalidInput}
		}
		product, err := w.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &domain.SaleLineError{Line: i, Err: domain.ErrNotFound}
		}
		if product.CompanyID != companyID {
			return nil, &domain.SaleLineError{Line: i, Err: domain.ErrForbidden}
		}
		unitPrice := item.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.SalePrice
		}
		taxRate := product.TaxRate
		if item.TaxRate != nil {
			taxRate = *item.TaxRate
		}
		totals, err := sales.CalcLineTotals(item.Quantity, unitPrice, item.DiscountPct, taxRate)
		if err != nil {
			return nil, &domain.SaleLineError{Line: i, Err: err}
		}
		lines = append(lines, &entity.SaleLine{
			ID:          uuid.New().String(),
			SaleID:      saleID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			DiscountPct: item.DiscountPct,
			TaxRate:     taxRate,
			TotalHT:     totals.TotalHT,
			TaxAmount:   totals.TaxAmount,
			TotalTTC:    totals.TotalTTC,
		})
		lineTotals = append(lineTotals, totals)
	}

	// El descuento global se valida aquí (fail fast) aunque los totales de la
	// venta se persisten recién al finalizar.
	if _, err := sales.CalcSaleTotals(lineTotals, in.GlobalDiscount); err != nil {
		return nil, err
	}

	paymentMode := in.PaymentMode
	if paymentMode == "" {
		paymentMode = entity.PaymentModeCash
	}
	sale := &entity.Sale{
		ID:             saleID,
		CompanyID:      companyID,
		CustomerID:     in.CustomerID,
		ClientEmail:    clientEmail,
		SellerID:       actor.ID,
		WarehouseID:    in.WarehouseID,
		Status:         entity.SaleStatusReserved,
		PaymentMode:    paymentMode,
		PaymentStatus:  entity.PaymentStatusPending,
		DiscountAmount: in.GlobalDiscount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Reservas + persistencia en una sola transacción: si una línea no tiene
	// disponible, el rollback deshace las reservas anteriores de esta venta.
	err = w.txRunner.RunBilling(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProductRepository,
		_ repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error {
		for _, line := range lines {
			if err := appstock.ReserveInTx(stockRepo, movRepo, line.ProductID, sale.WarehouseID, line.Quantity, actor.ID, saleID, now); err != nil {
				return err
			}
		}
		return saleRepo.Create(sale, lines)
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, lines), nil
}

// FinalizeSale pasa la venta de RESERVED a FINALIZED: calcula totales, pide el
// número de factura al secuenciador, convierte cada reserva en baja física y
// persiste todo como una unidad atómica.
func (w *SaleWorkflow) FinalizeSale(ctx context.Context, actor access.Actor, saleID string) (*dto.SaleResponse, error) {
	var sale *entity.Sale
	var lines []*entity.SaleLine
	now := time.Now()
	err := w.txRunner.RunBilling(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		counterRepo repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error {
		var err error
		sale, err = saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if err := access.CanWrite(actor, sale); err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusReserved {
			return domain.ErrConflict
		}
		lines, err = saleRepo.GetLines(saleID)
		if err != nil {
			return err
		}

		lineTotals := make([]sales.LineTotals, 0, len(lines))
		for _, l := range lines {
			lineTotals = append(lineTotals, sales.LineTotals{TotalHT: l.TotalHT, TaxAmount: l.TaxAmount, TotalTTC: l.TotalTTC})
		}
		totals, err := sales.CalcSaleTotals(lineTotals, sale.DiscountAmount)
		if err != nil {
			return err
		}

		number, err := w.sequencer.NextInTx(counterRepo, sale.CompanyID, now)
		if err != nil {
			return err
		}

		for _, l := range lines {
			if err := appstock.CommitInTx(stockRepo, movRepo, productRepo, l.ProductID, sale.WarehouseID, l.Quantity, actor.ID, saleID, now); err != nil {
				return err
			}
		}

		sale.Subtotal = totals.Subtotal
		sale.TaxTotal = totals.TaxTotal
		sale.GrandTotal = totals.GrandTotal
		sale.InvoiceNumber = number
		sale.Status = entity.SaleStatusFinalized
		sale.UpdatedAt = now
		return saleRepo.Update(sale)
	})
	if err != nil {
		var dup *domain.DuplicateInvoiceNumberError
		if errors.As(err, &dup) {
			// Inalcanzable con el bloqueo del contador funcionando: fallo de
			// integridad, no condición recuperable.
			w.log.Error().Str("sale_id", saleID).Str("number", dup.Number).
				Msg("número de factura duplicado pese al contador atómico")
		}
		return nil, err
	}
	observability.SalesFinalized.Inc()
	return toSaleResponse(sale, lines), nil
}

// CancelSale pasa la venta de RESERVED a RELEASED liberando cada reserva sin
// tocar la cantidad física. No consume número de factura.
func (w *SaleWorkflow) CancelSale(ctx context.Context, actor access.Actor, saleID string) (*dto.SaleResponse, error) {
	var sale *entity.Sale
	now := time.Now()
	err := w.txRunner.RunBilling(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProductRepository,
		_ repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error {
		var err error
		sale, err = saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if err := access.CanWrite(actor, sale); err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusReserved {
			return domain.ErrConflict
		}
		lines, err := saleRepo.GetLines(saleID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := appstock.ReleaseInTx(stockRepo, movRepo, l.ProductID, sale.WarehouseID, l.Quantity, actor.ID, saleID, now); err != nil {
				return err
			}
		}
		sale.Status = entity.SaleStatusReleased
		sale.PaymentStatus = entity.PaymentStatusCancelled
		sale.UpdatedAt = now
		return saleRepo.Update(sale)
	})
	if err != nil {
		return nil, err
	}
	observability.SalesCancelled.Inc()
	return toSaleResponse(sale, nil), nil
}

// VoidSale anula una venta FINALIZED: marca el pago como cancelado y conserva
// el número de factura (nunca se reusa). No repone stock; para eso existe el
// restock explícito. Anular una venta ya anulada es un no-op, no un error.
func (w *SaleWorkflow) VoidSale(ctx context.Context, actor access.Actor, saleID string) (*dto.SaleResponse, error) {
	var sale *entity.Sale
	err := w.txRunner.RunBilling(ctx, func(
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		_ repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error {
		var err error
		sale, err = saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if err := access.CanWrite(actor, sale); err != nil {
			return err
		}
		if sale.Status == entity.SaleStatusVoided {
			return nil // idempotente
		}
		if sale.Status != entity.SaleStatusFinalized {
			return domain.ErrConflict
		}
		sale.Status = entity.SaleStatusVoided
		sale.PaymentStatus = entity.PaymentStatusCancelled
		sale.UpdatedAt = time.Now()
		return saleRepo.Update(sale)
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, nil), nil
}

// SetPaymentStatus marca una venta FINALIZED como pagada (o de vuelta a
// pendiente).
func (w *SaleWorkflow) SetPaymentStatus(ctx context.Context, actor access.Actor, saleID, status string) (*dto.SaleResponse, error) {
	if status != entity.PaymentStatusPending && status != entity.PaymentStatusPaid {
		return nil, domain.ErrInvalidInput
	}
	var sale *entity.Sale
	err := w.txRunner.RunBilling(ctx, func(
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		_ repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error {
		var err error
		sale, err = saleRepo.GetForUpdate(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if err := access.CanWrite(actor, sale); err != nil {
			return err
		}
		if sale.Status != entity.SaleStatusFinalized {
			return domain.ErrConflict
		}
		sale.PaymentStatus = status
		sale.UpdatedAt = time.Now()
		return saleRepo.Update(sale)
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, nil), nil
}

// GetSale obtiene una venta con sus líneas, pasando por la política de acceso.
func (w *SaleWorkflow) GetSale(ctx context.Context, actor access.Actor, saleID string) (*dto.SaleResponse, error) {
	sale, err := w.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.CanRead(actor, sale); err != nil {
		return nil, err
	}
	lines, err := w.saleRepo.GetLines(saleID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale, lines), nil
}

// ListSales lista ventas según el alcance del actor: admin todas, entrepreneur
// las de su empresa, client las que hacen match con su email.
func (w *SaleWorkflow) ListSales(ctx context.Context, actor access.Actor, limit, offset int) ([]dto.SaleResponse, error) {
	var (
		items []*entity.Sale
		err   error
	)
	switch actor.Role {
	case entity.RoleAdmin:
		items, err = w.saleRepo.List(limit, offset)
	case entity.RoleEntrepreneur:
		items, err = w.saleRepo.ListByCompany(actor.CompanyID, limit, offset)
	case entity.RoleClient:
		items, err = w.saleRepo.ListByClientEmail(actor.Email, limit, offset)
	default:
		return nil, &domain.AccessDeniedError{ActorID: actor.ID, Role: actor.Role, Action: access.ActionRead}
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, *toSaleResponse(s, nil))
	}
	return out, nil
}

func toSaleResponse(sale *entity.Sale, lines []*entity.SaleLine) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:             sale.ID,
		CompanyID:      sale.CompanyID,
		CustomerID:     sale.CustomerID,
		ClientEmail:    sale.ClientEmail,
		SellerID:       sale.SellerID,
		WarehouseID:    sale.WarehouseID,
		Status:         sale.Status,
		PaymentMode:    sale.PaymentMode,
		PaymentStatus:  sale.PaymentStatus,
		Subtotal:       sale.Subtotal,
		TaxTotal:       sale.TaxTotal,
		DiscountAmount: sale.DiscountAmount,
		GrandTotal:     sale.GrandTotal,
		InvoiceNumber:  sale.InvoiceNumber,
		CreatedAt:      sale.CreatedAt,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.SaleLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxRate:     l.TaxRate,
			TotalHT:     l.TotalHT,
			TaxAmount:   l.TaxAmount,
			TotalTTC:    l.TotalTTC,
		})
	}
	return resp
}
