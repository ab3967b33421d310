package trade

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleSettings are the tenant-wide billing parameters
type SaleSettings struct {
	TaxRate        decimal.Decimal
	InvoiceDueDays int
	Currency       string
}

// DefaultSaleSettings returns 18% VAT, 30 day terms, F CFA
func DefaultSaleSettings() SaleSettings {
	return SaleSettings{TaxRate: trade.DefaultTaxRate, InvoiceDueDays: 30, Currency: "F CFA"}
}

// SaleService drives the sale lifecycle: creation, edition, delivery,
// payment and cancellation. Deliveries and returns go through the stock
// ledger in the same transaction as the sale write.
type SaleService struct {
	sales          trade.SaleRepository
	invoices       trade.InvoiceRepository
	payments       trade.PaymentRepository
	txScope        TransactionScope
	ledger         *appinv.StockLedger
	numbers        *NumberGenerator
	settings       SaleSettings
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	sales trade.SaleRepository,
	invoices trade.InvoiceRepository,
	payments trade.PaymentRepository,
	txScope TransactionScope,
	settings SaleSettings,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		sales:    sales,
		invoices: invoices,
		payments: payments,
		txScope:  txScope,
		ledger:   appinv.NewStockLedger(),
		numbers:  NewNumberGenerator(),
		settings: settings,
		logger:   logger,
	}
}

// SetLedgerRecorder reports the stock movements booked by sales
func (s *SaleService) SetLedgerRecorder(recorder appinv.LedgerRecorder) {
	s.ledger.SetRecorder(recorder)
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *SaleService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// Create opens a sale with its invoice. A positive AmountPaid is booked as
// the initial down payment. Creating a sale never moves stock.
func (s *SaleService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	lines, err := toLineInputs(req.Items)
	if err != nil {
		return nil, err
	}
	if req.AmountPaid.IsNegative() {
		return nil, shared.NewValidationError("Le montant payé ne peut pas être négatif")
	}

	var sale *trade.Sale
	var invoice *trade.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		reference, err := s.numbers.SaleReference(ctx, repos.Sales())
		if err != nil {
			return err
		}
		created, err := trade.NewSale(tenantID, req.CustomerID, reference, lines, s.settings.TaxRate)
		if err != nil {
			return err
		}

		var payment *trade.Payment
		if req.AmountPaid.IsPositive() {
			payment, err = trade.NewPayment(tenantID, created.ID, req.AmountPaid,
				trade.PaymentMethod(strings.ToUpper(req.PaymentMethod)), trade.InitialPaymentReference)
			if err != nil {
				return err
			}
			if err := created.ApplyPayment(req.AmountPaid); err != nil {
				return err
			}
		}
		if err := repos.Sales().Create(ctx, created); err != nil {
			return err
		}
		if payment != nil {
			if err := repos.Payments().Create(ctx, payment); err != nil {
				return err
			}
		}

		number, err := s.numbers.InvoiceNumber(ctx, repos.Invoices())
		if err != nil {
			return err
		}
		inv, err := trade.NewInvoice(number, created, s.settings.InvoiceDueDays, s.settings.Currency)
		if err != nil {
			return err
		}
		if created.Status == trade.SaleStatusCompleted {
			inv.MarkPaid()
		}
		if err := repos.Invoices().Create(ctx, inv); err != nil {
			return err
		}

		sale, invoice = created, inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, shared.CollectEvents(sale))
	s.logger.Info("Sale created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("reference", sale.Reference),
		zap.String("total_ttc", sale.TotalTtc.String()),
	)
	response := ToSaleResponse(sale)
	response.Invoice = ToInvoiceResponse(invoice)
	return &response, nil
}

// Update replaces every line of a sale that has no payment and no delivery,
// and re-synchronises the invoice.
func (s *SaleService) Update(ctx context.Context, tenantID, saleID uuid.UUID, req UpdateSaleRequest) (*SaleResponse, error) {
	lines, err := toLineInputs(req.Items)
	if err != nil {
		return nil, err
	}

	var sale *trade.Sale
	var invoice *trade.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.Sales().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		if err := found.ReplaceItems(req.CustomerID, lines, s.settings.TaxRate); err != nil {
			return err
		}
		if err := repos.Sales().ReplaceItems(ctx, found); err != nil {
			return err
		}
		if err := repos.Sales().Update(ctx, found); err != nil {
			return err
		}

		inv, err := repos.Invoices().FindBySaleID(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		inv.SyncWith(found)
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		sale, invoice = found, inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	response.Invoice = ToInvoiceResponse(invoice)
	return &response, nil
}

// RecordDelivery delivers product lines. Each line books an OUT movement on
// the ledger; one failing line rolls back the whole delivery.
func (s *SaleService) RecordDelivery(ctx context.Context, tenantID, saleID uuid.UUID, actor string, req RecordDeliveryRequest) (*SaleResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("Aucune ligne à livrer")
	}

	var sale *trade.Sale
	var entries []*appinv.LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}
		found, err := repos.Sales().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		delivered := make([]*trade.SaleItem, 0, len(req.Lines))
		for _, line := range req.Lines {
			item, err := found.Deliver(line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			stockItemID, _ := item.Target.StockItemID()
			entry, err := s.ledger.Apply(ctx, repos, tenantID, appinv.MovementCommand{
				StockItemID: stockItemID,
				Type:        inventory.MovementTypeOut,
				Quantity:    line.Quantity,
				Reason:      found.DeliveryReason(),
				ReferenceID: found.Reference,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			delivered = append(delivered, item)
		}

		if err := repos.Sales().UpdateDelivered(ctx, found, delivered); err != nil {
			return err
		}
		found.MarkDelivered(len(delivered))
		if err := repos.Sales().Update(ctx, found); err != nil {
			return err
		}
		sale = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, append(appinv.EntryEvents(entries), shared.CollectEvents(sale)...))
	s.logger.Info("Sale delivery recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("lines", len(entries)),
	)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Cancel voids a sale. Delivered quantities listed in ReturnToStock go back
// to stock, the paid amount is reversed by a negative payment and the
// invoice is cancelled. The campaign lock only applies when stock moves.
func (s *SaleService) Cancel(ctx context.Context, tenantID, saleID uuid.UUID, actor string, req CancelSaleRequest) (*SaleResponse, error) {
	var sale *trade.Sale
	var entries []*appinv.LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// tenant lock before the sale row, same order as deliveries
		if err := repos.Campaigns().LockTenant(ctx, tenantID, false); err != nil {
			return err
		}
		found, err := repos.Sales().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}

		type stockReturn struct {
			stockItemID uuid.UUID
			qty         int
		}
		var returns []stockReturn
		for itemID, requested := range req.ReturnToStock {
			item, err := found.Item(itemID)
			if err != nil {
				return err
			}
			qty := item.ReturnableQty(requested)
			if qty == 0 {
				continue
			}
			stockItemID, _ := item.Target.StockItemID()
			returns = append(returns, stockReturn{stockItemID: stockItemID, qty: qty})
		}
		// stock rows are locked in id order whatever the map iteration order
		slices.SortFunc(returns, func(a, b stockReturn) int {
			return bytes.Compare(a.stockItemID[:], b.stockItemID[:])
		})

		if len(returns) > 0 {
			if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
				return err
			}
		}

		refunded, err := found.Cancel(req.Reason)
		if err != nil {
			return err
		}

		for _, r := range returns {
			entry, err := s.ledger.Apply(ctx, repos, tenantID, appinv.MovementCommand{
				StockItemID: r.stockItemID,
				Type:        inventory.MovementTypeIn,
				Quantity:    r.qty,
				Reason:      found.CancellationReason(),
				ReferenceID: found.Reference,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		if refunded.IsPositive() {
			if err := repos.Payments().Create(ctx, trade.NewReversalPayment(found, refunded)); err != nil {
				return err
			}
		}
		if err := repos.Sales().Update(ctx, found); err != nil {
			return err
		}

		inv, err := repos.Invoices().FindBySaleID(ctx, tenantID, saleID)
		switch {
		case err == nil:
			inv.Cancel()
			if err := repos.Invoices().UpdateStatus(ctx, inv); err != nil {
				return err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		sale = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, append(appinv.EntryEvents(entries), shared.CollectEvents(sale)...))
	s.logger.Info("Sale cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("returned_lines", len(entries)),
	)
	response := ToSaleResponse(sale)
	return &response, nil
}

// AddPayment records money received. The journal insert and the sale's paid
// amount commit together.
func (s *SaleService) AddPayment(ctx context.Context, tenantID, saleID uuid.UUID, req AddPaymentRequest) (*SaleResponse, error) {
	var sale *trade.Sale
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.Sales().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		payment, err := trade.NewPayment(tenantID, found.ID, req.Amount,
			trade.PaymentMethod(strings.ToUpper(req.Method)), req.Reference)
		if err != nil {
			return err
		}
		if err := found.ApplyPayment(req.Amount); err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		if err := repos.Sales().Update(ctx, found); err != nil {
			return err
		}

		if found.Status == trade.SaleStatusCompleted {
			inv, err := repos.Invoices().FindBySaleID(ctx, tenantID, saleID)
			if err != nil {
				return err
			}
			inv.MarkPaid()
			if err := repos.Invoices().UpdateStatus(ctx, inv); err != nil {
				return err
			}
		}
		sale = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, shared.CollectEvents(sale))
	response := ToSaleResponse(sale)
	return &response, nil
}

// Get returns a sale with its invoice and payment journal
func (s *SaleService) Get(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)

	inv, err := s.invoices.FindBySaleID(ctx, tenantID, saleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	response.Invoice = ToInvoiceResponse(inv)

	payments, err := s.payments.FindBySaleID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response.Payments = ToPaymentResponses(payments)
	return &response, nil
}

// List returns sales, newest first by default
func (s *SaleService) List(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if domainFilter.Page == 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize == 0 {
		domainFilter.PageSize = 20
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "sale_date"
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "desc"
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = filter.To.Add(24*time.Hour - time.Nanosecond)
	}

	sales, total, err := s.sales.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleResponse(&sales[i])
	}
	return responses, total, nil
}
