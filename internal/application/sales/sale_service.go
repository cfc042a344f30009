package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// createRetryLimit caps how often a create retries after losing the
// order-number race to a concurrent request.
const createRetryLimit = 3

// SaleService handles sale business operations. Reads go through the
// plain repositories; completion, reopening and anything else that
// touches both a sale and product stock runs inside a TransactionScope.
type SaleService struct {
	saleRepo     sales.SaleRepository
	productRepo  catalog.ProductRepository
	customerRepo partner.CustomerRepository
	txScope      TransactionScope
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo sales.SaleRepository,
	productRepo catalog.ProductRepository,
	customerRepo partner.CustomerRepository,
	txScope TransactionScope,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		txScope:      txScope,
	}
}

// Create opens a new pending sale, optionally pre-populated with items
func (s *SaleService) Create(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	number, err := s.saleRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, err
	}

	method := sales.PaymentMethod(req.PaymentMethod)
	if req.PaymentMethod == "" {
		method = sales.PaymentCash
	}

	sale, err := sales.NewSale(number, actor.UserID, method)
	if err != nil {
		return nil, err
	}

	if req.CustomerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		if err := sale.SetCustomer(customer.ID, customer.Name); err != nil {
			return nil, err
		}
	}

	for _, input := range req.Items {
		if err := s.addItem(ctx, sale, AddSaleItemRequest(input)); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		sale.Notes = req.Notes
	}

	// Two concurrent creates can draw the same number; take a fresh one
	// and retry when the insert loses that race.
	for attempt := 0; ; attempt++ {
		err = s.saleRepo.Save(ctx, sale)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrDuplicateNumber) || attempt >= createRetryLimit {
			return nil, err
		}
		number, numErr := s.saleRepo.GenerateNumber(ctx)
		if numErr != nil {
			return nil, numErr
		}
		sale.Number = number
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// addItem snapshots the product's price and cost onto a new line.
// Stock is only checked here, not deducted; deduction happens at
// completion inside the transaction.
func (s *SaleService) addItem(ctx context.Context, sale *sales.Sale, req AddSaleItemRequest) error {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return err
	}

	if req.Quantity > product.Stock {
		return shared.NewStockError(product.ID.String(), product.Name, product.Stock, req.Quantity)
	}

	// Price is derived from cost and margin. A manual price is honored
	// only while the product has no cost basis yet.
	unitPrice := product.SellingPrice()
	if product.AverageCost.IsZero() && req.UnitPrice != nil {
		unitPrice = valueobject.NewMoneyUSD(*req.UnitPrice)
	}

	_, err = sale.AddItem(product.ID, product.Name, req.Quantity, unitPrice, product.AverageCost)
	return err
}

// GetByID retrieves a sale visible to the actor
func (s *SaleService) GetByID(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves sales visible to the actor with filtering and pagination
func (s *SaleService) List(ctx context.Context, actor identity.Actor, filter SaleListFilter) ([]SaleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}

	scope := actor.Scope()
	items, err := s.saleRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SaleResponse, 0, len(items))
	for idx := range items {
		responses = append(responses, ToSaleResponse(&items[idx]))
	}
	return responses, total, nil
}

// AddItem adds a line to a pending sale
func (s *SaleService) AddItem(ctx context.Context, actor identity.Actor, saleID uuid.UUID, req AddSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return nil, err
	}

	if err := s.addItem(ctx, sale, req); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// UpdateItemQuantity changes a line's quantity. The line's own
// reserved quantity counts as available headroom for the stock check.
func (s *SaleService) UpdateItemQuantity(ctx context.Context, actor identity.Actor, saleID, itemID uuid.UUID, req UpdateSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return nil, err
	}

	var current *sales.SaleItem
	for idx := range sale.Items {
		if sale.Items[idx].ID == itemID {
			current = &sale.Items[idx]
			break
		}
	}
	if current == nil {
		return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Sale item not found")
	}

	product, err := s.productRepo.FindByID(ctx, current.ProductID)
	if err != nil {
		return nil, err
	}

	headroom := product.Stock + current.Quantity
	if req.Quantity > headroom {
		return nil, shared.NewStockError(product.ID.String(), product.Name, headroom, req.Quantity)
	}

	if err := sale.UpdateItemQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// RemoveItem removes a line from a pending sale
func (s *SaleService) RemoveItem(ctx context.Context, actor identity.Actor, saleID, itemID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// Complete finalizes a sale: inside one transaction it re-validates
// and deducts stock for every line, freezes the sale's profit, and
// persists everything with optimistic lock checks. Any failure rolls
// the whole thing back, so stock is never half-applied.
func (s *SaleService) Complete(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*CompleteSaleResponse, error) {
	var response CompleteSaleResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDScoped(ctx, actor.Scope(), saleID)
		if err != nil {
			return err
		}

		// Fail the state guards before touching any product row.
		if err := sale.Complete(); err != nil {
			return err
		}

		for _, item := range sale.Items {
			product, err := repos.ProductRepo().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.DeductStock(item.Quantity); err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
		}

		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return err
		}

		response = CompleteSaleResponse{
			Sale:        ToSaleResponse(sale),
			TotalProfit: sale.Profit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Reopen reverts a completed sale to pending, returning every line's
// units to stock in the same transaction.
func (s *SaleService) Reopen(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	var response SaleResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDScoped(ctx, actor.Scope(), saleID)
		if err != nil {
			return err
		}

		if err := sale.Reopen(); err != nil {
			return err
		}

		for _, item := range sale.Items {
			product, err := repos.ProductRepo().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.RestoreStock(item.Quantity); err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
		}

		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return err
		}

		response = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Cancel abandons a pending sale. No inventory is touched because a
// pending sale never deducted any.
func (s *SaleService) Cancel(ctx context.Context, actor identity.Actor, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// Delete removes a sale. Only pending or cancelled sales may be
// deleted; completed ones hold the profit record.
func (s *SaleService) Delete(ctx context.Context, actor identity.Actor, saleID uuid.UUID) error {
	sale, err := s.saleRepo.FindByIDScoped(ctx, actor.Scope(), saleID)
	if err != nil {
		return err
	}

	if sale.Status == sales.SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a completed sale, reopen it first")
	}

	return s.saleRepo.Delete(ctx, sale.ID)
}

// Summary aggregates completed sales between two instants
func (s *SaleService) Summary(ctx context.Context, actor identity.Actor, from, to time.Time) (*SaleSummaryResponse, error) {
	summary, err := s.saleRepo.Summarize(ctx, actor.Scope(), from, to)
	if err != nil {
		return nil, err
	}

	return &SaleSummaryResponse{
		From:   from,
		To:     to,
		Count:  summary.Count,
		Total:  summary.Total,
		Profit: summary.Profit,
	}, nil
}
