package purchasing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/identity"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/purchasing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
)

// createRetryLimit caps how often a create retries after losing the
// order-number race to a concurrent request.
const createRetryLimit = 3

// PurchaseService handles purchase order business operations.
// Completion and reopening run inside a TransactionScope because they
// rewrite product stock and cost basis alongside the order.
type PurchaseService struct {
	purchaseRepo purchasing.PurchaseRepository
	productRepo  catalog.ProductRepository
	supplierRepo partner.SupplierRepository
	txScope      TransactionScope
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	purchaseRepo purchasing.PurchaseRepository,
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	txScope TransactionScope,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		txScope:      txScope,
	}
}

// Create opens a new pending purchase order
func (s *PurchaseService) Create(ctx context.Context, actor identity.Actor, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	number, err := s.purchaseRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, err
	}

	purchase, err := purchasing.NewPurchase(number, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.SupplierID != nil {
		supplier, err := s.supplierRepo.FindByID(ctx, *req.SupplierID)
		if err != nil {
			return nil, err
		}
		if err := purchase.SetSupplier(supplier.ID, supplier.Name); err != nil {
			return nil, err
		}
	}

	for _, input := range req.Items {
		if err := s.addItem(ctx, purchase, AddPurchaseItemRequest(input)); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		purchase.Notes = req.Notes
	}

	// Two concurrent creates can draw the same number; take a fresh one
	// and retry when the insert loses that race.
	for attempt := 0; ; attempt++ {
		err = s.purchaseRepo.Save(ctx, purchase)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrDuplicateNumber) || attempt >= createRetryLimit {
			return nil, err
		}
		number, numErr := s.purchaseRepo.GenerateNumber(ctx)
		if numErr != nil {
			return nil, numErr
		}
		purchase.Number = number
	}

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

func (s *PurchaseService) addItem(ctx context.Context, purchase *purchasing.Purchase, req AddPurchaseItemRequest) error {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return err
	}

	_, err = purchase.AddItem(product.ID, product.Name, req.Quantity, valueobject.NewMoneyUSD(req.UnitCost))
	return err
}

// GetByID retrieves a purchase by ID
func (s *PurchaseService) GetByID(ctx context.Context, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// List retrieves purchases with filtering and pagination
func (s *PurchaseService) List(ctx context.Context, filter PurchaseListFilter) ([]PurchaseResponse, int64, error) {
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
	if filter.SupplierID != nil {
		domainFilter.Filters["supplier_id"] = *filter.SupplierID
	}

	items, err := s.purchaseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.purchaseRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PurchaseResponse, 0, len(items))
	for idx := range items {
		responses = append(responses, ToPurchaseResponse(&items[idx]))
	}
	return responses, total, nil
}

// AddItem adds a line to a pending purchase
func (s *PurchaseService) AddItem(ctx context.Context, purchaseID uuid.UUID, req AddPurchaseItemRequest) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if err := s.addItem(ctx, purchase, req); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, purchase); err != nil {
		return nil, err
	}

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// UpdateItem changes a line's quantity and/or unit cost
func (s *PurchaseService) UpdateItem(ctx context.Context, purchaseID, itemID uuid.UUID, req UpdatePurchaseItemRequest) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if err := purchase.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.UnitCost != nil {
		if err := purchase.UpdateItemCost(itemID, valueobject.NewMoneyUSD(*req.UnitCost)); err != nil {
			return nil, err
		}
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, purchase); err != nil {
		return nil, err
	}

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// RemoveItem removes a line from a pending purchase
func (s *PurchaseService) RemoveItem(ctx context.Context, purchaseID, itemID uuid.UUID) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if err := purchase.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, purchase); err != nil {
		return nil, err
	}

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// Complete receives the purchase into stock: each line's units are
// added to its product at the line's unit cost, folding into the
// weighted average, all inside one transaction.
func (s *PurchaseService) Complete(ctx context.Context, actor identity.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	var response PurchaseResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		purchase, err := repos.PurchaseRepo().FindByID(ctx, purchaseID)
		if err != nil {
			return err
		}

		if err := purchase.Complete(); err != nil {
			return err
		}

		for _, item := range purchase.Items {
			product, err := repos.ProductRepo().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.ReceiveStock(item.Quantity, valueobject.NewMoneyUSD(item.UnitCost)); err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
		}

		if err := repos.PurchaseRepo().SaveWithLock(ctx, purchase); err != nil {
			return err
		}

		response = ToPurchaseResponse(purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Reopen reverts a completed purchase to pending, pulling its units
// back out of stock in the same transaction. The average cost keeps
// its current value; only quantities are unwound.
func (s *PurchaseService) Reopen(ctx context.Context, actor identity.Actor, purchaseID uuid.UUID) (*PurchaseResponse, error) {
	var response PurchaseResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		purchase, err := repos.PurchaseRepo().FindByID(ctx, purchaseID)
		if err != nil {
			return err
		}

		if err := purchase.Reopen(); err != nil {
			return err
		}

		for _, item := range purchase.Items {
			product, err := repos.ProductRepo().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.RemoveStock(item.Quantity); err != nil {
				return err
			}
			if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
				return err
			}
		}

		if err := repos.PurchaseRepo().SaveWithLock(ctx, purchase); err != nil {
			return err
		}

		response = ToPurchaseResponse(purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Cancel abandons a pending purchase
func (s *PurchaseService) Cancel(ctx context.Context, actor identity.Actor, purchaseID uuid.UUID, req CancelPurchaseRequest) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if err := purchase.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.SaveWithLock(ctx, purchase); err != nil {
		return nil, err
	}

	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// Delete removes a purchase. Completed purchases must be reopened
// first so their inventory effects are unwound.
func (s *PurchaseService) Delete(ctx context.Context, purchaseID uuid.UUID) error {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return err
	}

	if purchase.Status == purchasing.PurchaseStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a completed purchase, reopen it first")
	}

	return s.purchaseRepo.Delete(ctx, purchase.ID)
}
