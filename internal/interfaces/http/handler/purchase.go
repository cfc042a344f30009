package handler

import (
	"github.com/gin-gonic/gin"

	purchasingapp "github.com/pos/backend/internal/application/purchasing"
)

// PurchaseHandler handles purchase order endpoints (admin only)
type PurchaseHandler struct {
	BaseHandler
	purchaseService *purchasingapp.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *purchasingapp.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Create opens a new purchase order, optionally with initial items.
// POST /api/v1/purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req purchasingapp.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	purchase, err := h.purchaseService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, purchase)
}

// GetByID returns a single purchase with its items.
// GET /api/v1/purchases/:id
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	purchase, err := h.purchaseService.GetByID(c.Request.Context(), purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// List returns a paginated list of purchases.
// GET /api/v1/purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var filter purchasingapp.PurchaseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	purchases, total, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, purchases, total, page, pageSize)
}

// AddItem adds a line to a pending purchase.
// POST /api/v1/purchases/:id/items
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	var req purchasingapp.AddPurchaseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	purchase, err := h.purchaseService.AddItem(c.Request.Context(), purchaseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// UpdateItem changes a line's quantity or unit cost on a pending purchase.
// PUT /api/v1/purchases/:id/items/:itemId
func (h *PurchaseHandler) UpdateItem(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req purchasingapp.UpdatePurchaseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	purchase, err := h.purchaseService.UpdateItem(c.Request.Context(), purchaseID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// RemoveItem removes a line from a pending purchase.
// DELETE /api/v1/purchases/:id/items/:itemId
func (h *PurchaseHandler) RemoveItem(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	purchase, err := h.purchaseService.RemoveItem(c.Request.Context(), purchaseID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// Complete receives the goods: stock increases and each product's
// average cost absorbs the received units.
// POST /api/v1/purchases/:id/complete
func (h *PurchaseHandler) Complete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	purchase, err := h.purchaseService.Complete(c.Request.Context(), actor, purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// Reopen puts a completed purchase back to pending and backs the
// received stock out.
// POST /api/v1/purchases/:id/reopen
func (h *PurchaseHandler) Reopen(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	purchase, err := h.purchaseService.Reopen(c.Request.Context(), actor, purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// Cancel cancels a pending purchase.
// POST /api/v1/purchases/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	// body is optional; cancelling without a reason is fine
	var req purchasingapp.CancelPurchaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	purchase, err := h.purchaseService.Cancel(c.Request.Context(), actor, purchaseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// Delete removes a pending purchase.
// DELETE /api/v1/purchases/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid purchase ID format")
		return
	}

	if err := h.purchaseService.Delete(c.Request.Context(), purchaseID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
