package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	salesapp "github.com/pos/backend/internal/application/sales"
)

// parseDateTime parses a datetime string in the formats clients send
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// SaleHandler handles sale order endpoints
type SaleHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create opens a new sale, optionally with initial items.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req salesapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// GetByID returns a single sale with its items.
// GET /api/v1/sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// List returns a paginated list of sales. Cashiers see only their own.
// GET /api/v1/sales
func (h *SaleHandler) List(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter salesapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	sales, total, err := h.saleService.List(c.Request.Context(), actor, filter)
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
	h.SuccessWithMeta(c, sales, total, page, pageSize)
}

// AddItem adds a line to a pending sale.
// POST /api/v1/sales/:id/items
func (h *SaleHandler) AddItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req salesapp.AddSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	sale, err := h.saleService.AddItem(c.Request.Context(), actor, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// UpdateItem changes a line's quantity on a pending sale.
// PUT /api/v1/sales/:id/items/:itemId
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req salesapp.UpdateSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	sale, err := h.saleService.UpdateItemQuantity(c.Request.Context(), actor, saleID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// RemoveItem removes a line from a pending sale.
// DELETE /api/v1/sales/:id/items/:itemId
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	sale, err := h.saleService.RemoveItem(c.Request.Context(), actor, saleID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Complete finalizes a sale: stock is deducted and the profit is frozen
// at today's average costs.
// POST /api/v1/sales/:id/complete
func (h *SaleHandler) Complete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	result, err := h.saleService.Complete(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reopen puts a completed sale back to pending and restores stock.
// POST /api/v1/sales/:id/reopen
func (h *SaleHandler) Reopen(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.saleService.Reopen(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Cancel cancels a pending sale.
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	// body is optional; cancelling without a reason is fine
	var req salesapp.CancelSaleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	sale, err := h.saleService.Cancel(c.Request.Context(), actor, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Delete removes a pending sale.
// DELETE /api/v1/sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	saleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	if err := h.saleService.Delete(c.Request.Context(), actor, saleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Summary aggregates completed sales over a period. Defaults to today.
// GET /api/v1/sales/summary
func (h *SaleHandler) Summary(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	if s := c.Query("from"); s != "" {
		from, err = parseDateTime(s)
		if err != nil {
			h.BadRequest(c, "Invalid from date")
			return
		}
	}
	if s := c.Query("to"); s != "" {
		to, err = parseDateTime(s)
		if err != nil {
			h.BadRequest(c, "Invalid to date")
			return
		}
	}
	if !to.After(from) {
		h.BadRequest(c, "to must be after from")
		return
	}

	summary, err := h.saleService.Summary(c.Request.Context(), actor, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
