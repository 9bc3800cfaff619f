package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"markline/backend/internal/dto"
	"markline/backend/internal/service"
	"markline/backend/pkg/response"
)

// OrderHandler owns the admin order-lifecycle endpoints.
type OrderHandler struct {
	orderSvc service.OrderService
	ssccGen  service.SSCCGenerator
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orderSvc service.OrderService, ssccGen service.SSCCGenerator) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, ssccGen: ssccGen}
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "invalid order id")
		return 0, false
	}
	return uint(id), true
}

// Create registers an order and mints its passes.
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	order, passes, err := h.orderSvc.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrBadLevels) {
			response.BadRequest(c, 12001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, gin.H{"order": order, "passes": passes})
}

// Get returns one order.
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, 12002, "order not found")
		return
	}

	response.OK(c, order)
}

// List returns a page of orders.
// GET /api/v1/orders?offset=0&limit=20
func (h *OrderHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := h.orderSvc.List(c.Request.Context(), offset, limit)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"items": orders, "total": total})
}

// Activate opens an order for scanning.
// PUT /api/v1/orders/:id/activate
func (h *OrderHandler) Activate(c *gin.Context) {
	h.transition(c, h.orderSvc.Activate)
}

// Close finishes an order.
// PUT /api/v1/orders/:id/close
func (h *OrderHandler) Close(c *gin.Context) {
	h.transition(c, h.orderSvc.Close)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uint) error) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrBadTransition) {
			response.Conflict(c, 12003, err.Error())
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Passes lists an order's badges for printing.
// GET /api/v1/orders/:id/passes
func (h *OrderHandler) Passes(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	passes, err := h.orderSvc.Passes(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, passes)
}

// Aggregations is a bulk read of everything saved under an order.
// GET /api/v1/orders/:id/aggregations
func (h *OrderHandler) Aggregations(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	rows, err := h.orderSvc.Aggregations(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, rows)
}

// DeletePackage removes one registered package and its children.
// DELETE /api/v1/orders/:id/aggregations/:parent
func (h *OrderHandler) DeletePackage(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	parent := c.Param("parent")
	if parent == "" {
		response.BadRequest(c, 10001, "parent code required")
		return
	}

	removed, err := h.orderSvc.DeletePackage(c.Request.Context(), id, parent)
	if err != nil {
		if errors.Is(err, service.ErrPackageNotFound) {
			response.NotFound(c, 12004, "no such registered package")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, dto.UndoResponse{ParentCode: parent, Removed: removed})
}

// NextSSCC mints the next transport code for an order.
// POST /api/v1/orders/:id/sscc
func (h *OrderHandler) NextSSCC(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	sscc, err := h.ssccGen.Next(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, 12005, "sscc generator unavailable")
		return
	}

	response.OK(c, dto.SSCCResponse{SSCC: sscc})
}
