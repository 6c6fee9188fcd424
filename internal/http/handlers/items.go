package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/http/response"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/services"
)

type ItemsHandler struct {
	log   *logger.Logger
	items services.ItemService
}

func NewItemsHandler(log *logger.Logger, items services.ItemService) *ItemsHandler {
	return &ItemsHandler{log: log.With("handler", "ItemsHandler"), items: items}
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// GET /api/production-items
func (h *ItemsHandler) List(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_pagination", err)
		return
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_pagination", err)
		return
	}

	filter := orders.ListFilter{
		Skip:   skip,
		Limit:  limit,
		Style:  strings.TrimSpace(c.Query("style")),
		Status: strings.TrimSpace(c.Query("status")),
	}
	page, err := h.items.List(dbctx.Context{Ctx: c.Request.Context()}, filter)
	if err != nil {
		h.log.Error("List production items failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_items_failed", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/production-items/:id
func (h *ItemsHandler) Get(c *gin.Context) {
	itemID := c.Param("id")
	item, err := h.items.Get(dbctx.Context{Ctx: c.Request.Context()}, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "item_not_found", fmt.Errorf("production item not found"))
			return
		}
		h.log.Error("Get production item failed", "item_id", itemID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "get_item_failed", err)
		return
	}
	response.RespondOK(c, item)
}

// DELETE /api/production-items/:id
func (h *ItemsHandler) Delete(c *gin.Context) {
	itemID := c.Param("id")
	_, err := h.items.Delete(dbctx.Context{Ctx: c.Request.Context()}, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "item_not_found", fmt.Errorf("production item not found"))
			return
		}
		h.log.Error("Delete production item failed", "item_id", itemID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "delete_item_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"message": fmt.Sprintf("Item %s deleted successfully", itemID),
		"id":      itemID,
	})
}
