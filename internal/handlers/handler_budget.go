package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/gin-gonic/gin"
)

// budgetHandler serves the document view and the mutation API.
type budgetHandler struct {
	budgetService portssvc.BudgetSvcFacade
}

// RegisterBudgetRoutes registers the view, account, item and transfer routes.
func RegisterBudgetRoutes(rg *gin.RouterGroup, budgetService portssvc.BudgetSvcFacade) {
	h := &budgetHandler{budgetService: budgetService}

	rg.GET("/view", h.getView)
	rg.GET("/totals", h.getTotals)
	rg.POST("/transfers", h.transfer)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.PUT("/:id", h.updateAccount)
		accounts.PUT("/:id/amount", h.updateAccountAmount)
		accounts.DELETE("/:id", h.deleteAccount)
	}

	items := rg.Group("/sections/:section/items")
	{
		items.POST("", h.createItem)
		items.PUT("/:id", h.updateItem)
		items.PUT("/:id/amount", h.updateItemAmount)
		items.DELETE("/:id", h.deleteItem)
		items.POST("/:id/spend", h.recordSpend)
		items.DELETE("/:id/spend/:index", h.deleteSpend)
	}
}

func (h *budgetHandler) getView(c *gin.Context) {
	c.JSON(http.StatusOK, h.budgetService.View(c.Request.Context()))
}

func (h *budgetHandler) getTotals(c *gin.Context) {
	c.JSON(http.StatusOK, h.budgetService.Totals(c.Request.Context()))
}

func (h *budgetHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateAccountRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	logger.Info("Received request to create account", slog.String("account_name", req.Name))

	account, err := h.budgetService.AddAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}
	logger.Info("Account created", slog.String("account_id", account.ID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *budgetHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	var req dto.UpdateAccountRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := h.budgetService.UpdateAccount(c.Request.Context(), c.Param("id"), req); err != nil {
		respondError(c, logger, err, "Failed to update account")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) updateAccountAmount(c *gin.Context) {
	h.updateAmount(c, domain.SectionAccounts)
}

func (h *budgetHandler) deleteAccount(c *gin.Context) {
	h.remove(c, domain.SectionAccounts)
}

func (h *budgetHandler) createItem(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	section, ok := itemSection(c, logger)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	logger.Info("Received request to create item", slog.String("section", string(section)), slog.String("item_name", req.Name))

	item, err := h.budgetService.AddItem(c.Request.Context(), section, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create item")
		return
	}
	logger.Info("Item created", slog.String("item_id", item.ID))
	c.JSON(http.StatusCreated, dto.ToItemResponse(item))
}

func (h *budgetHandler) updateItem(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("item_id", c.Param("id")))
	section, ok := itemSection(c, logger)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := h.budgetService.UpdateItem(c.Request.Context(), section, c.Param("id"), req); err != nil {
		respondError(c, logger, err, "Failed to update item")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) updateItemAmount(c *gin.Context) {
	section, ok := itemSection(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	h.updateAmount(c, section)
}

func (h *budgetHandler) deleteItem(c *gin.Context) {
	section, ok := itemSection(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	h.remove(c, section)
}

func (h *budgetHandler) updateAmount(c *gin.Context, section domain.Section) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("section", string(section)), slog.String("id", c.Param("id")))
	var req dto.UpdateAmountRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	if err := h.budgetService.UpdateAmountAndResetSpent(c.Request.Context(), section, c.Param("id"), req); err != nil {
		respondError(c, logger, err, "Failed to update amount")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) remove(c *gin.Context, section domain.Section) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("section", string(section)), slog.String("id", c.Param("id")))
	logger.Info("Received request to remove entry")
	if err := h.budgetService.RemoveItem(c.Request.Context(), section, c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to remove entry")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) recordSpend(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("item_id", c.Param("id")))
	section, ok := itemSection(c, logger)
	if !ok {
		return
	}
	var req dto.SpendRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	req.Section = section
	req.ItemID = c.Param("id")

	if err := h.budgetService.RecordSpend(c.Request.Context(), req); err != nil {
		respondError(c, logger, err, "Failed to record spend")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) deleteSpend(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("item_id", c.Param("id")))
	section, ok := itemSection(c, logger)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, logger, apperrors.Validationf("invalid spend index %q", c.Param("index")), "")
		return
	}
	if err := h.budgetService.RemoveSpendEntry(c.Request.Context(), section, c.Param("id"), index); err != nil {
		respondError(c, logger, err, "Failed to remove spend entry")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *budgetHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.TransferRequest
	if !bindJSON(c, logger, &req) {
		return
	}
	from, err := domain.ParseEntityRef(req.From)
	if err != nil {
		respondError(c, logger, apperrors.Validationf("%v", err), "")
		return
	}
	to, err := domain.ParseEntityRef(req.To)
	if err != nil {
		respondError(c, logger, apperrors.Validationf("%v", err), "")
		return
	}
	logger.Info("Received transfer", slog.String("from", from.String()), slog.String("to", to.String()), slog.String("amount", req.Amount.String()))

	if err := h.budgetService.Transfer(c.Request.Context(), from, to, req.Amount); err != nil {
		respondError(c, logger, err, "Failed to transfer")
		return
	}
	c.Status(http.StatusNoContent)
}

// itemSection parses the :section param, which must name an item section.
func itemSection(c *gin.Context, logger *slog.Logger) (domain.Section, bool) {
	section, err := domain.ParseSection(c.Param("section"))
	if err != nil {
		respondError(c, logger, apperrors.Validationf("%v", err), "")
		return "", false
	}
	if !section.IsItemSection() {
		respondError(c, logger, apperrors.Validationf("section %q does not hold items", section), "")
		return "", false
	}
	return section, true
}
