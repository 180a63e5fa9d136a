package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/queue"
	"github.com/kapiree/billing-portal/internal/repository"
	queuepublisher "github.com/kapiree/billing-portal/internal/service"
)

// PurchaseHandler implements credit pack and add-on purchases. Each
// purchase is one transaction: ownership insert, any balance update, and
// the ledger row commit or roll back together. Events go out only after
// commit, best effort.
type PurchaseHandler struct {
	Users        *repository.UserRepo
	Packs        *repository.CreditPackRepo
	AddOns       *repository.AddOnRepo
	Transactions *repository.TransactionRepo
}

func NewPurchaseHandler(u *repository.UserRepo, p *repository.CreditPackRepo, a *repository.AddOnRepo, t *repository.TransactionRepo) *PurchaseHandler {
	return &PurchaseHandler{Users: u, Packs: p, AddOns: a, Transactions: t}
}

type purchasePackReq struct {
	CreditPackDefID string `json:"creditPackDefId"`
}

type purchaseAddOnReq struct {
	AddOnDefID string `json:"addOnDefId"`
}

// PurchaseCreditPack grants a pack to the caller: ownership row, relative
// credits increment, ledger row, one commit.
func (h *PurchaseHandler) PurchaseCreditPack(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	var req purchasePackReq
	if err := c.Bind(&req); err != nil || req.CreditPackDefID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Credit pack definition ID is required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Packs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	def, err := h.Packs.GetDefinitionTx(ctx, tx, req.CreditPackDefID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Credit pack not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}

	var expiration *time.Time
	if def.ValidityDays != nil {
		t := time.Now().UTC().AddDate(0, 0, *def.ValidityDays)
		expiration = &t
	}

	ownedID := uuid.NewString()
	if err := h.Packs.InsertUserPackTx(ctx, tx, ownedID, id.UserID, def.ID, def.CreditsAmount, expiration); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}
	if err := h.Users.AddCreditsTx(ctx, tx, id.UserID, def.CreditsAmount); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}

	txnID := uuid.NewString()
	if err := h.Transactions.InsertTx(ctx, tx, model.Transaction{
		ID: txnID, UserID: id.UserID,
		ItemType: model.ItemCreditPack, ItemID: ownedID, ItemName: def.Name,
		TransactionType: model.TxPurchase, AmountPaid: def.Price,
		Currency: def.Currency, Status: "Completed",
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during credit pack purchase"})
	}
	committed = true

	_ = queuepublisher.PublishBillingEvent(ctx, queue.BillingEvent{
		TransactionID: txnID, UserID: id.UserID,
		ItemType: model.ItemCreditPack, ItemID: ownedID, ItemName: def.Name,
		TransactionType: model.TxPurchase, AmountPaid: def.Price,
		Currency: def.Currency, OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "Credit pack purchased successfully."})
}

// PurchaseAddOn grants an add-on to the caller. Recurring definitions get
// an end date one interval out; one-time definitions stay open-ended.
func (h *PurchaseHandler) PurchaseAddOn(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	var req purchaseAddOnReq
	if err := c.Bind(&req); err != nil || req.AddOnDefID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Add-on definition ID is required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.AddOns.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during add-on purchase"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	def, err := h.AddOns.GetDefinitionTx(ctx, tx, req.AddOnDefID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Add-on not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during add-on purchase"})
	}

	var endDate *time.Time
	if def.Interval != nil {
		now := time.Now().UTC()
		switch *def.Interval {
		case model.IntervalMonth:
			t := now.AddDate(0, 1, 0)
			endDate = &t
		case model.IntervalYear:
			t := now.AddDate(1, 0, 0)
			endDate = &t
		}
	}

	ownedID := uuid.NewString()
	if err := h.AddOns.InsertUserAddOnTx(ctx, tx, ownedID, id.UserID, def.ID, endDate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during add-on purchase"})
	}

	txnID := uuid.NewString()
	if err := h.Transactions.InsertTx(ctx, tx, model.Transaction{
		ID: txnID, UserID: id.UserID,
		ItemType: model.ItemAddOn, ItemID: ownedID, ItemName: def.Name,
		TransactionType: model.TxPurchase, AmountPaid: def.Price,
		Currency: def.Currency, Status: "Completed",
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during add-on purchase"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during add-on purchase"})
	}
	committed = true

	_ = queuepublisher.PublishBillingEvent(ctx, queue.BillingEvent{
		TransactionID: txnID, UserID: id.UserID,
		ItemType: model.ItemAddOn, ItemID: ownedID, ItemName: def.Name,
		TransactionType: model.TxPurchase, AmountPaid: def.Price,
		Currency: def.Currency, OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "Add-on purchased successfully."})
}
