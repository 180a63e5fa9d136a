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

// SubscriptionHandler serves the subscription overview and the renew and
// cancel lifecycle operations. Lifecycle writes and their ledger rows
// commit in one transaction.
type SubscriptionHandler struct {
	Subs         *repository.SubscriptionRepo
	Users        *repository.UserRepo
	Packs        *repository.CreditPackRepo
	AddOns       *repository.AddOnRepo
	Transactions *repository.TransactionRepo
}

func NewSubscriptionHandler(s *repository.SubscriptionRepo, u *repository.UserRepo, p *repository.CreditPackRepo, a *repository.AddOnRepo, t *repository.TransactionRepo) *SubscriptionHandler {
	return &SubscriptionHandler{Subs: s, Users: u, Packs: p, AddOns: a, Transactions: t}
}

type transactionView struct {
	ID              string    `json:"id"`
	Date            time.Time `json:"date"`
	ItemName        string    `json:"item_name"`
	TransactionType string    `json:"transaction_type"`
	AmountPaid      float64   `json:"amount_paid"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	InvoiceURL      *string   `json:"invoice_url"`
}

// Overview aggregates the caller's current subscription, credit balance,
// usable credit packs, active add-ons and full transaction history. 404
// only when every section is empty.
func (h *SubscriptionHandler) Overview(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	var current *repository.SubscriptionDetail
	detail, err := h.Subs.ActiveDetail(ctx, id.UserID)
	switch err {
	case nil:
		current = &detail
	case sql.ErrNoRows:
		// no active subscription; the other sections may still have data
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving subscription details"})
	}

	credits, err := h.Users.Credits(ctx, id.UserID)
	if err != nil && err != sql.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving subscription details"})
	}
	packs, err := h.Packs.UsablePacks(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving subscription details"})
	}
	addOns, err := h.AddOns.ActiveForUser(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving subscription details"})
	}
	history, err := h.Transactions.ListByUser(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving subscription details"})
	}

	if current == nil && len(packs) == 0 && len(addOns) == 0 && len(history) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No subscription, credit packs, add-ons, or transaction history found"})
	}

	histViews := make([]transactionView, 0, len(history))
	for _, t := range history {
		histViews = append(histViews, transactionView{
			ID: t.ID, Date: t.TransactionDate, ItemName: t.ItemName,
			TransactionType: t.TransactionType, AmountPaid: t.AmountPaid,
			Currency: t.Currency, Status: t.Status, InvoiceURL: t.InvoiceURL,
		})
	}

	body := echo.Map{
		"credit_balance":      credits,
		"credit_packs":        packs,
		"add_ons":             addOns,
		"transaction_history": histViews,
	}
	if current != nil {
		body["id"] = current.ID
		body["status"] = current.Status
		body["start_date"] = current.StartDate
		body["end_date"] = current.EndDate
		body["auto_renew"] = current.AutoRenew
		body["plan_id"] = current.PlanID
		body["plan_name"] = current.PlanName
		body["plan_description"] = current.PlanDescription
		body["price"] = current.Price
		body["currency"] = current.Currency
		body["interval"] = current.Interval
	}
	return c.JSON(http.StatusOK, echo.Map{"subscription": body})
}

// Renew extends the current active subscription by one interval unit from
// its existing end date, so renewing late never shifts the billing anchor,
// and records a Renewal ledger row at the plan's list price.
func (h *SubscriptionHandler) Renew(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription renewal"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.CurrentActiveTx(ctx, tx, id.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "No active subscription to renew."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription renewal"})
	}

	base := time.Now().UTC()
	if sub.EndDate != nil {
		base = *sub.EndDate
	}
	newEnd, err := repository.NextEndDate(base, sub.PlanInterval)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Unsupported subscription interval for renewal."})
	}

	if err := h.Subs.RenewTx(ctx, tx, sub.ID, newEnd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription renewal"})
	}

	txnID := uuid.NewString()
	if err := h.Transactions.InsertTx(ctx, tx, model.Transaction{
		ID: txnID, UserID: id.UserID,
		ItemType: model.ItemSubscription, ItemID: sub.ID, ItemName: sub.PlanName,
		TransactionType: model.TxRenewal, AmountPaid: sub.PlanPrice,
		Currency: sub.PlanCurrency, Status: "Completed",
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription renewal"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription renewal"})
	}
	committed = true

	_ = queuepublisher.PublishBillingEvent(ctx, queue.BillingEvent{
		TransactionID: txnID, UserID: id.UserID,
		ItemType: model.ItemSubscription, ItemID: sub.ID, ItemName: sub.PlanName,
		TransactionType: model.TxRenewal, AmountPaid: sub.PlanPrice,
		Currency: sub.PlanCurrency, OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Subscription renewed successfully.",
		"newEndDate": newEnd.Format(time.RFC3339),
	})
}

// Cancel marks the current active subscription cancelled. The end date is
// left untouched so access runs through the already-paid period, and a
// zero-amount Cancellation row lands in the ledger.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	id, ok := identity(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID not available in token."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	tx, err := h.Subs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription cancellation"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sub, err := h.Subs.CurrentActiveTx(ctx, tx, id.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "No active subscription to cancel."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription cancellation"})
	}

	if err := h.Subs.CancelTx(ctx, tx, sub.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription cancellation"})
	}

	txnID := uuid.NewString()
	if err := h.Transactions.InsertTx(ctx, tx, model.Transaction{
		ID: txnID, UserID: id.UserID,
		ItemType: model.ItemSubscription, ItemID: sub.ID, ItemName: sub.PlanName,
		TransactionType: model.TxCancellation, AmountPaid: 0,
		Currency: sub.PlanCurrency, Status: "Completed",
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription cancellation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error during subscription cancellation"})
	}
	committed = true

	_ = queuepublisher.PublishBillingEvent(ctx, queue.BillingEvent{
		TransactionID: txnID, UserID: id.UserID,
		ItemType: model.ItemSubscription, ItemID: sub.ID, ItemName: sub.PlanName,
		TransactionType: model.TxCancellation, AmountPaid: 0,
		Currency: sub.PlanCurrency, OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Subscription cancelled successfully.",
		"endDate": sub.EndDate,
	})
}
