package handler

import (
	"database/sql"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/repository"
)

// CatalogHandler serves the public catalog (pricing plans, credit packs)
// and the admin CRUD for both, plus the definition listings used by the
// purchase pages.
type CatalogHandler struct {
	Plans  *repository.PlanRepo
	Packs  *repository.CreditPackRepo
	AddOns *repository.AddOnRepo
}

func NewCatalogHandler(p *repository.PlanRepo, cp *repository.CreditPackRepo, a *repository.AddOnRepo) *CatalogHandler {
	return &CatalogHandler{Plans: p, Packs: cp, AddOns: a}
}

type planReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Interval    string  `json:"interval"`
}

type planView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Interval    string  `json:"interval"`
	IsActive    bool    `json:"is_active"`
}

func viewOfPlan(p model.Plan) planView {
	return planView{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price,
		Currency: p.Currency, Interval: p.Interval, IsActive: p.IsActive}
}

type packDefReq struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CreditsAmount int     `json:"credits_amount"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	ValidityDays  *int    `json:"validity_days"`
}

type packDefView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CreditsAmount int     `json:"credits_amount"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	ValidityDays  *int    `json:"validity_days"`
}

func viewOfPackDef(d model.CreditPackDefinition) packDefView {
	return packDefView{ID: d.ID, Name: d.Name, Description: d.Description,
		CreditsAmount: d.CreditsAmount, Price: d.Price, Currency: d.Currency,
		ValidityDays: d.ValidityDays}
}

type addOnDefView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Interval    *string `json:"interval"`
}

func viewOfAddOnDef(d model.AddOnDefinition) addOnDefView {
	return addOnDefView{ID: d.ID, Name: d.Name, Description: d.Description,
		Price: d.Price, Currency: d.Currency, Interval: d.Interval}
}

// ----- pricing plans -----

// ListPlans returns active plans only; inactive (soft-deleted) plans stay
// out of the public price table.
func (h *CatalogHandler) ListPlans(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	plans, err := h.Plans.List(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, viewOfPlan(p))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *CatalogHandler) GetPlan(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Plans.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Pricing plan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, viewOfPlan(p))
}

func (h *CatalogHandler) CreatePlan(c echo.Context) error {
	var req planReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Currency == "" || req.Interval == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, currency and interval are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id := uuid.NewString()
	err := h.Plans.Create(ctx, model.Plan{
		ID: id, Name: req.Name, Description: req.Description,
		Price: req.Price, Currency: req.Currency, Interval: req.Interval, IsActive: true,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Pricing plan created successfully", "id": id})
}

func (h *CatalogHandler) UpdatePlan(c echo.Context) error {
	var req planReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Currency == "" || req.Interval == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, currency and interval are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Plans.Update(ctx, model.Plan{
		ID: c.Param("id"), Name: req.Name, Description: req.Description,
		Price: req.Price, Currency: req.Currency, Interval: req.Interval,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Pricing plan not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Pricing plan updated successfully"})
}

// DeletePlan deactivates rather than deletes so existing subscriptions
// keep a valid plan reference.
func (h *CatalogHandler) DeletePlan(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Plans.Deactivate(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Pricing plan not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Pricing plan marked as inactive successfully"})
}

// ----- credit pack definitions -----

func (h *CatalogHandler) ListPackDefs(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	defs, err := h.Packs.ListDefinitions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	views := make([]packDefView, 0, len(defs))
	for _, d := range defs {
		views = append(views, viewOfPackDef(d))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *CatalogHandler) GetPackDef(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.Packs.GetDefinition(ctx, c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Credit pack not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusOK, viewOfPackDef(d))
}

func (h *CatalogHandler) CreatePackDef(c echo.Context) error {
	var req packDefReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Currency == "" || req.CreditsAmount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, currency and a positive credits_amount are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id := uuid.NewString()
	err := h.Packs.CreateDefinition(ctx, model.CreditPackDefinition{
		ID: id, Name: req.Name, Description: req.Description,
		CreditsAmount: req.CreditsAmount, Price: req.Price,
		Currency: req.Currency, ValidityDays: req.ValidityDays,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Credit pack created successfully", "id": id})
}

func (h *CatalogHandler) UpdatePackDef(c echo.Context) error {
	var req packDefReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if req.Name == "" || req.Currency == "" || req.CreditsAmount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, currency and a positive credits_amount are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Packs.UpdateDefinition(ctx, model.CreditPackDefinition{
		ID: c.Param("id"), Name: req.Name, Description: req.Description,
		CreditsAmount: req.CreditsAmount, Price: req.Price,
		Currency: req.Currency, ValidityDays: req.ValidityDays,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Credit pack not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Credit pack updated successfully"})
}

func (h *CatalogHandler) DeletePackDef(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	affected, err := h.Packs.DeleteDefinition(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}
	if affected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Credit pack not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Credit pack deleted successfully"})
}

// ----- authenticated definition listings -----

// PlanDefinitions backs the in-app plan picker (all active plans).
func (h *CatalogHandler) PlanDefinitions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	plans, err := h.Plans.List(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving plans"})
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, viewOfPlan(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": views})
}

func (h *CatalogHandler) PackDefinitions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	defs, err := h.Packs.ListDefinitions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving credit pack definitions"})
	}
	views := make([]packDefView, 0, len(defs))
	for _, d := range defs {
		views = append(views, viewOfPackDef(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"creditPacks": views})
}

func (h *CatalogHandler) AddOnDefinitions(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	defs, err := h.AddOns.ListDefinitions(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error retrieving add-on definitions"})
	}
	views := make([]addOnDefView, 0, len(defs))
	for _, d := range defs {
		views = append(views, viewOfAddOnDef(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"addOns": views})
}
