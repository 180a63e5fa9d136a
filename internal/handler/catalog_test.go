package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapiree/billing-portal/internal/repository"
)

func newCatalogHandler(t *testing.T) (*CatalogHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewCatalogHandler(
		repository.NewPlanRepo(db),
		repository.NewCreditPackRepo(db),
		repository.NewAddOnRepo(db),
	)
	return h, mock
}

func TestUpdatePlanValidation(t *testing.T) {
	t.Run("blank fields cannot blank a live plan", func(t *testing.T) {
		h, mock := newCatalogHandler(t)

		c, rec := newJSONContext(http.MethodPut, "/api/pricing-plans/plan-1", `{}`)
		c.SetParamNames("id")
		c.SetParamValues("plan-1")
		asSuperAdmin(c, "root")

		require.NoError(t, h.UpdatePlan(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Name, currency and interval are required.")
		// the update never reached the database
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("complete body updates the plan", func(t *testing.T) {
		h, mock := newCatalogHandler(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE plans SET name = ?")).
			WithArgs("Pro", "More of everything", 49.0, "USD", "month", "plan-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := `{"name":"Pro","description":"More of everything","price":49,"currency":"USD","interval":"month"}`
		c, rec := newJSONContext(http.MethodPut, "/api/pricing-plans/plan-1", body)
		c.SetParamNames("id")
		c.SetParamValues("plan-1")
		asSuperAdmin(c, "root")

		require.NoError(t, h.UpdatePlan(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Pricing plan updated successfully")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePackDefValidation(t *testing.T) {
	t.Run("blank fields are rejected", func(t *testing.T) {
		h, mock := newCatalogHandler(t)

		c, rec := newJSONContext(http.MethodPut, "/api/credit-packs/pack-1", `{"name":"Starter"}`)
		c.SetParamNames("id")
		c.SetParamValues("pack-1")
		asSuperAdmin(c, "root")

		require.NoError(t, h.UpdatePackDef(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Name, currency and a positive credits_amount are required.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("complete body updates the definition", func(t *testing.T) {
		h, mock := newCatalogHandler(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE credit_packs_definition")).
			WithArgs("Starter", "30 credits", 30, 9.99, "USD", nil, "pack-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := `{"name":"Starter","description":"30 credits","credits_amount":30,"price":9.99,"currency":"USD"}`
		c, rec := newJSONContext(http.MethodPut, "/api/credit-packs/pack-1", body)
		c.SetParamNames("id")
		c.SetParamValues("pack-1")
		asSuperAdmin(c, "root")

		require.NoError(t, h.UpdatePackDef(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Credit pack updated successfully")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
