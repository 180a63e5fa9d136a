package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kapiree/billing-portal/internal/model"
	"github.com/kapiree/billing-portal/internal/token"
)

// newJSONContext builds an echo context for a request with an optional JSON
// body, returning the recorder that captures the response.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asSuperAdmin(c echo.Context, userID string) {
	c.Set("identity", &token.Claims{UserID: userID, Role: "Super Admin", Rank: model.RankSuperAdmin})
}

func asTenantAdmin(c echo.Context, userID, companyID string) {
	c.Set("identity", &token.Claims{
		UserID: userID, Role: "Tenant Admin", Rank: model.RankTenantAdmin, CompanyID: companyID,
	})
}

func asMember(c echo.Context, userID, companyID string) {
	c.Set("identity", &token.Claims{
		UserID: userID, Role: "Member", Rank: model.RankMember, CompanyID: companyID,
	})
}

// stubBroker points the queue publisher at an unparseable URL so best-effort
// event publishes fail fast instead of dialing a real broker.
func stubBroker(t *testing.T) {
	t.Helper()
	t.Setenv("RABBITMQ_URL", "stub://nowhere")
}
