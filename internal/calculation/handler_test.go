package calculation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T, userID string) *fiber.App {
	t.Helper()
	svc, _ := newTestService(t, nil)
	h := NewHandler(svc)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	app.Post("/ltv", h.LTV)
	app.Post("/couple/dsr", h.CoupleDSR)
	app.Post("/plans", h.Plans)
	app.Get("/policy", h.Policy)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestLTVEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	resp := postJSON(t, app, "/ltv", `{"housePrice":500000000,"region":"부산","housingStatus":"무주택자","interestRate":4,"loanPeriod":30}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res LTVResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertDecimal(t, "max loan", res.MaxLoanAmount, d("350000000"))
	if res.Message != "LTV 계산이 완료되었습니다." {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestLTVEndpointRejectsInvalidInput(t *testing.T) {
	app := newTestApp(t, "")
	resp := postJSON(t, app, "/ltv", `{"housePrice":0,"region":"부산","housingStatus":"무주택자","loanPeriod":30}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCoupleEndpointWithoutPartner(t *testing.T) {
	app := newTestApp(t, "carol")
	resp := postJSON(t, app, "/couple/dsr", `{"desiredLoanAmount":100000000,"desiredInterestRate":4,"desiredLoanPeriod":30}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPolicyEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/policy", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestPlansEndpoint(t *testing.T) {
	app := newTestApp(t, "")
	resp := postJSON(t, app, "/plans", `{"housePrice":500000000,"region":"부산","annualIncome":60000000,"rateAssumed":4,"termYears":30,"repaymentType":"EPI"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res PlanResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CalculationStatus != PlanStatusSuccess || len(res.Plans) != 3 {
		t.Fatalf("unexpected plan result %+v", res)
	}

	resp = postJSON(t, app, "/plans", `{"housePrice":500000000,"region":"부산","rateAssumed":4,"termYears":30,"repaymentType":"BALLOON"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown repayment type, got %d", resp.StatusCode)
	}
}
