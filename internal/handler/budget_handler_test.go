package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestGetPartBudget(t *testing.T) {
	e := echo.New()
	partRepo := testutil.NewMockPartRepository()
	walletRepo := testutil.NewMockWalletRepository()
	handler := NewBudgetHandler(service.NewBudgetService(partRepo, walletRepo))

	part := &domain.Part{WalletID: uuid.New(), Name: "Stage", BudgetLimit: decimal.NewFromInt(30000)}
	partRepo.Create(part)
	settled := decimal.NewFromInt(10000)
	partRepo.AddPurchase(part.ID, &domain.Purchase{
		RequestCert: domain.Certificate{Approved: true},
		ActualUsage: &settled,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts/"+part.ID.String()+"/budget", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("partId")
	c.SetParamValues(part.ID.String())

	if err := handler.GetPartBudget(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response struct {
		Usage       string `json:"usage"`
		Remaining   string `json:"remaining"`
		PercentUsed string `json:"percentUsed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Usage != "10000" {
		t.Errorf("expected usage 10000, got %s", response.Usage)
	}
	if response.Remaining != "20000" {
		t.Errorf("expected remaining 20000, got %s", response.Remaining)
	}
	if response.PercentUsed != "33%" {
		t.Errorf("expected percent 33%%, got %s", response.PercentUsed)
	}
}

func TestGetPartBudget_NotFound(t *testing.T) {
	e := echo.New()
	handler := NewBudgetHandler(service.NewBudgetService(testutil.NewMockPartRepository(), testutil.NewMockWalletRepository()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts/"+uuid.NewString()+"/budget", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("partId")
	c.SetParamValues(uuid.NewString())

	if err := handler.GetPartBudget(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
