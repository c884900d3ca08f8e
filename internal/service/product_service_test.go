package service

import (
	"errors"
	"testing"

	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestCreateShared(t *testing.T) {
	productRepo := testutil.NewMockProductRepository()
	service := NewProductService(productRepo)

	product, err := service.CreateShared(domain.NewProductSpec{
		Name:  "  Plywood board  ",
		Price: decimal.NewFromInt(800),
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if product.Name != "Plywood board" {
		t.Errorf("expected trimmed name, got %q", product.Name)
	}
	if !product.DoesShare {
		t.Error("expected catalog product to be shared")
	}
}

func TestCreateShared_Validation(t *testing.T) {
	productRepo := testutil.NewMockProductRepository()
	service := NewProductService(productRepo)

	if _, err := service.CreateShared(domain.NewProductSpec{Name: "", Price: decimal.NewFromInt(100)}); !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got: %v", err)
	}
	if _, err := service.CreateShared(domain.NewProductSpec{Name: "Tape", Price: decimal.NewFromInt(-1)}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}
}

func TestListShared_ExcludesPrivateProducts(t *testing.T) {
	productRepo := testutil.NewMockProductRepository()
	service := NewProductService(productRepo)

	productRepo.Create(&domain.Product{Name: "Plywood board", Price: decimal.NewFromInt(800), DoesShare: true})
	productRepo.Create(&domain.Product{Name: "Custom banner", Price: decimal.NewFromInt(1500), DoesShare: false})

	products, err := service.ListShared()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 shared product, got %d", len(products))
	}
	if products[0].Name != "Plywood board" {
		t.Errorf("expected the shared product, got %q", products[0].Name)
	}
}

func TestReclaimOrphans(t *testing.T) {
	productRepo := testutil.NewMockProductRepository()
	service := NewProductService(productRepo)

	shared, _ := productRepo.Create(&domain.Product{Name: "Plywood board", Price: decimal.NewFromInt(800), DoesShare: true})
	orphan, _ := productRepo.Create(&domain.Product{Name: "Custom banner", Price: decimal.NewFromInt(1500), DoesShare: false})
	kept, _ := productRepo.Create(&domain.Product{Name: "Painted sign", Price: decimal.NewFromInt(2000), DoesShare: false})
	productRepo.Referenced[kept.ID] = 1

	reclaimed, err := service.ReclaimOrphans()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("expected 1 reclaimed, got %d", reclaimed)
	}
	if _, err := productRepo.GetByID(orphan.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected orphan removed, got: %v", err)
	}
	if _, err := productRepo.GetByID(shared.ID); err != nil {
		t.Errorf("expected shared product untouched, got: %v", err)
	}
	if _, err := productRepo.GetByID(kept.ID); err != nil {
		t.Errorf("expected referenced private product untouched, got: %v", err)
	}
}
