package service

import (
	"errors"
	"testing"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestPricingServiceDefaultTiers(t *testing.T) {
	svc := NewPricingService(nil)

	tiers := svc.Tiers()
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got: %d", len(tiers))
	}

	fee, err := svc.FeeFor(constants.ShippingTierStandard)
	if err != nil {
		t.Fatalf("fee for standard failed: %v", err)
	}
	if fee.String() != "5.00" {
		t.Fatalf("standard fee want 5.00 got %s", fee)
	}
	fee, err = svc.FeeFor(constants.ShippingTierExpress)
	if err != nil {
		t.Fatalf("fee for express failed: %v", err)
	}
	if fee.String() != "12.00" {
		t.Fatalf("express fee want 12.00 got %s", fee)
	}
	fee, err = svc.FeeFor(constants.ShippingTierOvernight)
	if err != nil {
		t.Fatalf("fee for overnight failed: %v", err)
	}
	if fee.String() != "23.00" {
		t.Fatalf("overnight fee want 23.00 got %s", fee)
	}
}

func TestPricingServiceFeeForNormalizesInput(t *testing.T) {
	svc := NewPricingService(nil)

	fee, err := svc.FeeFor("  Express  ")
	if err != nil {
		t.Fatalf("fee for padded tier failed: %v", err)
	}
	if fee.String() != "12.00" {
		t.Fatalf("express fee want 12.00 got %s", fee)
	}
}

func TestPricingServiceFeeForUnknownTier(t *testing.T) {
	svc := NewPricingService(nil)

	if _, err := svc.FeeFor("teleport"); !errors.Is(err, ErrInvalidShippingTier) {
		t.Fatalf("expected ErrInvalidShippingTier, got: %v", err)
	}
	if _, err := svc.FeeFor(""); !errors.Is(err, ErrInvalidShippingTier) {
		t.Fatalf("expected ErrInvalidShippingTier for empty tier, got: %v", err)
	}
}

func TestPricingServiceConfigOverrides(t *testing.T) {
	svc := NewPricingService(&config.PricingConfig{
		TaxRate: 0.1,
		ShippingTiers: map[string]float64{
			"Drone": 42,
		},
	})

	if !svc.TaxRate().Equal(decimal.NewFromFloat(0.1)) {
		t.Fatalf("tax rate want 0.1 got %s", svc.TaxRate())
	}
	fee, err := svc.FeeFor("drone")
	if err != nil {
		t.Fatalf("fee for drone failed: %v", err)
	}
	if fee.String() != "42.00" {
		t.Fatalf("drone fee want 42.00 got %s", fee)
	}
	if _, err := svc.FeeFor(constants.ShippingTierStandard); !errors.Is(err, ErrInvalidShippingTier) {
		t.Fatalf("configured tiers should replace defaults, got: %v", err)
	}
}

func TestPricingServiceSubtotal(t *testing.T) {
	svc := NewPricingService(nil)

	items := []models.OrderItem{
		{UnitPrice: models.NewMoneyFromFloat(19.99), Quantity: 2},
		{UnitPrice: models.NewMoneyFromFloat(5.50), Quantity: 3},
	}
	subtotal := svc.Subtotal(items)
	if subtotal.String() != "56.48" {
		t.Fatalf("subtotal want 56.48 got %s", subtotal)
	}

	if got := svc.Subtotal(nil); got.String() != "0.00" {
		t.Fatalf("empty subtotal want 0.00 got %s", got)
	}
}

func TestPricingServiceQuote(t *testing.T) {
	svc := NewPricingService(nil)

	items := []models.OrderItem{
		{UnitPrice: models.NewMoneyFromFloat(100), Quantity: 1},
	}
	quote := svc.Quote(items, models.NewMoneyFromFloat(5), models.NewMoneyFromFloat(10))

	if quote.Subtotal.String() != "100.00" {
		t.Fatalf("subtotal want 100.00 got %s", quote.Subtotal)
	}
	if quote.Tax.String() != "8.00" {
		t.Fatalf("tax want 8.00 got %s", quote.Tax)
	}
	// 100 + 5 + 8 - 10
	if quote.Total.String() != "103.00" {
		t.Fatalf("total want 103.00 got %s", quote.Total)
	}
}

func TestPricingServiceQuoteAllowsNegativeTotal(t *testing.T) {
	svc := NewPricingService(nil)

	items := []models.OrderItem{
		{UnitPrice: models.NewMoneyFromFloat(10), Quantity: 1},
	}
	quote := svc.Quote(items, models.NewMoneyFromFloat(5), models.NewMoneyFromFloat(100))

	// 10 + 5 + 0.8 - 100，折扣超额时不裁剪
	if quote.Total.String() != "-84.20" {
		t.Fatalf("total want -84.20 got %s", quote.Total)
	}
}
