package models

import "github.com/shopspring/decimal"

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID           string          `json:"id"`
	Credits      int             `json:"credits"`
	Price        decimal.Decimal `json:"price"`
	Popular      bool            `json:"popular"`
	ValidityDays int             `json:"validityDays"`
}

// PerClass is the package price divided evenly across its credits.
func (p CreditPackage) PerClass() decimal.Decimal {
	if p.Credits <= 0 {
		return decimal.Zero
	}
	return p.Price.Div(decimal.NewFromInt(int64(p.Credits))).Round(2)
}

// CreditPackages is the studio's package catalog.
var CreditPackages = []CreditPackage{
	{ID: "5-pack", Credits: 5, Price: decimal.NewFromInt(125), ValidityDays: 90},
	{ID: "10-pack", Credits: 10, Price: decimal.NewFromInt(220), Popular: true, ValidityDays: 120},
	{ID: "20-pack", Credits: 20, Price: decimal.NewFromInt(400), ValidityDays: 180},
}

// FindCreditPackage returns the package with the given id.
func FindCreditPackage(id string) (CreditPackage, bool) {
	for _, p := range CreditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}
