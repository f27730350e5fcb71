package core

import (
	"errors"
	"testing"
)

func TestMoneySourceValidate(t *testing.T) {
	good := MoneySource{
		UserID:        "u1",
		Name:          "Checking",
		OwnerType:     OwnerPersonal,
		Currency:      "EUR",
		InitialAmount: 1000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []MoneySource{
		{UserID: "", Name: "a", OwnerType: OwnerPersonal, Currency: "EUR"},
		{UserID: "u1", Name: "", OwnerType: OwnerPersonal, Currency: "EUR"},
		{UserID: "u1", Name: "a", OwnerType: "bank", Currency: "EUR"},
		{UserID: "u1", Name: "a", OwnerType: OwnerCompany, Currency: ""},
		{UserID: "u1", Name: "a", OwnerType: OwnerCompany, Currency: "EUR", InitialAmount: -1},
	}
	for i, s := range bads {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSourceUpdateValidate(t *testing.T) {
	name := "Savings"
	currency := "USD"
	owner := OwnerCompany
	amount := int64(500)
	good := SourceUpdate{Name: &name, OwnerType: &owner, Currency: &currency, InitialAmount: &amount}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (SourceUpdate{}).Validate(); err != nil {
		t.Fatalf("empty update: expected ok, got %v", err)
	}

	empty := ""
	badOwner := OwnerType("bank")
	negative := int64(-1)
	bads := []struct {
		name string
		upd  SourceUpdate
		want error
	}{
		{"blank name", SourceUpdate{Name: &empty}, ErrEmptyName},
		{"bad owner type", SourceUpdate{OwnerType: &badOwner}, ErrInvalidOwnerType},
		{"blank currency", SourceUpdate{Currency: &empty}, ErrEmptyCurrency},
		{"negative initial", SourceUpdate{InitialAmount: &negative}, ErrNegativeInitial},
	}
	for _, tc := range bads {
		if err := tc.upd.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{UserID: "u1", Name: "Food", Kind: KindExpense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Category{
		{UserID: "", Name: "Food", Kind: KindExpense},
		{UserID: "u1", Name: "", Kind: KindIncome},
		{UserID: "u1", Name: "Food", Kind: KindTransfer},   // not taggable
		{UserID: "u1", Name: "Food", Kind: KindAdjustment}, // not taggable
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name string
		tx   Transaction
		ok   bool
	}{
		{"income", Transaction{UserID: "u", SourceID: "s", Kind: KindIncome, AmountSigned: 500}, true},
		{"expense", Transaction{UserID: "u", SourceID: "s", Kind: KindExpense, AmountSigned: -500}, true},
		{"transfer leg", Transaction{UserID: "u", SourceID: "s", Kind: KindTransfer, TransferGroupID: "g", AmountSigned: -100}, true},
		{"zero adjustment", Transaction{UserID: "u", SourceID: "s", Kind: KindAdjustment}, true},
		{"no user", Transaction{SourceID: "s", Kind: KindIncome, AmountSigned: 1}, false},
		{"no source", Transaction{UserID: "u", Kind: KindIncome, AmountSigned: 1}, false},
		{"bad kind", Transaction{UserID: "u", SourceID: "s", Kind: "loan", AmountSigned: 1}, false},
		{"zero income", Transaction{UserID: "u", SourceID: "s", Kind: KindIncome}, false},
		{"transfer without group", Transaction{UserID: "u", SourceID: "s", Kind: KindTransfer, AmountSigned: 1}, false},
		{"group on income", Transaction{UserID: "u", SourceID: "s", Kind: KindIncome, TransferGroupID: "g", AmountSigned: 1}, false},
	}
	for _, tc := range cases {
		err := tc.tx.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
