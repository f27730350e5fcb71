package core

import (
	"errors"
	"strings"
)

const (
	OwnerPersonal OwnerType = "personal"
	OwnerCompany  OwnerType = "company"
)

const (
	KindIncome     TransactionKind = "income"
	KindExpense    TransactionKind = "expense"
	KindTransfer   TransactionKind = "transfer"
	KindAdjustment TransactionKind = "adjustment"
)

type (
	OwnerType       string
	TransactionKind string

	// User is one authenticated (or legacy anonymous) account.
	User struct {
		ID        string
		Email     string
		CreatedAt int64 // unix millis
	}

	// MoneySource is an account or wallet. Its balance is never stored;
	// it is always derived from InitialAmount plus the signed sum of its
	// transactions.
	MoneySource struct {
		ID            string
		UserID        string
		Name          string
		OwnerType     OwnerType
		Currency      string
		Color         string
		InitialAmount int64 // smallest currency unit
		CreatedAt     int64
	}

	// Category is an optional tag on income/expense transactions.
	Category struct {
		ID        string
		UserID    string
		Name      string
		Kind      TransactionKind // income or expense only
		CreatedAt int64
	}

	// TransferGroup links the two transaction rows of one transfer.
	TransferGroup struct {
		ID        string
		UserID    string
		CreatedAt int64
	}

	// Transaction is one signed ledger entry. AmountSigned is positive
	// when it increases the source balance and negative when it
	// decreases it, across all four kinds.
	Transaction struct {
		ID                string
		UserID            string
		SourceID          string
		CategoryID        string // empty when untagged
		TransferGroupID   string // set only on transfers
		Kind              TransactionKind
		AmountSigned      int64
		OccurredAt        int64
		Note              string
		IncludeInCashflow bool
		CreatedAt         int64
	}
)

// SourceUpdate carries the metadata fields of a money source that may
// change after creation. Nil means "leave unchanged". Derived balance is
// never part of an update.
type SourceUpdate struct {
	Name          *string
	OwnerType     *OwnerType
	Currency      *string
	Color         *string
	InitialAmount *int64
}

// Empty reports whether the update would change nothing.
func (u SourceUpdate) Empty() bool {
	return u.Name == nil && u.OwnerType == nil && u.Currency == nil &&
		u.Color == nil && u.InitialAmount == nil
}

func (u SourceUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrEmptyName
	}
	if u.OwnerType != nil && !u.OwnerType.Valid() {
		return ErrInvalidOwnerType
	}
	if u.Currency != nil && strings.TrimSpace(*u.Currency) == "" {
		return ErrEmptyCurrency
	}
	if u.InitialAmount != nil && *u.InitialAmount < 0 {
		return ErrNegativeInitial
	}
	return nil
}

var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidOwnerType = errors.New("invalid owner type")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUserID      = errors.New("empty user id")
	ErrEmptySourceID    = errors.New("empty source id")
	ErrEmptyCurrency    = errors.New("empty currency")
	ErrSameSource       = errors.New("transfer endpoints must differ")
	ErrUnknownSource    = errors.New("unknown money source")
	ErrNegativeInitial  = errors.New("initial amount cannot be negative")
)

func (o OwnerType) Valid() bool {
	return o == OwnerPersonal || o == OwnerCompany
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer, KindAdjustment:
		return true
	default:
		return false
	}
}

func (s MoneySource) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !s.OwnerType.Valid() {
		return ErrInvalidOwnerType
	}
	if strings.TrimSpace(s.Currency) == "" {
		return ErrEmptyCurrency
	}
	if s.InitialAmount < 0 {
		return ErrNegativeInitial
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Kind != KindIncome && c.Kind != KindExpense {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(t.SourceID) == "" {
		return ErrEmptySourceID
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Kind == KindTransfer && t.TransferGroupID == "" {
		return errors.New("transfer without transfer group")
	}
	if t.Kind != KindTransfer && t.TransferGroupID != "" {
		return errors.New("transfer group on non-transfer")
	}
	// Adjustments may legitimately carry a zero delta; every other kind
	// must move the balance.
	if t.Kind != KindAdjustment && t.AmountSigned == 0 {
		return ErrInvalidAmount
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}
