// Package ledger computes running balances and monthly statements for account
// postings.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidPosting indicates a posting that breaks the one-side rule or has
// an unknown type.
var ErrInvalidPosting = errors.New("invalid posting")

var validate = validator.New()

// PostingType is the semantic kind of a ledger entry.
type PostingType string

const (
	TypeOpeningBalance     PostingType = "opening_balance"
	TypePayment            PostingType = "payment"
	TypeCharge             PostingType = "charge"
	TypeCredit             PostingType = "credit"
	TypeDebit              PostingType = "debit"
	TypeRefund             PostingType = "refund"
	TypeChargeCancellation PostingType = "charge_cancellation"
	TypePromotion          PostingType = "promotion"
	TypeFee                PostingType = "fee"
)

// Side is the column a posting type books into.
type Side int

const (
	SideCredit Side = iota + 1
	SideDebit
)

var postingTypes = map[PostingType]struct {
	side  Side
	label string
}{
	TypeOpeningBalance:     {SideCredit, "Opening balance"},
	TypePayment:            {SideCredit, "Payment"},
	TypeCharge:             {SideDebit, "Charge"},
	TypeCredit:             {SideCredit, "Credit"},
	TypeDebit:              {SideDebit, "Debit"},
	TypeRefund:             {SideDebit, "Refund"},
	TypeChargeCancellation: {SideCredit, "Charge cancellation"},
	TypePromotion:          {SideCredit, "Promotion"},
	TypeFee:                {SideDebit, "Fee"},
}

// Side returns the column the type books into.
func (t PostingType) Side() (Side, bool) {
	info, ok := postingTypes[t]
	return info.side, ok
}

// Label returns a display label.
func (t PostingType) Label() string {
	if info, ok := postingTypes[t]; ok {
		return info.label
	}
	return string(t)
}

// Posting is a single dated ledger entry. Exactly one of Debit and Credit is
// non-zero. RunningBalance is derived by Accumulate.
type Posting struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      string          `json:"accountId" validate:"required"`
	Type           PostingType     `json:"type" validate:"required"`
	Date           time.Time       `json:"date" validate:"required"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// NewPosting books a positive amount on the side its type dictates.
func NewPosting(accountID string, typ PostingType, date time.Time, amount decimal.Decimal, description string) (Posting, error) {
	side, ok := typ.Side()
	if !ok {
		return Posting{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPosting, typ)
	}
	if !amount.IsPositive() {
		return Posting{}, fmt.Errorf("%w: amount %s must be positive", ErrInvalidPosting, amount)
	}
	p := Posting{
		ID:          uuid.New(),
		AccountID:   accountID,
		Type:        typ,
		Date:        date,
		Description: description,
	}
	if side == SideCredit {
		p.Credit = amount
	} else {
		p.Debit = amount
	}
	return p, p.Validate()
}

// Validate checks the posting shape.
func (p Posting) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosting, err)
	}
	side, ok := p.Type.Side()
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPosting, p.Type)
	}
	if p.Debit.IsNegative() || p.Credit.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidPosting)
	}
	if p.Debit.IsZero() == p.Credit.IsZero() {
		return fmt.Errorf("%w: exactly one of debit and credit must be non-zero", ErrInvalidPosting)
	}
	if (side == SideCredit) != p.Credit.IsPositive() {
		return fmt.Errorf("%w: %s books on the other side", ErrInvalidPosting, p.Type)
	}
	return nil
}

// Net is the posting's effect on the balance.
func (p Posting) Net() decimal.Decimal {
	return p.Credit.Sub(p.Debit)
}

// Attr exposes posting attributes to the table pipeline.
func (p Posting) Attr(field string) (any, bool) {
	switch field {
	case "id":
		return p.ID.String(), true
	case "type":
		return string(p.Type), true
	case "typeLabel":
		return p.Type.Label(), true
	case "date":
		return p.Date, true
	case "description":
		return p.Description, true
	case "debit":
		return p.Debit, true
	case "credit":
		return p.Credit, true
	case "runningBalance":
		return p.RunningBalance, true
	}
	return nil, false
}
