package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefType names the business event behind a ledger entry.
type RefType string

const (
	RefTypeEnvelopeSend   RefType = "ENVELOPE_SEND"
	RefTypeEnvelopeGrab   RefType = "ENVELOPE_GRAB"
	RefTypeEnvelopeRefund RefType = "ENVELOPE_REFUND"
	RefTypeAdjustment     RefType = "ADJUSTMENT"
)

// LedgerEntry is an immutable signed delta recording one balance-affecting event.
type LedgerEntry struct {
	ID     string
	UserID int64
	Asset  string
	// Delta is negative for debits.
	Delta decimal.Decimal
	// BalanceAfter is the snapshot value right after this entry was applied.
	BalanceAfter decimal.Decimal
	RefType      RefType
	RefID        string
	Note         string
	CreatedAt    time.Time
}

// IsDebit reports whether the entry decreased the balance.
func (e *LedgerEntry) IsDebit() bool {
	return e.Delta.IsNegative()
}

// Balance is the denormalized per-user-per-asset snapshot of the ledger.
type Balance struct {
	UserID    int64
	Asset     string
	Amount    decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

// Posting describes a single debit or credit request. Amount is always positive;
// the direction comes from the operation applied.
type Posting struct {
	UserID  int64
	Asset   string
	Amount  decimal.Decimal
	RefType RefType
	RefID   string
	Note    string
}

// Validate checks the posting amount and asset.
func (p Posting) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	asset, err := LookupAsset(p.Asset)
	if err != nil {
		return err
	}
	if !asset.IsRepresentable(p.Amount) {
		return invalidf("amount %s has more than %d decimals for %s", p.Amount, asset.Scale, asset.Code)
	}
	return nil
}

// RefundTicket authorizes crediting an amount back exactly once.
type RefundTicket struct {
	Token      string
	UserID     int64
	Asset      string
	Amount     decimal.Decimal
	RefType    RefType
	RefID      string
	Refunded   bool
	CreatedAt  time.Time
	RefundedAt *time.Time
}

// RefundTokenForEnvelope is the ticket token used when an envelope is cancelled.
func RefundTokenForEnvelope(envelopeID string) string {
	return "refund:envelope:" + envelopeID
}

// Posting converts the ticket into the credit it authorizes.
func (t *RefundTicket) Posting() Posting {
	return Posting{
		UserID:  t.UserID,
		Asset:   t.Asset,
		Amount:  t.Amount,
		RefType: t.RefType,
		RefID:   t.RefID,
		Note:    "refund " + t.Token,
	}
}

// BalanceDrift reports a snapshot that disagrees with the sum of its ledger entries.
type BalanceDrift struct {
	UserID     int64
	Asset      string
	Recorded   decimal.Decimal
	Calculated decimal.Decimal
}

// Difference is Recorded minus Calculated.
func (d BalanceDrift) Difference() decimal.Decimal {
	return d.Recorded.Sub(d.Calculated)
}
