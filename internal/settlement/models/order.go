package models

import (
	"time"

	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
)

// Status is the settlement lifecycle state of an order. Each transition is
// one-way; no state permits re-entry.
type Status string

const (
	StatusPendingCounterparty Status = "PENDING_COUNTERPARTY"
	StatusPendingExecution    Status = "PENDING_EXECUTION"
	StatusExecuted            Status = "EXECUTED"
	StatusCancelled           Status = "CANCELLED"
)

func (s Status) String() string { return string(s) }

// Order is a pre-agreed bilateral settlement instruction, not an order-book
// match. Consumed exactly once by execution, then immutable.
//
// The quantity settled on the ledger is always len(TokenIDs); the order
// never stores a balance or a token attribute of its own.
type Order struct {
	TxRef          id.OrderRef  `json:"tx_ref"`
	ExternalRef    string       `json:"external_ref"`
	Type           string       `json:"type"`
	InitiatorID    id.MemberID  `json:"initiator_id"`
	CounterpartyID id.MemberID  `json:"counterparty_id"`
	// Counterparty is the receiving address tokens are reassigned to.
	Counterparty    id.Address   `json:"counterparty"`
	SourceAccountID id.AccountID `json:"source_account_id"`
	DestAccountID   id.AccountID `json:"dest_account_id"`
	TokenIDs        []id.TokenID `json:"token_ids"`
	RequestedAssets []string     `json:"requested_assets,omitempty"`
	SettlementDate  string       `json:"settlement_date"`
	Currency        string       `json:"currency"`
	Price           int64        `json:"price"`
	Fee             int64        `json:"fee"`
	Metadata        string       `json:"metadata,omitempty"`
	Status          Status       `json:"status"`
	Signature       []byte       `json:"signature,omitempty"`
	SignedBy        string       `json:"signed_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Quantity is the ledger delta magnitude: the number of tokens settled.
func (o *Order) Quantity() int64 {
	return int64(len(o.TokenIDs))
}

// CanSign checks the order accepts a counterparty signature.
func (o *Order) CanSign() error {
	if o.Status != StatusPendingCounterparty {
		return dErrors.Newf(dErrors.CodeInvalidState, "order is %s, expected %s", o.Status, StatusPendingCounterparty)
	}
	return nil
}

// ApplySignature records the signature and advances to PENDING_EXECUTION.
// One counterparty signature suffices; there is no multi-of-N threshold.
func (o *Order) ApplySignature(signature []byte, party string, now time.Time) {
	o.Signature = signature
	o.SignedBy = party
	o.Status = StatusPendingExecution
	o.UpdatedAt = now
}

// CanExecute checks the order is ready to execute. A second execution finds
// the order already EXECUTED and fails here, which is what makes execution
// replay-safe.
func (o *Order) CanExecute() error {
	if o.Status != StatusPendingExecution {
		return dErrors.Newf(dErrors.CodeInvalidState, "order is %s, expected %s", o.Status, StatusPendingExecution)
	}
	return nil
}

// ApplyExecution marks the order consumed.
func (o *Order) ApplyExecution(now time.Time) {
	o.Status = StatusExecuted
	o.UpdatedAt = now
}

// CanCancel checks the order is still in a pending state. Cancellation is
// the administrative resolution path for stuck orders; an executed order is
// immutable.
func (o *Order) CanCancel() error {
	switch o.Status {
	case StatusPendingCounterparty, StatusPendingExecution:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeInvalidState, "order is %s and cannot be cancelled", o.Status)
	}
}

// ApplyCancellation terminates the order without settling.
func (o *Order) ApplyCancellation(now time.Time) {
	o.Status = StatusCancelled
	o.UpdatedAt = now
}

// PrepareParams carries the prepare operation's inputs.
type PrepareParams struct {
	ExternalRef     string
	TxRef           id.OrderRef
	Type            string
	InitiatorID     id.MemberID
	CounterpartyID  id.MemberID
	Counterparty    id.Address
	SourceAccountID id.AccountID
	DestAccountID   id.AccountID
	TokenIDs        []id.TokenID
	RequestedAssets []string
	SettlementDate  string
	Currency        string
	Price           int64
	Fee             int64
	Metadata        string
}

func NewOrder(p PrepareParams, now time.Time) (*Order, error) {
	if p.TxRef.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tx ref is required")
	}
	if p.InitiatorID.IsNil() || p.CounterpartyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "initiator and counterparty are required")
	}
	if p.SourceAccountID.IsNil() || p.DestAccountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "source and destination accounts are required")
	}
	if len(p.TokenIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "order must settle at least one token")
	}
	if p.Counterparty.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "counterparty address is required")
	}
	return &Order{
		TxRef:           p.TxRef,
		ExternalRef:     p.ExternalRef,
		Type:            p.Type,
		InitiatorID:     p.InitiatorID,
		CounterpartyID:  p.CounterpartyID,
		Counterparty:    p.Counterparty,
		SourceAccountID: p.SourceAccountID,
		DestAccountID:   p.DestAccountID,
		TokenIDs:        append([]id.TokenID(nil), p.TokenIDs...),
		RequestedAssets: append([]string(nil), p.RequestedAssets...),
		SettlementDate:  p.SettlementDate,
		Currency:        p.Currency,
		Price:           p.Price,
		Fee:             p.Fee,
		Metadata:        p.Metadata,
		Status:          StatusPendingCounterparty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
