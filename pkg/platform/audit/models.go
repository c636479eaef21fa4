package audit

import (
	"time"

	"github.com/google/uuid"

	id "aurum/pkg/domain"
)

// Event is emitted from domain logic to capture every state change. The
// append-only event log is the system's durable record; keep the shape
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID    `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Action    Action       `json:"action"`
	Actor     id.Address   `json:"actor,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	AccountID id.AccountID `json:"account_id,omitempty"`
	MemberID  id.MemberID  `json:"member_id,omitempty"`
	TokenID   id.TokenID   `json:"token_id,omitempty"`
	OrderRef  id.OrderRef  `json:"order_ref,omitempty"`
	// Delta and Balance are only meaningful for balance events.
	Delta   int64  `json:"delta,omitempty"`
	Balance int64  `json:"balance,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// Reference carries the operation's correlation id (token id for ledger
	// pushes, order ref for settlement legs).
	Reference string `json:"reference,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Action names a kind of audited state change.
type Action string

const (
	ActionAccountCreated    Action = "AccountCreated"
	ActionBalanceUpdated    Action = "BalanceUpdated"
	ActionBalanceUpdaterSet Action = "BalanceUpdaterSet"
	ActionAssetMinted       Action = "AssetMinted"
	ActionAssetBurned       Action = "AssetBurned"
	ActionStatusChanged     Action = "StatusChanged"
	ActionCustodyChanged    Action = "CustodyChanged"
	ActionOwnershipUpdated  Action = "OwnershipUpdated"
	ActionWarrantLinked     Action = "WarrantLinked"
	ActionOrderCreated      Action = "OrderCreated"
	ActionOrderPrepared     Action = "OrderPrepared"
	ActionOrderSigned       Action = "OrderSigned"
	ActionOrderExecuted     Action = "OrderExecuted"
	ActionOrderCancelled    Action = "OrderCancelled"
)
