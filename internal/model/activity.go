package model

import (
	"encoding/json"
)

// ActivityKind names the user action behind a transaction.
type ActivityKind string

const (
	ActivityApprove ActivityKind = "approve"
	ActivitySwap    ActivityKind = "swap"
	ActivityMint    ActivityKind = "mint"
	ActivityDrip    ActivityKind = "drip"
)

// ActivityStatus tracks a submitted transaction through confirmation.
type ActivityStatus string

const (
	StatusPending   ActivityStatus = "pending"
	StatusConfirmed ActivityStatus = "confirmed"
	StatusFailed    ActivityStatus = "failed"
)

// ActivityRecord is the journal entry for a submitted transaction.
type ActivityRecord struct {
	ChainID     uint64         `json:"chain_id"`
	TxHash      string         `json:"tx_hash"`
	Kind        ActivityKind   `json:"kind"`
	Label       string         `json:"label"`
	To          string         `json:"to"`
	Status      ActivityStatus `json:"status"`
	BlockNumber uint64         `json:"block_number,omitempty"`
	GasUsed     uint64         `json:"gas_used,omitempty"`
	ExplorerURL string         `json:"explorer_url,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// Done reports whether the transaction reached a final status.
func (r ActivityRecord) Done() bool {
	return r.Status == StatusConfirmed || r.Status == StatusFailed
}

// MarshalJSON ensures ActivityRecord is encoded with stable field names.
func (r ActivityRecord) MarshalJSON() ([]byte, error) {
	type Alias ActivityRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an ActivityRecord from JSON.
func (r *ActivityRecord) UnmarshalJSON(data []byte) error {
	type Alias ActivityRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = ActivityRecord(a)
	return nil
}
