package withdrawal

import "time"

// Status tracks a withdrawal through its lifecycle. Funds leave the wallet
// the moment the withdrawal is accepted; only a failed withdrawal that has
// been compensated in the ledger reaches StatusReversed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusReversed   Status = "reversed"
)

// Withdrawal is a payout request to an external bank account.
type Withdrawal struct {
	ID            string    `json:"id"`
	WalletID      string    `json:"wallet_id"`
	UserID        string    `json:"-"`
	Amount        int64     `json:"amount"`
	Status        Status    `json:"status"`
	Reference     string    `json:"reference"`
	BankCode      string    `json:"bank_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	RecipientCode string    `json:"-"`
	TransferCode  string    `json:"-"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Terminal reports whether the withdrawal can still change state.
func (w Withdrawal) Terminal() bool {
	return w.Status == StatusCompleted || w.Status == StatusReversed
}
