package wallet

import "time"

// Wallet represents a stored value account. The cached balance and version
// counter live on the same row and move only through the ledger store.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	CreatedAt time.Time
}

// Balance is the projector's answer for a wallet: the cached value the API
// serves.
type Balance struct {
	WalletID string    `json:"wallet_id"`
	Amount   int64     `json:"balance"`
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"as_of"`
}
