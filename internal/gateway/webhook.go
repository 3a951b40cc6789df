package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	// SignatureHeader carries the gateway's HMAC over the raw body.
	SignatureHeader = "X-Paystack-Signature"

	EventChargeSuccess    = "charge.success"
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

var (
	// ErrInvalidSignature marks a webhook whose signature does not match the
	// shared secret. Nothing downstream may run for such a payload.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrStaleEvent marks an authentic webhook that is too old to act on.
	ErrStaleEvent = errors.New("stale webhook event")
)

// Event is a verified gateway callback.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChargeData is the payload of a charge.success event.
type ChargeData struct {
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// TransferData is the payload of a transfer.* event.
type TransferData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// Verifier authenticates inbound webhooks before any side-effecting work.
// The gateway signs the raw body with HMAC-SHA512 under the shared secret.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier. A tolerance of zero disables the staleness
// check.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify recomputes the expected signature over the raw payload and, when it
// matches in constant time, parses the event and rejects timestamps outside
// the tolerance window.
func (v *Verifier) Verify(raw []byte, signature string) (Event, error) {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return Event{}, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, ErrInvalidSignature
	}

	if v.tolerance > 0 {
		if ts, ok := eventTime(event.Data); ok {
			age := v.now().Sub(ts)
			if age > v.tolerance || age < -v.tolerance {
				return Event{}, ErrStaleEvent
			}
		}
	}

	return event, nil
}

// eventTime extracts the best-effort event timestamp from the data payload.
func eventTime(data json.RawMessage) (time.Time, bool) {
	var stamps struct {
		PaidAt    time.Time `json:"paid_at"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &stamps); err != nil {
		return time.Time{}, false
	}
	if !stamps.PaidAt.IsZero() {
		return stamps.PaidAt, true
	}
	if !stamps.CreatedAt.IsZero() {
		return stamps.CreatedAt, true
	}
	return time.Time{}, false
}

// Sign computes the signature the gateway would attach to a payload. Exposed
// for tests and local tooling.
func Sign(secret string, raw []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}
