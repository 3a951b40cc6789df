package gateway

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestVerifierAcceptsSignedPayload(t *testing.T) {
	const secret = "sk_test_secret"
	payload := []byte(`{"event":"charge.success","data":{"reference":"tx1","amount":5000}}`)

	v := NewVerifier(secret, 0)
	event, err := v.Verify(payload, Sign(secret, payload))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Event != EventChargeSuccess {
		t.Fatalf("unexpected event: %s", event.Event)
	}
}

func TestVerifierRejectsTamperedPayload(t *testing.T) {
	const secret = "sk_test_secret"
	payload := []byte(`{"event":"charge.success","data":{"reference":"tx1","amount":5000}}`)
	sig := Sign(secret, payload)

	tampered := []byte(`{"event":"charge.success","data":{"reference":"tx1","amount":900000}}`)
	if _, err := NewVerifier(secret, 0).Verify(tampered, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{}}`)
	sig := Sign("other_secret", payload)
	if _, err := NewVerifier("sk_test_secret", 0).Verify(payload, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifierRejectsStaleEvent(t *testing.T) {
	const secret = "sk_test_secret"
	old := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	payload := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":"tx1","paid_at":%q}}`, old))

	v := NewVerifier(secret, 5*time.Minute)
	if _, err := v.Verify(payload, Sign(secret, payload)); !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected stale event, got %v", err)
	}
}

func TestVerifierAcceptsRecentEvent(t *testing.T) {
	const secret = "sk_test_secret"
	recent := time.Now().UTC().Format(time.RFC3339)
	payload := []byte(fmt.Sprintf(`{"event":"transfer.success","data":{"reference":"wd:1","created_at":%q}}`, recent))

	v := NewVerifier(secret, 5*time.Minute)
	event, err := v.Verify(payload, Sign(secret, payload))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Event != EventTransferSuccess {
		t.Fatalf("unexpected event: %s", event.Event)
	}
}
