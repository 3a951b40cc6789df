package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/agbado/agbado/internal/funding"
	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/identity"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/wallet"
)

const testSecret = "whsec_test"

type recordingApplier struct {
	events []string
	refs   []string
	err    error
}

func (r *recordingApplier) HandleTransferEvent(ctx context.Context, event string, data gateway.TransferData) error {
	r.events = append(r.events, event)
	r.refs = append(r.refs, data.Reference)
	return r.err
}

type webhookFixture struct {
	app     *fiber.App
	store   ledger.Store
	wallet  wallet.Wallet
	applier *recordingApplier
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewInMemory()
	users := identity.NewService(identity.NewMemoryRepository())
	wallets := wallet.NewService(wallet.NewMemoryRepository(), store)

	user, err := users.Register(ctx, identity.Credentials{Email: "ada@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	w, err := wallets.Create(ctx, user.ID, "NGN")
	require.NoError(t, err)

	deposits := funding.NewService(store, wallets, users, nil, nil, nil)
	applier := &recordingApplier{}
	handler := NewHandler(gateway.NewVerifier(testSecret, 0), deposits, applier, nil)

	app := fiber.New()
	app.Post("/webhooks/paystack", handler.Receive)
	return &webhookFixture{app: app, store: store, wallet: w, applier: applier}
}

func (f *webhookFixture) post(t *testing.T, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(gateway.SignatureHeader, signature)
	}
	resp, err := f.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp
}

func chargePayload(reference string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":%d,"currency":"NGN","customer":{"email":"ada@example.com"}}}`, reference, amount))
}

func TestChargeWebhookCreditsWallet(t *testing.T) {
	f := newWebhookFixture(t)
	body := chargePayload("dep_100", 5000)

	resp := f.post(t, body, gateway.Sign(testSecret, body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bal, err := f.store.Balance(context.Background(), f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), bal)
}

func TestChargeWebhookReplaySingleEntry(t *testing.T) {
	f := newWebhookFixture(t)
	body := chargePayload("dep_100", 5000)
	sig := gateway.Sign(testSecret, body)

	require.Equal(t, http.StatusOK, f.post(t, body, sig).StatusCode)
	require.Equal(t, http.StatusOK, f.post(t, body, sig).StatusCode)

	bal, err := f.store.Balance(context.Background(), f.wallet.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), bal)

	entries, err := f.store.Entries(context.Background(), f.wallet.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestBadSignatureRejectedBeforeEffects(t *testing.T) {
	f := newWebhookFixture(t)
	body := chargePayload("dep_100", 5000)

	resp := f.post(t, body, "deadbeef")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.post(t, body, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bal, err := f.store.Balance(context.Background(), f.wallet.ID)
	require.NoError(t, err)
	require.Zero(t, bal)
}

func TestTransferEventRoutedToWithdrawals(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"event":"transfer.failed","data":{"reference":"wd:abc","status":"failed","reason":"account blocked"}}`)

	resp := f.post(t, body, gateway.Sign(testSecret, body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{gateway.EventTransferFailed}, f.applier.events)
	require.Equal(t, []string{"wd:abc"}, f.applier.refs)
}

func TestUnknownEventAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"event":"subscription.create","data":{}}`)

	resp := f.post(t, body, gateway.Sign(testSecret, body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, f.applier.events)
}

func TestUnknownCustomerAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"event":"charge.success","data":{"reference":"dep_x","amount":100,"customer":{"email":"ghost@example.com"}}}`)

	resp := f.post(t, body, gateway.Sign(testSecret, body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
