package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrGatewayTimeout indicates the gateway did not answer within the
	// configured deadline. Callers treat it as failure, not success.
	ErrGatewayTimeout = errors.New("gateway timeout")

	// ErrGatewayRejected indicates the gateway answered and declined.
	ErrGatewayRejected = errors.New("gateway rejected")
)

// Client talks to a Paystack-compatible payment gateway over REST. Every
// call carries a bounded timeout; no caller holds a wallet lock while a
// request is in flight.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient builds a gateway client with the given per-call timeout.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// ResolvedAccount is the gateway's answer to an account lookup.
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// TransferRequest describes an outbound payout instruction.
type TransferRequest struct {
	Amount    int64
	Recipient string
	Reference string
	Reason    string
}

// Transfer is the gateway's record of an initiated payout.
type Transfer struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

// ChargeVerification is the gateway's record of an inbound payment.
type ChargeVerification struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Bank is one entry of the gateway's supported-banks directory.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ResolveAccount validates an account number against a bank code and returns
// the registered account name.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (ResolvedAccount, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var resolved ResolvedAccount
	if err := c.call(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &resolved); err != nil {
		return ResolvedAccount{}, err
	}
	return resolved, nil
}

// CreateRecipient registers a payout destination and returns its code.
func (c *Client) CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error) {
	payload := map[string]string{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}
	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.call(ctx, http.MethodPost, "/transferrecipient", payload, &data); err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

// InitiateTransfer asks the gateway to pay out to a recipient. Confirmation
// arrives later on a webhook; the returned status is only the initial one.
func (c *Client) InitiateTransfer(ctx context.Context, req TransferRequest) (Transfer, error) {
	payload := map[string]any{
		"source":    "balance",
		"amount":    req.Amount,
		"recipient": req.Recipient,
		"reference": req.Reference,
		"reason":    req.Reason,
	}
	var transfer Transfer
	if err := c.call(ctx, http.MethodPost, "/transfer", payload, &transfer); err != nil {
		return Transfer{}, err
	}
	return transfer, nil
}

// VerifyTransaction confirms an inbound charge reference with the gateway.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (ChargeVerification, error) {
	var charge ChargeVerification
	if err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &charge); err != nil {
		return ChargeVerification{}, err
	}
	return charge, nil
}

// ListBanks fetches the supported-banks directory.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.call(ctx, http.MethodGet, "/bank", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, ErrGatewayTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Status {
		return fmt.Errorf("%w: %s", ErrGatewayRejected, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode gateway data: %w", err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
