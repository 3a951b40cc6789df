package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/logging"
	"github.com/agbado/agbado/internal/notification"
	"github.com/agbado/agbado/internal/wallet"
)

var (
	// ErrUnknownBank indicates the requested bank code is not in the
	// supported directory.
	ErrUnknownBank = errors.New("unknown bank code")

	// ErrNotOwner indicates the caller does not own the wallet the
	// withdrawal targets.
	ErrNotOwner = errors.New("withdrawal does not belong to caller")
)

// Gateway is the payout surface of the payment provider.
type Gateway interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (gateway.ResolvedAccount, error)
	CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error)
	InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (gateway.Transfer, error)
}

// BankValidator checks a bank code against the supported directory.
type BankValidator interface {
	Validate(ctx context.Context, code string) error
}

// Request is a client withdrawal instruction. Amounts are minor units.
type Request struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	BankCode      string `json:"bank_code" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=10,max=10,numeric"`
}

// Service coordinates payouts: it reserves funds in the ledger, drives the
// gateway transfer, and compensates the ledger when a transfer cannot be
// confirmed. The ledger entry is always written before the gateway call, so
// a crash can only ever leave funds reserved, never double-paid.
type Service struct {
	repo          Repository
	ledger        ledger.Store
	wallets       *wallet.Service
	gateway       Gateway
	banks         BankValidator
	notifier      notification.Notifier
	logger        *slog.Logger
	validate      *validator.Validate
	confirmWindow time.Duration
}

// NewService builds the withdrawal coordinator.
func NewService(repo Repository, store ledger.Store, wallets *wallet.Service, gw Gateway, banks BankValidator, notifier notification.Notifier, logger *slog.Logger, confirmWindow time.Duration) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:          repo,
		ledger:        store,
		wallets:       wallets,
		gateway:       gw,
		banks:         banks,
		notifier:      notifier,
		logger:        logger,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		confirmWindow: confirmWindow,
	}
}

// Request accepts a withdrawal for the caller's wallet. On success the
// withdrawal is in processing with funds already deducted; completion comes
// later via the gateway's transfer webhook.
func (s *Service) Request(ctx context.Context, userID string, req Request) (Withdrawal, error) {
	if err := s.validate.Struct(req); err != nil {
		return Withdrawal{}, err
	}
	if s.banks != nil {
		if err := s.banks.Validate(ctx, req.BankCode); err != nil {
			return Withdrawal{}, err
		}
	}

	w, err := s.wallets.GetByOwner(ctx, userID)
	if err != nil {
		return Withdrawal{}, err
	}

	resolved, err := s.gateway.ResolveAccount(ctx, req.AccountNumber, req.BankCode)
	if err != nil {
		return Withdrawal{}, err
	}
	recipientCode, err := s.gateway.CreateRecipient(ctx, resolved.AccountName, req.AccountNumber, req.BankCode)
	if err != nil {
		return Withdrawal{}, err
	}

	wd := Withdrawal{
		ID:            uuid.NewString(),
		WalletID:      w.ID,
		UserID:        userID,
		Amount:        req.Amount,
		Status:        StatusPending,
		Reference:     "wd:" + uuid.NewString(),
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		AccountName:   resolved.AccountName,
		RecipientCode: recipientCode,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, wd); err != nil {
		return Withdrawal{}, err
	}

	// Reserve the funds. Insufficient balance leaves the ledger untouched.
	if _, err := s.ledger.Append(ctx, w.ID, -wd.Amount, ledger.KindWithdrawal, wd.Reference); err != nil {
		reason := ""
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			reason = "insufficient funds"
		}
		_ = s.repo.UpdateStatus(ctx, wd.ID, StatusFailed, reason)
		return Withdrawal{}, err
	}

	if err := s.repo.UpdateStatus(ctx, wd.ID, StatusProcessing, ""); err != nil {
		return Withdrawal{}, err
	}
	wd.Status = StatusProcessing

	transfer, err := s.gateway.InitiateTransfer(ctx, gateway.TransferRequest{
		Amount:    wd.Amount,
		Recipient: recipientCode,
		Reference: wd.Reference,
		Reason:    "wallet withdrawal",
	})
	if err != nil {
		// Timeout or rejection. The gateway never received a confirmable
		// instruction, so put the money back and surface the cause.
		s.logger.Warn("transfer initiation failed",
			slog.String("withdrawal_id", wd.ID),
			slog.String("error", err.Error()))
		if rerr := s.reverse(ctx, wd, err.Error()); rerr != nil {
			return Withdrawal{}, rerr
		}
		return Withdrawal{}, err
	}

	if err := s.repo.UpdateGatewayDetails(ctx, wd.ID, recipientCode, transfer.TransferCode); err != nil {
		return Withdrawal{}, err
	}
	wd.TransferCode = transfer.TransferCode

	s.logger.Info("withdrawal processing",
		slog.String("withdrawal_id", wd.ID),
		slog.String("reference", wd.Reference),
		slog.Int64("amount", wd.Amount))
	return wd, nil
}

// Get fetches a withdrawal, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, id string) (Withdrawal, error) {
	wd, err := s.repo.Get(ctx, id)
	if err != nil {
		return Withdrawal{}, err
	}
	if wd.UserID != userID {
		return Withdrawal{}, ErrNotOwner
	}
	return wd, nil
}

// List returns the caller's withdrawals, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Withdrawal, error) {
	w, err := s.wallets.GetByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByWallet(ctx, w.ID, limit)
}

// HandleTransferEvent applies a gateway transfer webhook. Events for
// withdrawals already in a terminal state are acknowledged without effect.
func (s *Service) HandleTransferEvent(ctx context.Context, event string, data gateway.TransferData) error {
	wd, err := s.repo.GetByReference(ctx, data.Reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("transfer event for unknown reference", slog.String("reference", data.Reference))
			return nil
		}
		return err
	}
	if wd.Terminal() {
		return nil
	}

	switch event {
	case gateway.EventTransferSuccess:
		if err := s.repo.UpdateStatus(ctx, wd.ID, StatusCompleted, ""); err != nil {
			return err
		}
		s.notify(ctx, wd, notification.KindWithdrawalCompleted,
			fmt.Sprintf("Your withdrawal of %d was completed", wd.Amount))
		return nil
	case gateway.EventTransferFailed, gateway.EventTransferReversed:
		reason := data.Reason
		if reason == "" {
			reason = event
		}
		return s.reverse(ctx, wd, reason)
	default:
		return nil
	}
}

// FailStale reverses withdrawals stuck in processing past the confirmation
// window, and retries the compensating entry for failed withdrawals whose
// reversal never landed. Run periodically by the server's maintenance loop.
func (s *Service) FailStale(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.confirmWindow)
	stale, err := s.repo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, wd := range stale {
		s.logger.Warn("failing stale withdrawal",
			slog.String("withdrawal_id", wd.ID),
			slog.Time("updated_at", wd.UpdatedAt))
		if err := s.reverse(ctx, wd, "not confirmed within window"); err != nil {
			return err
		}
	}
	return s.retryStrandedReversals(ctx)
}

// retryStrandedReversals sweeps withdrawals left in failed with funds still
// reserved. That happens when the reversal append crashed between the status
// update and the compensating entry; the ledger claim makes retrying it
// idempotent. Withdrawals that failed before any funds were reserved carry
// no reservation entry and are left alone.
func (s *Service) retryStrandedReversals(ctx context.Context) error {
	failed, err := s.repo.ListFailed(ctx)
	if err != nil {
		return err
	}
	for _, wd := range failed {
		if _, err := s.ledger.FindByReference(ctx, wd.Reference); err != nil {
			if errors.Is(err, ledger.ErrReferenceNotFound) {
				continue // nothing was deducted
			}
			return err
		}
		if _, err := s.ledger.FindByReference(ctx, "rev:"+wd.Reference); err == nil {
			// Compensating entry exists; finish the transition.
			if err := s.repo.UpdateStatus(ctx, wd.ID, StatusReversed, wd.FailureReason); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ledger.ErrReferenceNotFound) {
			return err
		}
		s.logger.Warn("retrying stranded reversal",
			slog.String("withdrawal_id", wd.ID),
			slog.String("reference", wd.Reference))
		if err := s.reverse(ctx, wd, wd.FailureReason); err != nil {
			return err
		}
	}
	return nil
}

// reverse compensates a failed withdrawal: one reversal entry returns the
// reserved funds, then the record lands in reversed. The reversal reference
// is derived from the withdrawal reference so a replayed failure event can
// never credit twice.
func (s *Service) reverse(ctx context.Context, wd Withdrawal, reason string) error {
	if err := s.repo.UpdateStatus(ctx, wd.ID, StatusFailed, reason); err != nil {
		return err
	}
	_, err := s.ledger.Append(ctx, wd.WalletID, wd.Amount, ledger.KindReversal, "rev:"+wd.Reference)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateReference) {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, wd.ID, StatusReversed, reason); err != nil {
		return err
	}
	s.notify(ctx, wd, notification.KindWithdrawalFailed,
		fmt.Sprintf("Your withdrawal of %d failed and the funds were returned: %s", wd.Amount, reason))
	return nil
}

func (s *Service) notify(ctx context.Context, wd Withdrawal, kind, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        kind,
		Destination: wd.UserID,
		Body:        body,
	})
}
