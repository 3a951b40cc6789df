package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/identity"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/notification"
	"github.com/agbado/agbado/internal/wallet"
)

var (
	// ErrUnknownCustomer indicates a gateway charge could not be mapped to
	// a wallet owner.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrChargeNotSuccessful indicates the gateway does not consider the
	// referenced charge paid.
	ErrChargeNotSuccessful = errors.New("charge not successful")

	// ErrNotChargeOwner indicates the charge was paid by a different
	// customer than the caller.
	ErrNotChargeOwner = errors.New("charge belongs to a different customer")
)

// ChargeVerifier confirms an inbound payment reference with the gateway.
type ChargeVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (gateway.ChargeVerification, error)
}

// Service credits wallets for confirmed gateway charges. Deduplication rides
// on the ledger's external-reference claim: the first append wins, every
// replay gets the prior entry back.
type Service struct {
	ledger   ledger.Store
	wallets  *wallet.Service
	users    *identity.Service
	verifier ChargeVerifier
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the deposit coordinator.
func NewService(store ledger.Store, wallets *wallet.Service, users *identity.Service, verifier ChargeVerifier, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{ledger: store, wallets: wallets, users: users, verifier: verifier, notifier: notifier, logger: logger}
}

// CreditResult reports the outcome of a deposit credit.
type CreditResult struct {
	Entry     ledger.Entry
	Duplicate bool
}

// Credit appends a deposit entry for the wallet. Replayed references return
// the previously produced entry without moving the balance.
func (s *Service) Credit(ctx context.Context, walletID string, amount int64, reference string) (CreditResult, error) {
	if amount <= 0 {
		return CreditResult{}, fmt.Errorf("deposit amount must be positive")
	}
	if reference == "" {
		return CreditResult{}, fmt.Errorf("deposit reference is required")
	}

	entry, err := s.ledger.Append(ctx, walletID, amount, ledger.KindDeposit, reference)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateReference) {
			prior, findErr := s.ledger.FindByReference(ctx, reference)
			if findErr != nil {
				return CreditResult{}, findErr
			}
			return CreditResult{Entry: prior, Duplicate: true}, nil
		}
		return CreditResult{}, err
	}

	if s.notifier != nil {
		w, werr := s.wallets.Get(ctx, walletID)
		if werr == nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindDepositReceived,
				Destination: w.OwnerID,
				Body:        fmt.Sprintf("Your wallet was credited with %d", amount),
			})
		}
	}

	return CreditResult{Entry: entry}, nil
}

// CreditByEmail maps a gateway customer email to a wallet owner and credits
// that wallet. Used by the charge.success webhook path.
func (s *Service) CreditByEmail(ctx context.Context, email string, amount int64, reference string) (CreditResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return CreditResult{}, fmt.Errorf("%w: %s", ErrUnknownCustomer, email)
		}
		return CreditResult{}, err
	}
	w, err := s.wallets.GetByOwner(ctx, user.ID)
	if err != nil {
		// Only a genuinely missing wallet maps to the unknown-customer
		// ack; anything else must bubble up so the gateway retries.
		if errors.Is(err, wallet.ErrNotFound) {
			return CreditResult{}, fmt.Errorf("%w: %s", ErrUnknownCustomer, email)
		}
		return CreditResult{}, err
	}
	return s.Credit(ctx, w.ID, amount, reference)
}

// VerifyDeposit confirms a reference with the gateway and credits the
// caller's wallet. Used when the client finished a checkout and the webhook
// has not landed yet; the reference claim keeps the two paths from double
// crediting.
func (s *Service) VerifyDeposit(ctx context.Context, userID, reference string) (CreditResult, error) {
	charge, err := s.verifier.VerifyTransaction(ctx, reference)
	if err != nil {
		return CreditResult{}, err
	}
	if charge.Status != "success" {
		return CreditResult{}, fmt.Errorf("%w: status %s", ErrChargeNotSuccessful, charge.Status)
	}

	// The gateway names the customer who paid; only that customer may
	// claim the credit. Without this check anyone holding a leaked
	// reference could pull the funds into their own wallet.
	caller, err := s.users.Get(ctx, userID)
	if err != nil {
		return CreditResult{}, err
	}
	if !strings.EqualFold(caller.Email, charge.Customer.Email) {
		return CreditResult{}, fmt.Errorf("%w: %s", ErrNotChargeOwner, reference)
	}

	w, err := s.wallets.GetByOwner(ctx, userID)
	if err != nil {
		return CreditResult{}, err
	}
	result, err := s.Credit(ctx, w.ID, charge.Amount, charge.Reference)
	if err != nil {
		return CreditResult{}, err
	}
	if result.Duplicate && s.logger != nil {
		s.logger.Debug("deposit already applied", slog.String("reference", reference))
	}
	return result, nil
}
