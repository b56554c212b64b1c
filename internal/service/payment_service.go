package service

import (
	"context"
	"errors"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/metrics"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/Eursukkul/booking-microservice/guesthouse/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type PayInput struct {
	CardNumber    string
	CVC           string
	Amount        decimal.Decimal
	ReservationID uint
}

// Statement is a card's balance next to the ledger that should explain it.
type Statement struct {
	Card       models.Card
	Entries    []models.LedgerEntry
	LedgerSum  decimal.Decimal
	Consistent bool
}

type PaymentService interface {
	Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.LedgerEntry, decimal.Decimal, error)
	Pay(ctx context.Context, in PayInput) (*models.LedgerEntry, error)
	ListTransactions(ctx context.Context) ([]models.LedgerEntry, error)
	GetTransaction(ctx context.Context, id uint) (*models.LedgerEntry, error)
	CardStatement(ctx context.Context, cardID uint) (*Statement, error)
}

type paymentService struct {
	txr          repository.Transactor
	cards        repository.CardRepository
	ledger       repository.LedgerRepository
	reservations repository.ReservationRepository
	clock        Clock
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewPaymentService(
	txr repository.Transactor,
	cards repository.CardRepository,
	ledger repository.LedgerRepository,
	reservations repository.ReservationRepository,
	opts Options,
) PaymentService {
	opts = opts.withDefaults()
	return &paymentService{
		txr:          txr,
		cards:        cards,
		ledger:       ledger,
		reservations: reservations,
		clock:        opts.Clock,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Deposit credits the card and appends the matching ledger entry in one
// transaction. It returns the entry and the card's new balance.
func (s *paymentService) Deposit(ctx context.Context, cardNumber string, amount decimal.Decimal) (*models.LedgerEntry, decimal.Decimal, error) {
	cardNumber = normalizeCardNumber(cardNumber)
	if cardNumber == "" {
		return nil, decimal.Zero, invalid("card_number", "is required")
	}
	if err := validateAmount("amount", amount); err != nil {
		s.metrics.Deposit("invalid")
		return nil, decimal.Zero, err
	}

	var (
		entry   *models.LedgerEntry
		balance decimal.Decimal
	)
	err := s.txr.Transaction(ctx, func(tx *gorm.DB) error {
		card, err := s.cards.FindByNumberForUpdate(ctx, tx, cardNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}
		if !card.IsActive {
			return ErrCardInactive
		}

		balance = card.Balance.Add(amount)
		if err := s.cards.UpdateBalance(ctx, tx, card.ID, balance); err != nil {
			return err
		}
		entry = &models.LedgerEntry{
			CardID:    card.ID,
			Amount:    amount,
			Type:      models.EntryDeposit,
			CreatedAt: s.clock.Now(),
		}
		return s.ledger.Create(ctx, tx, entry)
	})
	if err != nil {
		s.metrics.Deposit(outcome(err))
		return nil, decimal.Zero, err
	}

	s.metrics.Deposit("deposited")
	s.log.Info("deposit_applied",
		zap.Uint("transaction_id", entry.ID),
		zap.Uint("card_id", entry.CardID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return entry, balance, nil
}

// Pay settles a pending reservation from a card. Preconditions are checked in
// a fixed order and the first failure is returned:
//
//	card exists, CVC matches, card active   ErrInvalidCard
//	reservation exists                      ErrReservationNotFound
//	reservation pending                     ErrNotPending
//	amount equals total cost                *AmountMismatchError
//	balance covers amount                   ErrInsufficientFunds
//
// The card row is locked before the reservation row.
func (s *paymentService) Pay(ctx context.Context, in PayInput) (*models.LedgerEntry, error) {
	in.CardNumber = normalizeCardNumber(in.CardNumber)
	if in.CardNumber == "" {
		return nil, invalid("card_number", "is required")
	}
	if in.CVC == "" {
		return nil, invalid("cvc", "is required")
	}
	if in.ReservationID == 0 {
		return nil, invalid("reservation_id", "is required")
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		s.metrics.Payment("invalid")
		return nil, err
	}

	var entry *models.LedgerEntry
	err := s.txr.Transaction(ctx, func(tx *gorm.DB) error {
		card, err := s.cards.FindByNumberForUpdate(ctx, tx, in.CardNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCard
			}
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(card.CVCHash), []byte(in.CVC)) != nil {
			return ErrInvalidCard
		}
		if !card.IsActive {
			return ErrInvalidCard
		}

		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, in.ReservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if reservation.Status != models.StatusPending {
			return ErrNotPending
		}
		if !in.Amount.Equal(reservation.TotalCost) {
			return &AmountMismatchError{Expected: reservation.TotalCost, Provided: in.Amount}
		}
		if card.Balance.LessThan(in.Amount) {
			return ErrInsufficientFunds
		}

		if err := s.cards.UpdateBalance(ctx, tx, card.ID, card.Balance.Sub(in.Amount)); err != nil {
			return err
		}
		entry = &models.LedgerEntry{
			CardID:        card.ID,
			Amount:        in.Amount.Neg(),
			Type:          models.EntryPayment,
			ReservationID: &reservation.ID,
			CreatedAt:     s.clock.Now(),
		}
		if err := s.ledger.Create(ctx, tx, entry); err != nil {
			return err
		}
		ok, err := s.reservations.TransitionStatus(ctx, tx, reservation.ID, models.StatusPending, models.StatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPending
		}
		return nil
	})
	if err != nil {
		s.metrics.Payment(outcome(err))
		s.log.Info("payment_rejected",
			zap.Uint("reservation_id", in.ReservationID),
			zap.String("card_last_4", models.LastFour(in.CardNumber)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.Payment("paid")
	s.log.Info("payment_applied",
		zap.Uint("transaction_id", entry.ID),
		zap.Uint("reservation_id", in.ReservationID),
		zap.String("card_last_4", models.LastFour(in.CardNumber)),
		zap.String("amount", in.Amount.StringFixed(2)),
	)
	return entry, nil
}

func (s *paymentService) ListTransactions(ctx context.Context) ([]models.LedgerEntry, error) {
	return s.ledger.FindAll(ctx)
}

func (s *paymentService) GetTransaction(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	entry, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *paymentService) CardStatement(ctx context.Context, cardID uint) (*Statement, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	entries, err := s.ledger.FindByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledger.SumByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Card:       *card,
		Entries:    entries,
		LedgerSum:  sum,
		Consistent: card.Balance.Equal(sum),
	}, nil
}
