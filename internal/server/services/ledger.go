// Package services contains server-side business logic. This file implements
// LedgerService: the deposit processor that turns one weighed submission into
// a balance increment plus a history row, and the member-facing read path.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/config"
	"github.com/dmitrijs2005/ecopoints/internal/server/metrics"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/members"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/repomanager"
)

// Dashboard is what a signed-in member sees: the running totals and the most
// recent deposits, newest first.
type Dashboard struct {
	Member       *models.Member
	Recent       []*models.DepositEvent
	DepositCount int64
}

// LedgerService owns every write to member balances.
type LedgerService struct {
	db                  *sql.DB
	runner              dbx.TxRunner
	repomanager         repomanager.RepositoryManager
	pointsPerUnit       int64
	requireRegistration bool
	storeTimeout        time.Duration
	now                 func() time.Time
	log                 logging.Logger
}

// NewLedgerService wires the ledger to a store. db is the read handle and may
// be nil for in-memory stores; runner scopes each deposit's unit of work.
func NewLedgerService(db *sql.DB, runner dbx.TxRunner, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *LedgerService {
	return &LedgerService{
		db:                  db,
		runner:              runner,
		repomanager:         m,
		pointsPerUnit:       cfg.PointsPerUnit,
		requireRegistration: cfg.RequireRegistration,
		storeTimeout:        cfg.StoreTimeout,
		now:                 time.Now,
		log:                 log.With("module", "ledger"),
	}
}

// historyError marks a failure of the history append that followed a
// successful balance increment.
type historyError struct{ err error }

func (e *historyError) Error() string { return "append history: " + e.err.Error() }
func (e *historyError) Unwrap() error { return e.err }

// Deposit credits weight to the member identified by phone and records the
// event. Unknown phones create the member unless registration is required.
//
// On stores without multi-statement atomicity a failed history append after
// the increment is reported as common.ErrHistoryWriteFailed; the increment is
// left in place for reconciliation.
func (s *LedgerService) Deposit(ctx context.Context, phone string, weight models.Quantity) (*models.DepositResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || weight <= 0 {
		metrics.RecordDeposit(metrics.OutcomeInvalid, 0, 0)
		return nil, common.ErrInvalidInput
	}
	points := weight.Mul(s.pointsPerUnit)
	if points/models.Quantity(s.pointsPerUnit) != weight {
		metrics.RecordDeposit(metrics.OutcomeInvalid, 0, 0)
		return nil, fmt.Errorf("%w: amount too large", common.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var result *models.DepositResult
	err := s.runner.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := s.credit(ctx, s.repomanager.Members(tx), phone, weight, points)
		if err != nil {
			return err
		}

		event := &models.DepositEvent{
			MemberID:     res.MemberID,
			WeightAmount: weight,
			PointsEarned: points,
			CreatedAt:    s.now().UTC(),
		}
		if _, err := s.repomanager.History(tx).Append(ctx, event); err != nil {
			return &historyError{err: err}
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.depositFailed(ctx, phone, weight, err)
	}

	outcome := metrics.OutcomeAcceptedExisting
	if result.Created {
		outcome = metrics.OutcomeAcceptedNew
	}
	metrics.RecordDeposit(outcome, weight.Float64(), points.Float64())
	s.log.Info(ctx, "deposit accepted",
		"member_id", result.MemberID,
		"phone", phone,
		"weight", weight.String(),
		"points", points.String(),
		"created", result.Created,
	)
	return result, nil
}

// credit applies the increment to an existing member, or creates the member
// with this deposit as its opening balance. A creation that loses a race
// against another creation for the same phone falls back to the increment.
func (s *LedgerService) credit(ctx context.Context, repo members.Repository, phone string, weight, points models.Quantity) (*models.DepositResult, error) {
	b, err := repo.ApplyDeposit(ctx, phone, weight, points)
	if err == nil {
		return existingResult(phone, b, points), nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	if s.requireRegistration {
		return nil, common.ErrMemberNotFound
	}

	m, err := repo.CreateMember(ctx, phone, weight, points)
	if err == nil {
		return &models.DepositResult{
			MemberID:         m.ID,
			Phone:            phone,
			Created:          true,
			CumulativeWeight: m.CumulativeWeight,
			PointsEarned:     points,
			PointBalance:     m.PointBalance,
		}, nil
	}
	if !errors.Is(err, common.ErrDuplicateKey) {
		return nil, err
	}

	b, err = repo.ApplyDeposit(ctx, phone, weight, points)
	if err != nil {
		return nil, err
	}
	return existingResult(phone, b, points), nil
}

func existingResult(phone string, b *models.Balances, points models.Quantity) *models.DepositResult {
	return &models.DepositResult{
		MemberID:         b.MemberID,
		Phone:            phone,
		CumulativeWeight: b.CumulativeWeight,
		PointsEarned:     points,
		PointBalance:     b.PointBalance,
	}
}

// depositFailed classifies err, records it and returns the caller-facing error.
func (s *LedgerService) depositFailed(ctx context.Context, phone string, weight models.Quantity, err error) error {
	var he *historyError
	switch {
	case errors.As(err, &he) && !s.runner.Atomic():
		metrics.RecordDeposit(metrics.OutcomeHistoryFailed, 0, 0)
		s.log.Error(ctx, "balance applied but history append failed, reconcile required",
			"op", "deposit", "phone", phone, "weight", weight.String(), "error", he.err)
		return fmt.Errorf("%w: %v", common.ErrHistoryWriteFailed, he.err)

	case errors.Is(err, common.ErrMemberNotFound):
		metrics.RecordDeposit(metrics.OutcomeMemberNotFound, 0, 0)
		s.log.Warn(ctx, "deposit for unregistered phone rejected", "op", "deposit", "phone", phone)
		return err

	case errors.Is(err, common.ErrInvalidInput):
		metrics.RecordDeposit(metrics.OutcomeInvalid, 0, 0)
		s.log.Warn(ctx, "deposit rejected", "op", "deposit", "phone", phone, "weight", weight.String(), "error", err)
		return err
	}

	metrics.RecordDeposit(metrics.OutcomeStoreError, 0, 0)
	s.log.Error(ctx, "deposit failed", "op", "deposit", "phone", phone, "weight", weight.String(), "error", err)
	return storeError(err)
}

// storeError folds deadline expiry into common.ErrStoreUnavailable and keeps
// other store errors as they are.
func storeError(err error) error {
	if errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || dbx.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return err
}

// Dashboard loads the member's balances and latest deposits.
func (s *LedgerService) Dashboard(ctx context.Context, memberID int64) (*Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	m, err := s.repomanager.Members(s.db).GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrMemberNotFound
		}
		return nil, storeError(err)
	}
	hist := s.repomanager.History(s.db)
	recent, err := hist.ListByMember(ctx, memberID, common.DashboardHistoryLimit)
	if err != nil {
		return nil, storeError(err)
	}
	n, err := hist.CountByMember(ctx, memberID)
	if err != nil {
		return nil, storeError(err)
	}
	return &Dashboard{Member: m, Recent: recent, DepositCount: n}, nil
}

// History returns up to limit deposits for memberID, newest first.
func (s *LedgerService) History(ctx context.Context, memberID int64, limit int) ([]*models.DepositEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	events, err := s.repomanager.History(s.db).ListByMember(ctx, memberID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return events, nil
}

// HistoryByPhone resolves phone and returns every deposit, newest first.
func (s *LedgerService) HistoryByPhone(ctx context.Context, phone string) (*models.Member, []*models.DepositEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	m, err := s.repomanager.Members(s.db).FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrMemberNotFound
		}
		return nil, nil, storeError(err)
	}
	events, err := s.repomanager.History(s.db).ListByMember(ctx, m.ID, 0)
	if err != nil {
		return nil, nil, storeError(err)
	}
	return m, events, nil
}
