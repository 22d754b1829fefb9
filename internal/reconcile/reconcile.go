package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
)

// stateLister reads recent posting step rows.
type stateLister interface {
	ListSince(ctx context.Context, since time.Time) ([]models.PostingState, error)
}

// cashFinder looks up a cash ledger entry by its derived idempotency key.
type cashFinder interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*models.CashLedgerEntry, error)
}

// Mismatch flags one event whose streams disagree.
type Mismatch struct {
	IdempotencyKey string
	EventKind      enums.EventKind
	Stream         string
	Detail         string
}

// Report summarizes one reconciliation pass.
type Report struct {
	Since       time.Time
	KeysChecked int
	Mismatches  []Mismatch
}

// Service scans recent posting activity for events whose saga never
// finished or whose cash entry is missing, and surfaces them as metrics
// and log lines for an operator to replay.
type Service struct {
	states   stateLister
	cash     cashFinder
	lookback time.Duration
	log      *logger.Logger
	metrics  *metrics.ReconcileMetrics
}

// New wires a reconcile service.
func New(states stateLister, cash cashFinder, lookback time.Duration, log *logger.Logger, m *metrics.ReconcileMetrics) (*Service, error) {
	if states == nil {
		return nil, fmt.Errorf("posting state lister required")
	}
	if cash == nil {
		return nil, fmt.Errorf("cash ledger finder required")
	}
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &Service{states: states, cash: cash, lookback: lookback, log: log, metrics: m}, nil
}

type eventState struct {
	kind      enums.EventKind
	completed map[enums.PostingStep]bool
	failed    map[enums.PostingStep]string
}

// Run performs one reconciliation pass over the lookback window.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	since := time.Now().UTC().Add(-s.lookback)
	states, err := s.states.ListSince(ctx, since)
	if err != nil {
		s.metrics.IncRun("error")
		return nil, errors.Wrap(errors.CodeResolution, err, "list posting states")
	}

	byKey := make(map[string]*eventState)
	for _, state := range states {
		ev := byKey[state.IdempotencyKey]
		if ev == nil {
			ev = &eventState{
				kind:      state.EventKind,
				completed: make(map[enums.PostingStep]bool),
				failed:    make(map[enums.PostingStep]string),
			}
			byKey[state.IdempotencyKey] = ev
		}
		step := enums.PostingStep(state.Step)
		switch state.Status {
		case enums.PostingStepStatusCompleted:
			ev.completed[step] = true
			delete(ev.failed, step)
		case enums.PostingStepStatusFailed:
			cause := ""
			if state.Error != nil {
				cause = *state.Error
			}
			ev.failed[step] = cause
		}
	}

	report := &Report{Since: since, KeysChecked: len(byKey)}
	for key, ev := range byKey {
		report.Mismatches = append(report.Mismatches, s.check(ctx, key, ev)...)
	}

	if len(report.Mismatches) == 0 {
		s.metrics.IncRun("clean")
		return report, nil
	}

	s.metrics.IncRun("mismatch")
	for _, mismatch := range report.Mismatches {
		s.metrics.IncMismatch(mismatch.Stream)
		if s.log != nil {
			ctx := s.log.WithIdempotencyKey(ctx, mismatch.IdempotencyKey)
			s.log.Warn(ctx, fmt.Sprintf("reconcile: %s stream %s: %s", mismatch.EventKind, mismatch.Stream, mismatch.Detail))
		}
	}
	return report, nil
}

func (s *Service) check(ctx context.Context, key string, ev *eventState) []Mismatch {
	var mismatches []Mismatch
	flag := func(stream, detail string) {
		mismatches = append(mismatches, Mismatch{
			IdempotencyKey: key,
			EventKind:      ev.kind,
			Stream:         stream,
			Detail:         detail,
		})
	}

	// Sales and returns settled by card or online complete the cash step
	// without writing an entry, so only the unconditional cash movers can
	// be cross-checked against the ledger.
	if ev.completed[enums.PostingStepCashLedger] && alwaysMovesCash(ev.kind) {
		entry, err := s.cash.FindByIdempotencyKey(ctx, key+":cash")
		if err != nil {
			flag("cash_ledger", "lookup failed: "+err.Error())
		} else if entry == nil {
			flag("cash_ledger", "step recorded completed but no cash entry found")
		}
	}

	for step, want := range requiredSteps(ev.kind) {
		if !want {
			continue
		}
		if ev.completed[step] {
			continue
		}
		if !ev.completed[enums.PostingStepCashLedger] {
			// Cash never landed, so the event failed whole; nothing
			// to reconcile.
			continue
		}
		detail := "cash landed but step never completed"
		if cause, ok := ev.failed[step]; ok && cause != "" {
			detail = "cash landed, step failed: " + strings.TrimSpace(cause)
		}
		flag(string(step), detail)
	}

	return mismatches
}

func alwaysMovesCash(kind enums.EventKind) bool {
	switch kind {
	case enums.EventKindCashAdjustment, enums.EventKindTaxSettlement, enums.EventKindRentalIncome:
		return true
	}
	return false
}

func requiredSteps(kind enums.EventKind) map[enums.PostingStep]bool {
	switch kind {
	case enums.EventKindSale:
		return map[enums.PostingStep]bool{
			enums.PostingStepVendorProfit: true,
			enums.PostingStepSoldProducts: true,
			enums.PostingStepAuditTrail:   true,
		}
	case enums.EventKindReturn, enums.EventKindTaxSettlement, enums.EventKindRentalIncome:
		return map[enums.PostingStep]bool{
			enums.PostingStepVendorProfit: true,
			enums.PostingStepAuditTrail:   true,
		}
	case enums.EventKindCashAdjustment:
		return map[enums.PostingStep]bool{
			enums.PostingStepAuditTrail: true,
		}
	default:
		return nil
	}
}
