package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/infrastructure/logger"
	"github.com/erp/reconciler/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BalanceTriggerPolicy decides when an account balance is recalculated
type BalanceTriggerPolicy string

const (
	// BalanceTriggerOnInsert recalculates only accounts that received a new movement
	BalanceTriggerOnInsert BalanceTriggerPolicy = "ON_INSERT"
	// BalanceTriggerAlways recalculates every account of a settled, banked
	// installment, whether or not its movement already existed
	BalanceTriggerAlways BalanceTriggerPolicy = "ALWAYS"
)

// ParseBalanceTriggerPolicy parses a policy name, defaulting to ON_INSERT
func ParseBalanceTriggerPolicy(s string) (BalanceTriggerPolicy, error) {
	switch BalanceTriggerPolicy(strings.ToUpper(strings.TrimSpace(s))) {
	case "", BalanceTriggerOnInsert:
		return BalanceTriggerOnInsert, nil
	case BalanceTriggerAlways:
		return BalanceTriggerAlways, nil
	}
	return "", fmt.Errorf("unknown balance trigger policy %q", s)
}

// MovementResult reports what one generation pass did
type MovementResult struct {
	Created              int
	Existing             int
	AccountsRecalculated []uuid.UUID
}

// MovementGenerator posts one ledger movement per settled, banked installment.
// Re-running it over the same installments creates nothing new: the insert is
// conditional on the (origin screen, origin installment) uniqueness constraint.
type MovementGenerator struct {
	policy  BalanceTriggerPolicy
	now     func() time.Time
	metrics *telemetry.ReconciliationMetrics
}

// MovementGeneratorOption configures a MovementGenerator
type MovementGeneratorOption func(*MovementGenerator)

// WithBalanceTriggerPolicy overrides the default ON_INSERT policy
func WithBalanceTriggerPolicy(p BalanceTriggerPolicy) MovementGeneratorOption {
	return func(g *MovementGenerator) {
		g.policy = p
	}
}

// WithClock overrides time.Now for movement date fallback
func WithClock(now func() time.Time) MovementGeneratorOption {
	return func(g *MovementGenerator) {
		g.now = now
	}
}

// WithMovementMetrics records generated movements
func WithMovementMetrics(m *telemetry.ReconciliationMetrics) MovementGeneratorOption {
	return func(g *MovementGenerator) {
		g.metrics = m
	}
}

// NewMovementGenerator creates a new MovementGenerator
func NewMovementGenerator(opts ...MovementGeneratorOption) *MovementGenerator {
	g := &MovementGenerator{
		policy: BalanceTriggerOnInsert,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the configured balance trigger policy
func (g *MovementGenerator) Policy() BalanceTriggerPolicy {
	return g.policy
}

// Generate posts movements for installments and triggers balance
// recalculation once per touched account. installments must carry their
// persisted identifiers.
func (g *MovementGenerator) Generate(
	ctx context.Context,
	repos TransactionalRepositories,
	desc finance.DocumentDescriptor,
	doc *finance.Document,
	installments []finance.Installment,
) (MovementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "movement_generator", "generate")
	defer span.End()

	log := logger.L(ctx)
	now := g.now()

	var (
		result        MovementResult
		name          string
		nameResolved  bool
		touched       []uuid.UUID
		touchedFilter = make(map[uuid.UUID]struct{})
	)

	for i := range installments {
		inst := &installments[i]
		if !inst.PostsMovement() {
			continue
		}

		if !nameResolved {
			resolved, err := repos.Counterparties().ResolveName(ctx, doc.ID)
			if err != nil {
				telemetry.RecordError(span, err)
				return result, fmt.Errorf("failed to resolve %s name: %w", desc.CounterpartyRole, err)
			}
			name, nameResolved = resolved, true
		}

		movement, err := finance.BuildMovement(desc, doc, inst, name, now)
		if err != nil {
			telemetry.RecordError(span, err)
			return result, err
		}

		inserted, err := repos.Movements().InsertIfAbsent(ctx, movement)
		if err != nil {
			telemetry.RecordError(span, err)
			return result, fmt.Errorf("failed to insert movement for installment %s: %w", inst.ID, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Existing++
			log.Debug("Movement already posted",
				zap.String("origin_screen", desc.OriginScreen),
				zap.String("installment_id", inst.ID.String()),
			)
		}

		if !inserted && g.policy != BalanceTriggerAlways {
			continue
		}
		if _, seen := touchedFilter[movement.AccountID]; !seen {
			touchedFilter[movement.AccountID] = struct{}{}
			touched = append(touched, movement.AccountID)
		}
	}

	for _, accountID := range touched {
		if err := repos.Balances().Recalculate(ctx, accountID); err != nil {
			telemetry.RecordError(span, err)
			return result, fmt.Errorf("failed to recalculate balance of account %s: %w", accountID, err)
		}
	}
	result.AccountsRecalculated = touched

	g.metrics.RecordMovements(ctx, desc.Kind.String(), result.Created, result.Existing)
	telemetry.SetAttributes(span,
		"movements_created", result.Created,
		"movements_existing", result.Existing,
		"accounts_recalculated", len(touched),
	)
	telemetry.SetOK(span)
	return result, nil
}
