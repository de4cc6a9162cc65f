package privacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/recordkit"
)

// Decisions returned by rules. Check them with errors.Is.
var (
	// Allow ends the evaluation and permits the write.
	Allow = errors.New("recordkit/privacy: allow rule")

	// Deny ends the evaluation and rejects the write.
	Deny = errors.New("recordkit/privacy: deny rule")

	// Skip moves the evaluation to the next rule.
	Skip = errors.New("recordkit/privacy: skip rule")
)

// Allowf returns a formatted decision wrapping Allow.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted decision wrapping Deny.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted decision wrapping Skip.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Op is a set of record write operations.
type Op uint

// Write operations.
const (
	OpCreate Op = 1 << iota
	OpUpdate
	OpDelete
)

// Is reports whether o contains any of the operations of x.
func (o Op) Is(x Op) bool { return o&x != 0 }

func (o Op) String() string {
	var names []string
	for _, op := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpUpdate, "update"}, {OpDelete, "delete"}} {
		if o.Is(op.op) {
			names = append(names, op.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("Op(%d)", uint(o))
	}
	return strings.Join(names, "|")
}

// Rule decides whether a write of a record is allowed.
type Rule interface {
	EvalWrite(ctx context.Context, op Op, rec *recordkit.Record) error
}

// RuleFunc adapts an ordinary function to a Rule.
type RuleFunc func(ctx context.Context, op Op, rec *recordkit.Record) error

// EvalWrite returns f(ctx, op, rec).
func (f RuleFunc) EvalWrite(ctx context.Context, op Op, rec *recordkit.Record) error {
	return f(ctx, op, rec)
}

// AlwaysAllowRule returns a rule allowing every write.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule denying every write.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule returns a rule deciding from the context alone. A nil
// decision is a skip.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ Op, _ *recordkit.Record) error {
		return eval(ctx)
	})
}

// OnOperation evaluates rule only for the given operations and skips the
// others.
func OnOperation(rule Rule, op Op) Rule {
	return RuleFunc(func(ctx context.Context, o Op, rec *recordkit.Record) error {
		if o.Is(op) {
			return rule.EvalWrite(ctx, o, rec)
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given operations.
func DenyOperationRule(op Op) Rule {
	return OnOperation(RuleFunc(func(_ context.Context, o Op, rec *recordkit.Record) error {
		return Denyf("recordkit/privacy: %s of %s is not allowed", o, rec.Type().Name())
	}), op)
}

// AllowOperationRule returns a rule allowing the given operations.
func AllowOperationRule(op Op) Rule {
	return OnOperation(fixedDecision{Allow}, op)
}

// Policy is an ordered list of rules. It is a recordkit.Mixin adding no
// fields and evaluating the rules before every create, update and delete.
type Policy []Rule

var _ recordkit.Mixin = Policy(nil)

// EvalWrite evaluates the rules in order. The first Allow returns nil and
// the first other non-skip decision is returned as is.
func (p Policy) EvalWrite(ctx context.Context, op Op, rec *recordkit.Record) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		if errors.Is(decision, Allow) {
			return nil
		}
		return decision
	}
	for _, rule := range p {
		switch decision := rule.EvalWrite(ctx, op, rec); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Fields returns nil; a policy declares no fields.
func (Policy) Fields() []recordkit.Field { return nil }

// Hooks returns the hooks evaluating the policy.
func (p Policy) Hooks() recordkit.Hooks {
	eval := func(op Op) recordkit.Hook {
		return func(ctx context.Context, rec *recordkit.Record) error {
			return p.EvalWrite(ctx, op, rec)
		}
	}
	return recordkit.Hooks{
		PreCreate: eval(OpCreate),
		PreUpdate: eval(OpUpdate),
		PreDelete: eval(OpDelete),
	}
}

type decisionCtxKey struct{}

// DecisionContext returns a context whose decision overrides every policy.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext returns the decision stored with DecisionContext.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalWrite(context.Context, Op, *recordkit.Record) error {
	return f.decision
}
