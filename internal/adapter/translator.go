package adapter

import (
	"context"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/spf13/cast"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

// likeWildcard marks a substring position in a like condition value.
const likeWildcard = "%"

// guidAttribute values given in string form are matched on their binary
// encoding.
const guidAttribute = "objectGUID"

// Translator converts query conditions into a directory search filter.
type Translator struct {
	// Strict turns dropped conditions into an UnknownConditionError.
	Strict bool
}

// NewTranslator returns a translator that drops unsupported conditions
// unless strict is set.
func NewTranslator(strict bool) *Translator {
	return &Translator{Strict: strict}
}

// Translate folds the per-condition predicates with AND, left to right in
// input order. An empty input yields a nil filter, meaning match-all.
func (t *Translator) Translate(ctx context.Context, conditions []Condition) (Filter, error) {
	var filter Filter

	for _, cond := range conditions {
		predicate, err := t.predicate(cond)
		if err != nil {
			tflog.SubsystemError(ctx, ldap.SubsystemAdapter, "Dropping unsupported condition", map[string]any{
				"field":    cond.Field,
				"operator": cond.Operator.String(),
				"error":    err.Error(),
			})
			if t.Strict {
				return nil, err
			}
			continue
		}

		filter = And(filter, predicate)
	}

	if filter != nil {
		tflog.SubsystemTrace(ctx, ldap.SubsystemAdapter, "Translated conditions", map[string]any{
			"conditions": len(conditions),
			"filter":     filter.String(),
		})
	}

	return filter, nil
}

func (t *Translator) predicate(cond Condition) (Filter, error) {
	if !ldap.IsAttributeName(cond.Field) {
		return nil, &UnknownConditionError{Condition: cond}
	}

	op, ok := ParseOperator(string(cond.Operator))
	if !ok {
		return nil, &UnknownConditionError{Condition: cond}
	}

	value, err := cast.ToStringE(cond.Value)
	if err != nil {
		return nil, &UnknownConditionError{Condition: cond, Err: err}
	}

	attr := cond.Field

	if strings.EqualFold(attr, guidAttribute) && (op == OpEqual || op == OpNotEqual) {
		if raw, err := ldap.EncodeGUID(value); err == nil {
			if op == OpNotEqual {
				return Not(EqualBytes(attr, raw)), nil
			}
			return EqualBytes(attr, raw), nil
		}
	}

	switch op {
	case OpEqual:
		return Equal(attr, value), nil
	case OpLike:
		return Substring(attr, strings.Split(value, likeWildcard)...), nil
	case OpLessOrEqual:
		return LessOrEqual(attr, value), nil
	case OpGreaterOrEqual:
		return GreaterOrEqual(attr, value), nil
	case OpLessThan:
		return And(LessOrEqual(attr, value), Not(Equal(attr, value))), nil
	case OpGreaterThan:
		return And(GreaterOrEqual(attr, value), Not(Equal(attr, value))), nil
	case OpNotEqual:
		return Not(Equal(attr, value)), nil
	default:
		return nil, &UnknownConditionError{Condition: cond}
	}
}
