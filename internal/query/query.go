// Package query turns task listing parameters into a bounded,
// deterministic SQL statement.
//
// Composition happens in two steps. Compose validates a TaskFilter and
// fills in defaults, producing a Plan. Plan.Build renders the Plan for a
// Dialect. The rendered statement always applies its clauses in the
// same order: owner scope and filters, then sort, then offset, then
// limit. For fixed inputs and fixed data the resulting page is stable
// because ties on created_at are broken by id.
package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adanyl0v/task-tracker/internal/models"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var ErrInvalidFilter = errors.New("invalid filter")

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// TaskFilter holds the optional listing parameters as received from
// the caller. A nil field means the parameter was absent.
type TaskFilter struct {
	Status     *string
	StartsWith *string
	SortBy     *string
	Limit      *int
	Offset     *int
}

// Plan is a validated TaskFilter with defaults applied.
type Plan struct {
	// OwnerID restricts results to one owner. Nil means every owner.
	OwnerID *int64
	Status  string
	Prefix  string
	Order   Order
	Limit   int
	Offset  int
}

// Compose validates filter and returns the Plan for it. Out of range
// values are rejected rather than clamped.
func Compose(ownerScope *int64, filter TaskFilter) (Plan, error) {
	plan := Plan{
		OwnerID: ownerScope,
		Order:   OrderDesc,
		Limit:   DefaultLimit,
	}

	if filter.Status != nil {
		if !models.IsValidTaskStatus(*filter.Status) {
			return Plan{}, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, *filter.Status)
		}
		plan.Status = *filter.Status
	}

	if filter.StartsWith != nil {
		plan.Prefix = *filter.StartsWith
	}

	if filter.SortBy != nil {
		switch order := Order(*filter.SortBy); order {
		case OrderAsc, OrderDesc:
			plan.Order = order
		default:
			return Plan{}, fmt.Errorf("%w: sort_by must be %q or %q", ErrInvalidFilter, OrderAsc, OrderDesc)
		}
	}

	if filter.Limit != nil {
		limit := *filter.Limit
		if limit <= 0 || limit > MaxLimit {
			return Plan{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidFilter, MaxLimit)
		}
		plan.Limit = limit
	}

	if filter.Offset != nil {
		offset := *filter.Offset
		if offset < 0 {
			return Plan{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidFilter)
		}
		plan.Offset = offset
	}

	return plan, nil
}

// TaskColumns is the projection every rendered statement selects, in
// scan order: id, name, status, owner_id, created_at, owner username.
const TaskColumns = `t.id,
       t.name,
       t.status,
       t.owner_id,
       t.created_at,
       u.username`

// Build renders the plan as a SELECT statement with its arguments.
func (p Plan) Build(d Dialect) (string, []any) {
	b := newBuilder(d)

	if p.OwnerID != nil {
		b.where("t.owner_id = %s", *p.OwnerID)
	}
	if p.Status != "" {
		b.where("t.status = %s", p.Status)
	}
	if p.Prefix != "" {
		// substr compares exact characters on both backends, so the
		// match stays case-sensitive where LIKE would not.
		b.where("substr(t.name, 1, %s) = %s", utf8.RuneCountInString(p.Prefix), p.Prefix)
	}

	direction := "DESC"
	if p.Order == OrderAsc {
		direction = "ASC"
	}
	b.orderBy("t.created_at " + direction + ", t.id " + direction)
	b.offset(p.Offset)
	b.limit(p.Limit)

	return b.build()
}

type builder struct {
	dialect    Dialect
	conditions []string
	order      string
	offsetArg  string
	limitArg   string
	args       []any
}

func newBuilder(d Dialect) *builder {
	return &builder{dialect: d}
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// where appends a condition. Each %s in format is replaced by a
// placeholder bound to the matching value.
func (b *builder) where(format string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = b.bind(v)
	}
	b.conditions = append(b.conditions, fmt.Sprintf(format, placeholders...))
}

func (b *builder) orderBy(clause string) {
	b.order = clause
}

func (b *builder) offset(n int) {
	b.offsetArg = b.bind(n)
}

func (b *builder) limit(n int) {
	b.limitArg = b.bind(n)
}

func (b *builder) build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(TaskColumns)
	sb.WriteString("\nFROM tasks t\nJOIN users u ON u.id = t.owner_id")
	if len(b.conditions) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(b.conditions, "\n  AND "))
	}
	sb.WriteString("\nORDER BY ")
	sb.WriteString(b.order)
	// LIMIT precedes OFFSET syntactically; the database still skips
	// the offset rows first and then takes the limit.
	sb.WriteString("\nLIMIT ")
	sb.WriteString(b.limitArg)
	sb.WriteString(" OFFSET ")
	sb.WriteString(b.offsetArg)
	return sb.String(), b.args
}
