package prophet

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Operator is a PQL comparison operator.
type Operator int

// PQL operators.
const (
	OpEq Operator = iota
	OpNe
	OpGt
	OpLt
	OpGte
	OpLte
	OpExists
	OpNotExists
	OpIn
	OpWildcard
	OpNotWildcard
)

var operatorTokens = [...]string{
	OpEq:          "eq",
	OpNe:          "ne",
	OpGt:          "gt",
	OpLt:          "lt",
	OpGte:         "gte",
	OpLte:         "lte",
	OpExists:      "ex",
	OpNotExists:   "nex",
	OpIn:          "in",
	OpWildcard:    "wi",
	OpNotWildcard: "nwi",
}

// String returns the PQL token for the operator.
func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorTokens) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}

	return operatorTokens[o]
}

// Query is a fluent PQL builder. It renders conditions as "field op value"
// joined by single spaces:
//
//	prophet.Q("dst.port").Eq(443).And("bytes").Gt(1000)
//	// dst.port eq 443 and bytes gt 1000
//
// Values are rendered unquoted. Calling an operator with no pending field
// records an error that Build reports; later calls are ignored.
type Query struct {
	parts       []string
	conjunction string
	field       string
	err         error
}

// Q starts a query whose first condition applies to field.
func Q(field string) *Query {
	return &Query{field: field}
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Group starts a query with sub wrapped in parentheses.
func Group(sub *Query) *Query {
	return NewQuery().AddGroup(sub)
}

// RawQuery wraps an already written PQL string.
func RawQuery(pql string) *Query {
	q := NewQuery()
	if pql != "" {
		q.parts = append(q.parts, pql)
	}

	return q
}

// Eq renders "field eq value".
func (q *Query) Eq(value interface{}) *Query { return q.condition(OpEq, value) }

// Ne renders "field ne value".
func (q *Query) Ne(value interface{}) *Query { return q.condition(OpNe, value) }

// Gt renders "field gt value".
func (q *Query) Gt(value interface{}) *Query { return q.condition(OpGt, value) }

// Lt renders "field lt value".
func (q *Query) Lt(value interface{}) *Query { return q.condition(OpLt, value) }

// Gte renders "field gte value".
func (q *Query) Gte(value interface{}) *Query { return q.condition(OpGte, value) }

// Lte renders "field lte value".
func (q *Query) Lte(value interface{}) *Query { return q.condition(OpLte, value) }

// Exists renders "field ex".
func (q *Query) Exists() *Query { return q.condition(OpExists, nil) }

// NotExists renders "field nex".
func (q *Query) NotExists() *Query { return q.condition(OpNotExists, nil) }

// In renders "field in [v1, v2]". A single slice or array argument is
// expanded into the list.
func (q *Query) In(values ...interface{}) *Query { return q.condition(OpIn, values) }

// Wildcard renders "field wi pattern".
func (q *Query) Wildcard(pattern string) *Query { return q.condition(OpWildcard, pattern) }

// NotWildcard renders "field nwi pattern".
func (q *Query) NotWildcard(pattern string) *Query { return q.condition(OpNotWildcard, pattern) }

// And queues an "and" before the next condition or group. An optional field
// names the next condition.
func (q *Query) And(field ...string) *Query { return q.conjoin("and", field) }

// Or queues an "or" before the next condition or group.
func (q *Query) Or(field ...string) *Query { return q.conjoin("or", field) }

// Where sets the field for the next condition.
func (q *Query) Where(field string) *Query {
	q.field = field

	return q
}

// AddGroup appends sub wrapped in parentheses, preceded by any pending
// conjunction.
func (q *Query) AddGroup(sub *Query) *Query {
	if q.err != nil {
		return q
	}

	inner, err := sub.Build()
	if err != nil {
		q.err = err

		return q
	}

	q.flushConjunction()
	q.parts = append(q.parts, "("+inner+")")

	return q
}

// Build renders the query.
func (q *Query) Build() (string, error) {
	if q.err != nil {
		return "", q.err
	}

	return strings.Join(q.parts, " "), nil
}

// String renders the query, or "" if the builder recorded an error.
func (q *Query) String() string {
	s, _ := q.Build()

	return s
}

// IsEmpty reports whether no condition has been added.
func (q *Query) IsEmpty() bool {
	return len(q.parts) == 0
}

func (q *Query) conjoin(conj string, field []string) *Query {
	q.conjunction = conj
	if len(field) > 0 && field[0] != "" {
		q.field = field[0]
	}

	return q
}

func (q *Query) flushConjunction() {
	if q.conjunction != "" && len(q.parts) > 0 {
		q.parts = append(q.parts, q.conjunction)
	}

	q.conjunction = ""
}

func (q *Query) condition(op Operator, value interface{}) *Query {
	if q.err != nil {
		return q
	}

	if q.field == "" {
		q.err = &PQLSyntaxError{
			Message: fmt.Sprintf("%s requires a field, use Q(field).%s(value)", op, op),
			Query:   strings.Join(q.parts, " "),
			Err:     ErrNoFieldSpecified,
		}

		return q
	}

	q.flushConjunction()
	q.parts = append(q.parts, renderCondition(q.field, op, value))
	q.field = ""

	return q
}

func renderCondition(field string, op Operator, value interface{}) string {
	switch op {
	case OpExists, OpNotExists:
		return field + " " + op.String()
	case OpIn:
		values := inValues(value)
		rendered := make([]string, 0, len(values))

		for _, v := range values {
			rendered = append(rendered, renderValue(v))
		}

		return fmt.Sprintf("%s %s [%s]", field, op, strings.Join(rendered, ", "))
	default:
		return fmt.Sprintf("%s %s %s", field, op, renderValue(value))
	}
}

// inValues flattens the arguments of In. In(ports...) and In(ports) render
// the same list.
func inValues(value interface{}) []interface{} {
	values, _ := value.([]interface{})
	if len(values) != 1 || values[0] == nil {
		return values
	}

	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return values
	}

	expanded := make([]interface{}, 0, rv.Len())
	for i := range rv.Len() {
		expanded = append(expanded, rv.Index(i).Interface())
	}

	return expanded
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat renders floats in shortest round-trip form, always with a
// fractional part or an exponent: 1.0, 0.25, 1e+16, 1.5e-05.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, bitSize)

	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}
