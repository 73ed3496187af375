package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNothingToUpdate is returned when an update resolves to zero bound
// fields. The statement is never issued.
var ErrNothingToUpdate = errors.New("nothing to update")

// QueryBuilder assembles parameterized WHERE/SET fragments from a sparse set
// of optional fields. Values are only ever carried through the args list,
// never interpolated into the statement text. Placeholder $N always binds
// args[N-1]: every bound fragment appends exactly one value, in call order.
type QueryBuilder struct {
	conds     []string
	sets      []string
	args      []interface{}
	boundSets int
	paginated bool
}

// NewQueryBuilder returns an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// next is the placeholder number the next bound value will take.
func (qb *QueryBuilder) next() int {
	return len(qb.args) + 1
}

// Where appends "column = $N" binding value.
func (qb *QueryBuilder) Where(column string, value interface{}) *QueryBuilder {
	qb.conds = append(qb.conds, fmt.Sprintf("%s = $%d", column, qb.next()))
	qb.args = append(qb.args, value)
	return qb
}

// WhereExpr appends a condition from a format string whose %d verbs all
// resolve to the same placeholder, bound once to value. Used for fragments
// that reference one parameter more than once, e.g.
// "(p.manager_id = $%d OR pu.user_id = $%d)".
func (qb *QueryBuilder) WhereExpr(format string, value interface{}) *QueryBuilder {
	n := qb.next()
	nums := make([]interface{}, strings.Count(format, "%d"))
	for i := range nums {
		nums[i] = n
	}
	qb.conds = append(qb.conds, fmt.Sprintf(format, nums...))
	qb.args = append(qb.args, value)
	return qb
}

// WhereStatic appends a fixed condition that binds no value.
func (qb *QueryBuilder) WhereStatic(cond string) *QueryBuilder {
	qb.conds = append(qb.conds, cond)
	return qb
}

// Set appends "column = $N" to the update list, binding value.
func (qb *QueryBuilder) Set(column string, value interface{}) *QueryBuilder {
	qb.sets = append(qb.sets, fmt.Sprintf("%s = $%d", column, qb.next()))
	qb.args = append(qb.args, value)
	qb.boundSets++
	return qb
}

// SetStatic appends an update fragment that binds no value, such as
// "updated_at = CURRENT_TIMESTAMP". Static fragments do not count toward
// the nothing-to-update check.
func (qb *QueryBuilder) SetStatic(fragment string) *QueryBuilder {
	qb.sets = append(qb.sets, fragment)
	return qb
}

// WhereClause returns "WHERE ..." joining all conditions with AND, or the
// empty string when no condition was added.
func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conds, " AND ")
}

// SetClause returns the comma-joined SET list. It fails with
// ErrNothingToUpdate when no bound field was appended.
func (qb *QueryBuilder) SetClause() (string, error) {
	if qb.boundSets == 0 {
		return "", ErrNothingToUpdate
	}
	return strings.Join(qb.sets, ", "), nil
}

// Paginate appends LIMIT/OFFSET with their own trailing placeholders and
// returns the clause. It must be the final binding call so the pagination
// parameters stay last in the args list.
func (qb *QueryBuilder) Paginate(limit, offset int) string {
	if qb.paginated {
		panic("querybuilder: Paginate called twice")
	}
	qb.paginated = true
	clause := fmt.Sprintf("LIMIT $%d OFFSET $%d", qb.next(), qb.next()+1)
	qb.args = append(qb.args, limit, offset)
	return clause
}

// Args returns a copy of the ordered parameter list; args[i] binds $i+1.
func (qb *QueryBuilder) Args() []interface{} {
	out := make([]interface{}, len(qb.args))
	copy(out, qb.args)
	return out
}
