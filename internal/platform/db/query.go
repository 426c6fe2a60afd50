package db

import (
	"fmt"
	"strings"
)

// Filter accumulates WHERE conditions with positional arguments. Each
// condition uses "?" for its single argument, rewritten to $n.
type Filter struct {
	conds []string
	args  []any
}

// NewFilter starts a filter with an optional first condition.
func NewFilter(cond string, arg any) *Filter {
	f := &Filter{}
	if cond != "" {
		f.Add(cond, arg)
	}
	return f
}

// Add appends cond, binding arg to every "?" in it.
func (f *Filter) Add(cond string, arg any) *Filter {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(f.args))))
	return f
}

// AddRaw appends a condition without arguments.
func (f *Filter) AddRaw(cond string) *Filter {
	f.conds = append(f.conds, cond)
	return f
}

// Where renders the WHERE clause, or "" when empty.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the bound arguments.
func (f *Filter) Args() []any {
	return f.args
}

// Page appends LIMIT/OFFSET placeholders and returns the clause with the
// full argument list.
func (f *Filter) Page(limit, offset int) (string, []any) {
	n := len(f.args)
	args := append(append([]any{}, f.args...), limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n+1, n+2), args
}

// OrderBy returns "col dir" when sortBy is whitelisted, else fallback.
func OrderBy(allowed map[string]string, sortBy string, desc bool, fallback string) string {
	col, ok := allowed[sortBy]
	if !ok {
		return fallback
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// Like wraps a search term for ILIKE.
func Like(term string) string {
	return "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term) + "%"
}
