package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field is a projected view name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads a comma-separated sort such as "name,-updated_at".
// A leading "-" sorts descending. Blank input yields nil.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// params numbers positional arguments while a statement is rendered.
type params struct {
	args []any
}

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}

// condition renders one WHERE predicate, registering its arguments with p.
type condition func(p *params) string

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// joined with AND and placeholders are numbered when a statement is built,
// so the same Builder can produce matching count and page queries.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder starts a Builder. defaultSort applies when OrderByFields is
// never called or names no projected field.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// OrderByFields replaces the default ordering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals matches field = value. Nil values add nothing.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	return b.Where(field, "=", value)
}

// Where compares field against value with one of = <> < <= > >=.
// Nil values add nothing; any other operator panics.
func (b *Builder) Where(field, op string, value any) *Builder {
	switch op {
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		panic(fmt.Sprintf("query: unsupported operator %q", op))
	}
	if isNil(value) {
		return b
	}

	col := b.projection.Column(field)
	b.conditions = append(b.conditions, func(p *params) string {
		return col + " " + op + " " + p.add(value)
	})
	return b
}

// WhereContains matches field case-insensitively against a substring.
// LIKE wildcards in value match literally. Nil or empty values add nothing.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	return b.WhereSearch(value, field)
}

// WhereSearch matches value as a substring of any of fields.
// Nil or empty values add nothing.
func (b *Builder) WhereSearch(value *string, fields ...string) *Builder {
	if value == nil || *value == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + escapeLike(*value) + "%"
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.Column(f)
	}

	b.conditions = append(b.conditions, func(p *params) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + p.add(pattern)
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
	return b
}

// Build renders the filtered, ordered SELECT.
func (b *Builder) Build() (string, []any) {
	var p params
	sql := "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() + b.where(&p) + b.orderBy()
	return sql, p.args
}

// BuildCount renders SELECT COUNT(*) under the same conditions as Build.
func (b *Builder) BuildCount() (string, []any) {
	var p params
	return "SELECT COUNT(*) FROM " + b.projection.From() + b.where(&p), p.args
}

// BuildPage renders Build limited to one 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize), args
}

// BuildSingle renders a lookup of one row by idField, ignoring other conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(), b.projection.From(), b.projection.Column(idField))
	return sql, []any{id}
}

func (b *Builder) where(p *params) string {
	if len(b.conditions) == 0 {
		return ""
	}
	clauses := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		clauses[i] = c(p)
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func (b *Builder) orderBy() string {
	terms := b.sortTerms(b.sort)
	if len(terms) == 0 {
		terms = b.sortTerms(b.defaultSort)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// sortTerms drops fields outside the projection; sort names come from query strings.
func (b *Builder) sortTerms(fields []SortField) []string {
	var terms []string
	for _, f := range fields {
		if !b.projection.Has(f.Field) {
			continue
		}
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms = append(terms, b.projection.Column(f.Field)+dir)
	}
	return terms
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
