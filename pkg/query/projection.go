// Package query renders parameterized PostgreSQL SELECT statements from a
// projection of view names onto table columns.
package query

import "strings"

// ProjectionMap names the columns a view exposes and the table, alias, and
// joins they are read from. Only projected names can be filtered or sorted
// on by name, which keeps request input out of identifiers.
type ProjectionMap struct {
	table   string
	joins   []string
	columns map[string]string
	order   []string
}

// NewProjectionMap starts a projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table:   schema + "." + table + " " + alias,
		columns: map[string]string{},
	}
}

// Project exposes the aliased table column under viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	alias := p.table[strings.LastIndexByte(p.table, ' ')+1:]
	return p.ProjectExpr(alias+"."+column, viewName)
}

// ProjectExpr exposes a computed expression under viewName. The expression
// is emitted as written and must be a constant.
func (p *ProjectionMap) ProjectExpr(expr, viewName string) *ProjectionMap {
	p.columns[viewName] = expr
	p.order = append(p.order, expr)
	return p
}

// Join appends a join clause such as "LEFT JOIN public.x x ON x.id = p.x_id".
func (p *ProjectionMap) Join(clause string) *ProjectionMap {
	p.joins = append(p.joins, clause)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.table
}

// From returns Table followed by the joins.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.table}, p.joins...), " ")
}

// Column resolves viewName to its column or expression. Unknown names are
// returned unchanged so callers may pass a raw column.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Has reports whether viewName is projected.
func (p *ProjectionMap) Has(viewName string) bool {
	_, ok := p.columns[viewName]
	return ok
}

// Columns returns the select list in projection order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}
