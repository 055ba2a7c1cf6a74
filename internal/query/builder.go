// Package query turns listing parameters into scoped, searched and sorted
// gorm queries. Column names only ever come from the fixed tables below.
package query

import (
	"strings" // String manipulation

	"etf_tracker/internal/policy" // Listing scope

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Typed ORDER BY clauses
)

// Direction of a sort
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ParseDirection accepts "asc"/"desc" in any case; everything else is ascending
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// Params are the listing inputs of one request
type Params struct {
	Scope         policy.Scope // Who is asking
	Search        string       // Free text, blank means no search
	SortBy        string       // One of the resource's sort keys
	SortDirection string       // asc or desc
}

// Resource describes how one table is scoped, searched and sorted
type Resource struct {
	OwnerColumn   string            // Owner id column, empty when rows are not owned
	PublicColumn  string            // Visibility column, empty when rows are not owned
	SearchColumns []string          // Text columns matched by Search
	SortColumns   map[string]string // Request sort key -> column
	DefaultSort   string            // Sort key used when SortBy is unknown
}

// Etfs lists ETFs
var Etfs = Resource{
	OwnerColumn:   "user_id",
	PublicColumn:  "is_public",
	SearchColumns: []string{"ticker", "description"},
	SortColumns:   map[string]string{"ticker": "ticker", "assetClass": "asset_class"},
	DefaultSort:   "ticker",
}

// Portfolios lists portfolios
var Portfolios = Resource{
	OwnerColumn:   "user_id",
	PublicColumn:  "is_public",
	SearchColumns: []string{"name"},
	SortColumns:   map[string]string{"name": "name", "userId": "user_id"},
	DefaultSort:   "name",
}

// Users lists user accounts; admin only, so no ownership scope applies
var Users = Resource{
	SearchColumns: []string{"username"},
	SortColumns:   map[string]string{"username": "username", "role": "role", "id": "id"},
	DefaultSort:   "username",
}

// SortColumn resolves a sort key, falling back to the default
func (r Resource) SortColumn(sortBy string) string {
	if col, ok := r.SortColumns[strings.TrimSpace(sortBy)]; ok {
		return col
	}
	return r.SortColumns[r.DefaultSort]
}

// Restrict limits db to the rows visible in scope. A non-empty table
// qualifies the columns, for queries that join other tables.
func (r Resource) Restrict(db *gorm.DB, scope policy.Scope, table string) *gorm.DB {
	if r.OwnerColumn == "" || scope.All {
		return db
	}
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	return db.Where("("+prefix+r.OwnerColumn+" = ? OR "+prefix+r.PublicColumn+" = ?)", scope.UserID, true)
}

// Apply adds scope AND search, then ORDER BY, to db
func (r Resource) Apply(db *gorm.DB, p Params) *gorm.DB {
	// Scope first; search is always ANDed with it
	db = r.Restrict(db, p.Scope, "")

	// Blankness is judged on the trimmed term, matching uses it as typed
	if strings.TrimSpace(p.Search) != "" && len(r.SearchColumns) > 0 {
		pattern := "%" + strings.ToLower(p.Search) + "%"
		conds := make([]string, 0, len(r.SearchColumns))
		args := make([]any, 0, len(r.SearchColumns))
		for _, col := range r.SearchColumns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	col := r.SortColumn(p.SortBy)
	desc := ParseDirection(p.SortDirection) == Desc
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	if col == "id" {
		return db
	}
	// id breaks ties so equal sort keys come back in a stable order
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}
