package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const dialectSQLite = "sqlite"

// Base carries the connection shared by the product and sale repositories
// and hides the few SQL fragments that differ between Postgres and SQLite.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds ctx to the connection. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Dialect names the dialector, e.g. "postgres" or "sqlite".
func (b Base) Dialect() string {
	if b.db == nil || b.db.Dialector == nil {
		return ""
	}
	return b.db.Dialector.Name()
}

// MonthOf returns an integer month (1-12) expression for a timestamp column,
// evaluated in UTC.
func (b Base) MonthOf(column string) string {
	if b.Dialect() == dialectSQLite {
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	}
	return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s AT TIME ZONE 'UTC') AS INTEGER)", column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a lower-cased LIKE pattern matching term anywhere in
// a column. Pair it with `ESCAPE '\'`.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
