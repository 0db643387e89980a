package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrDuplicateID        = errors.New("asset with this id already exists")
	ErrDuplicateTag       = errors.New("asset with this tag already exists")
	ErrInvalidReference   = errors.New("referenced record does not exist")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrInvalidTransition  = errors.New("assignment is not in the required status")
	ErrSettingNotFound    = errors.New("notification setting not found")
)

// Postgres error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PaginationParams holds pagination parameters for repository queries
type PaginationParams struct {
	Offset int
	Limit  int
}

// PaginatedResult holds one page of query results and the unpaged total.
type PaginatedResult[T any] struct {
	Items      []T
	TotalCount int
}

// mapWriteError translates constraint violations into sentinel errors.
// A unique violation on a primary key means two writers raced for the same
// sequential id; any other unique violation is a duplicate tag.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pgUniqueViolation:
		if strings.HasSuffix(pqErr.Constraint, "_pkey") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, pqErr.Detail)
		}
		return fmt.Errorf("%w: %s", ErrDuplicateTag, pqErr.Detail)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Detail)
	}
	return err
}

// rollback ends a transaction that already failed; its own error adds nothing.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

// whereBuilder accumulates positional SQL conditions.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape quotes the LIKE wildcards in s so it matches literally.
func likeEscape(s string) string {
	return likeEscaper.Replace(s)
}

func (w *whereBuilder) addSearch(columns []string, term string) {
	w.args = append(w.args, "%"+likeEscape(term)+"%")
	n := len(w.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the suffix and full args.
func (w *whereBuilder) page(params PaginationParams) (string, []any) {
	args := append(append([]any(nil), w.args...), params.Limit, params.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
