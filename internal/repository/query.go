package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/student-portal-api/internal/models"
)

// pageWindow normalises paging input into LIMIT/OFFSET values.
func pageWindow(page, size int) (int, int) {
	page, size = models.NormalizePage(page, size)
	return size, (page - 1) * size
}

// orderBy resolves a whitelisted sort column, falling back to def.
func orderBy(allowed map[string]string, sortBy, def, order, defOrder string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[def]
	}
	order = strings.ToUpper(order)
	if order != "ASC" && order != "DESC" {
		order = defOrder
	}
	return fmt.Sprintf("%s %s", column, order)
}

// whereBuilder accumulates numbered postgres placeholders.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	n := len(w.args)
	w.conds = append(w.conds, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", n)))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func likeArg(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsNotFound reports whether err signals a missing row from any store.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
