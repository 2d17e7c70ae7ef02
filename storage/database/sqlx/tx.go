package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core"
)

const uniqueViolation = "23505"

// withTx runs fn in a transaction which is committed only if fn succeeds.
// A failed rollback leaves the connection pool in an unknown state: the API shuts down then.
func withTx(ctx context.Context, db core.DB, fn func(tx core.DBTransactor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errors.Wrap(core.NewShutdownError("rollback failed: "+rbErr.Error()), err.Error())
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// where accumulates AND-ed conditions and their positional arguments.
type where struct {
	conds []string
	args  []interface{}
}

// add appends `cond` where "?" stands for `arg`.
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
