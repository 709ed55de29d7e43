package errors

import (
	"errors"
	"fmt"

	pgconnv4 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error chain. It is never sent to clients.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump flattens err for structured logging, pulling driver fields out of
// whichever Postgres error type sits in the chain.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.fill(pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message)
		return d
	}

	var legacyErr *pgconnv4.PgError
	if errors.As(err, &legacyErr) {
		d.fill(legacyErr.Code, legacyErr.ConstraintName, legacyErr.TableName, legacyErr.ColumnName, legacyErr.Detail, legacyErr.Message)
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.fill(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message)
	}
	return d
}

func (d *ErrorDump) fill(code, constraint, table, column, detail, message string) {
	d.PGCode = code
	d.PGConstraint = constraint
	d.PGTable = table
	d.PGColumn = column
	d.PGDetail = detail
	d.PGMessage = message
}
