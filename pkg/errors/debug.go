package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const maxChainDepth = 10

// Report is what a failed request logs about its error. It never reaches
// the response body.
type Report struct {
	Message        string
	Code           Code
	Chain          []string
	UpstreamStatus int
	DB             *DBDetail
}

// DBDetail is the postgres diagnostic carried by either driver.
type DBDetail struct {
	SQLState   string
	Constraint string
	Table      string
	Detail     string
	Message    string
}

// statusCarrier is implemented by upstream HTTP errors.
type statusCarrier interface {
	StatusCode() int
}

// Inspect walks err's chain, at most maxChainDepth layers deep.
func Inspect(err error) Report {
	if err == nil {
		return Report{}
	}
	r := Report{Message: err.Error(), Code: CodeOf(err)}
	for e, depth := err, 0; e != nil && depth < maxChainDepth; e, depth = errors.Unwrap(e), depth+1 {
		r.Chain = append(r.Chain, fmt.Sprintf("%T", e))
	}

	var upstream statusCarrier
	if errors.As(err, &upstream) {
		r.UpstreamStatus = upstream.StatusCode()
	}
	r.DB = dbDetail(err)
	return r
}

func dbDetail(err error) *DBDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DBDetail{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DBDetail{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// Fields keys the report for the structured logger, leaving out what is
// unset.
func (r Report) Fields() map[string]any {
	fields := map[string]any{
		"error":       r.Message,
		"error_code":  string(r.Code),
		"error_types": r.Chain,
	}
	if r.UpstreamStatus != 0 {
		fields["upstream_status"] = r.UpstreamStatus
	}
	if db := r.DB; db != nil {
		fields["db_sqlstate"] = db.SQLState
		fields["db_message"] = db.Message
		if db.Constraint != "" {
			fields["db_constraint"] = db.Constraint
		}
		if db.Table != "" {
			fields["db_table"] = db.Table
		}
		if db.Detail != "" {
			fields["db_detail"] = db.Detail
		}
	}
	return fields
}
