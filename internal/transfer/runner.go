// Package transfer implements the per-table bulk transfer pipeline:
// provision the destination schema, stream rows through the encoding
// sanitizer into COPY, advance the identity sequence, verify row counts.
package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/uoy-im/mysql-to-postgresql/internal/dialect"
	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// Destination is the narrow slice of the destination database the runner
// uses: DDL and counts, plus the raw COPY protocol fed by a byte stream.
type Destination interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)
}

// PoolDestination adapts a pgxpool.Pool to Destination. Each COPY runs on
// a dedicated connection acquired for the duration of the stream.
type PoolDestination struct {
	*pgxpool.Pool
}

func (d PoolDestination) CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	conn, err := d.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("acquire destination connection: %w", err)
	}
	defer conn.Release()
	return conn.Conn().PgConn().CopyFrom(ctx, r, sql)
}

var _ Destination = PoolDestination{}

// Runner executes transfers against one source/destination pair. It owns
// no locking: the destination table is assumed to have exactly one writer
// for the duration of a transfer.
type Runner struct {
	Source     *sql.DB
	Dest       Destination
	DestSchema string

	// OnRow is called once per streamed row, for progress reporting.
	OnRow func()

	my dialect.MySQL
	pg dialect.Postgres
}

// Run performs the full pipeline for one table. The returned error is
// fatal for this table only; a count mismatch is not an error but a WARN
// result.
func (r *Runner) Run(ctx context.Context, spec schema.TableSpec) (schema.TransferResult, error) {
	sess := newSession(spec)
	defer sess.finish()

	logger := log.WithField("table", spec.Name)

	if err := r.provision(ctx, spec); err != nil {
		return sess.Result(StatusFail, err.Error()), fmt.Errorf("table %s: provision: %w", spec.Name, err)
	}
	sess.advance(PhaseProvisioned)
	logger.WithField("phase", sess.Phase).Debug("destination table created")

	sess.advance(PhaseStreaming)
	streamed, dropped, err := r.stream(ctx, spec)
	sess.StreamedRows = streamed
	sess.DroppedBytes = dropped
	if err != nil {
		return sess.Result(StatusFail, err.Error()), fmt.Errorf("table %s: stream: %w", spec.Name, err)
	}
	sess.advance(PhaseLoaded)
	if dropped > 0 {
		logger.WithField("bytes", dropped).Warn("invalid UTF-8 dropped during load")
	}
	logger.WithFields(log.Fields{"phase": sess.Phase, "rows": streamed}).Info("bulk load complete")

	if spec.HasIdentity() {
		if err := r.syncSequence(ctx, spec); err != nil {
			return sess.Result(StatusFail, err.Error()), fmt.Errorf("table %s: sync sequence: %w", spec.Name, err)
		}
	}
	sess.advance(PhaseSequenceSynced)

	srcCount, dstCount, err := r.VerifyCounts(ctx, spec.Name)
	if err != nil {
		return sess.Result(StatusFail, err.Error()), fmt.Errorf("table %s: verify: %w", spec.Name, err)
	}
	sess.SourceRows = srcCount
	sess.DestRows = dstCount
	sess.advance(PhaseVerified)

	if srcCount != dstCount {
		logger.WithFields(log.Fields{"source": srcCount, "dest": dstCount}).Warn("row count mismatch")
		return sess.Result(StatusWarn, fmt.Sprintf("source has %d rows, destination has %d", srcCount, dstCount)), nil
	}
	return sess.Result(StatusPass, ""), nil
}

// provision ensures schema, table and sequence exist, dropping any prior
// table of the same name first. DDL errors are fatal; a half-created
// schema is left for the operator to inspect.
func (r *Runner) provision(ctx context.Context, spec schema.TableSpec) error {
	ddl := []string{
		r.pg.CreateSchemaDDL(r.DestSchema),
		r.pg.DropTableDDL(r.DestSchema, spec.Name),
		r.pg.CreateTableDDL(r.DestSchema, spec),
	}
	if spec.HasIdentity() {
		ddl = append(ddl,
			r.pg.CreateSequenceDDL(r.DestSchema, spec),
			r.pg.SetDefaultDDL(r.DestSchema, spec),
		)
	}
	for _, stmt := range ddl {
		if _, err := r.Dest.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%q: %w", stmt, err)
		}
	}
	return nil
}

// syncSequence sets the sequence past the maximum loaded key so future
// default-generated inserts cannot collide. Must run after the stream
// completes; earlier would capture a stale bound.
func (r *Runner) syncSequence(ctx context.Context, spec schema.TableSpec) error {
	_, err := r.Dest.Exec(ctx, r.pg.SyncSequenceQuery(r.DestSchema, spec))
	return err
}

// VerifyCounts runs independent full-table counts on both sides. This
// checks completeness, not byte fidelity; fidelity is deliberately traded
// away by the sanitizer.
func (r *Runner) VerifyCounts(ctx context.Context, table string) (src, dst int64, err error) {
	if err := r.Source.QueryRowContext(ctx, r.my.CountQuery(table)).Scan(&src); err != nil {
		return 0, 0, fmt.Errorf("source count: %w", err)
	}
	if err := r.Dest.QueryRow(ctx, r.pg.CountQuery(r.DestSchema, table)).Scan(&dst); err != nil {
		return 0, 0, fmt.Errorf("destination count: %w", err)
	}
	return src, dst, nil
}

// Ping checks both endpoints before any schema mutation. A refused
// connection must fail the run before DDL is issued.
func (r *Runner) Ping(ctx context.Context) error {
	if err := r.Source.PingContext(ctx); err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}
	if err := r.Dest.Ping(ctx); err != nil {
		return fmt.Errorf("destination unreachable: %w", err)
	}
	return nil
}
