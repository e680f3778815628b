package transfer

import (
	"time"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// Phase names one step of the per-table pipeline. A transfer moves
// strictly forward: Provisioned, Streaming (the sanitizer runs inside this
// phase), Loaded, SequenceSynced, Verified. Nothing is resumable; a
// failure before Loaded means the next run re-drops the table and starts
// over.
type Phase string

const (
	PhasePending        Phase = "pending"
	PhaseProvisioned    Phase = "provisioned"
	PhaseStreaming      Phase = "streaming"
	PhaseLoaded         Phase = "loaded"
	PhaseSequenceSynced Phase = "sequence_synced"
	PhaseVerified       Phase = "verified"
)

// Verification outcomes. A count mismatch is a warning, not a failure: the
// run finishes and the operator decides.
const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Session is the ephemeral state of one table transfer. It is created at
// invocation, populated as phases complete, and discarded once its report
// line is printed.
type Session struct {
	Table        schema.TableSpec
	Phase        Phase
	SourceRows   int64
	DestRows     int64
	StreamedRows int64
	DroppedBytes int64
	StartedAt    time.Time
	EndedAt      time.Time
}

func newSession(spec schema.TableSpec) *Session {
	return &Session{Table: spec, Phase: PhasePending, StartedAt: time.Now()}
}

func (s *Session) advance(p Phase) {
	s.Phase = p
}

func (s *Session) finish() {
	s.EndedAt = time.Now()
}

// Result converts the session into its report line.
func (s *Session) Result(status, errMsg string) schema.TransferResult {
	return schema.TransferResult{
		TableName:    s.Table.Name,
		SourceRows:   s.SourceRows,
		DestRows:     s.DestRows,
		DroppedBytes: s.DroppedBytes,
		Status:       status,
		ErrorMsg:     errMsg,
	}
}
