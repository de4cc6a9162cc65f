package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql/sqlgraph"
)

// StmtKind is the kind of a statement, taken from its leading keyword.
type StmtKind int

// Statement kinds issued by the record engine.
const (
	StmtSelect StmtKind = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtTruncate
	StmtOther
	numStmtKinds
)

var stmtKindNames = [numStmtKinds]string{"select", "insert", "update", "delete", "truncate", "other"}

func (k StmtKind) String() string {
	if k < 0 || k >= numStmtKinds {
		return stmtKindNames[StmtOther]
	}
	return stmtKindNames[k]
}

// KindOf returns the kind of query.
func KindOf(query string) StmtKind {
	verb := strings.TrimSpace(query)
	if i := strings.IndexAny(verb, " \t\r\n("); i >= 0 {
		verb = verb[:i]
	}
	switch strings.ToUpper(verb) {
	case "SELECT":
		return StmtSelect
	case "INSERT", "REPLACE":
		return StmtInsert
	case "UPDATE":
		return StmtUpdate
	case "DELETE":
		return StmtDelete
	case "TRUNCATE":
		return StmtTruncate
	}
	return StmtOther
}

// QueryStats counts the statements run through a StatsDriver. It is safe
// for concurrent use.
type QueryStats struct {
	kinds       [numStmtKinds]atomic.Int64
	failed      atomic.Int64
	constraints atomic.Int64
	slow        atomic.Int64
	elapsed     atomic.Int64 // nanoseconds
}

// Stats returns a snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		Failed:      s.failed.Load(),
		Constraints: s.constraints.Load(),
		Slow:        s.slow.Load(),
		Elapsed:     time.Duration(s.elapsed.Load()),
	}
	for k := range s.kinds {
		snap.Kinds[k] = s.kinds[k].Load()
	}
	return snap
}

// Reset zeroes the counters.
func (s *QueryStats) Reset() {
	for k := range s.kinds {
		s.kinds[k].Store(0)
	}
	s.failed.Store(0)
	s.constraints.Store(0)
	s.slow.Store(0)
	s.elapsed.Store(0)
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Kinds       [numStmtKinds]int64 // statements run, indexed by StmtKind
	Failed      int64               // statements the store rejected
	Constraints int64               // rejections caused by a constraint violation
	Slow        int64               // statements slower than the threshold
	Elapsed     time.Duration       // time spent in the store
}

// Count returns the number of statements of kind k.
func (s StatsSnapshot) Count(k StmtKind) int64 {
	if k < 0 || k >= numStmtKinds {
		return 0
	}
	return s.Kinds[k]
}

// Total returns the number of statements of any kind.
func (s StatsSnapshot) Total() int64 {
	var n int64
	for _, c := range s.Kinds {
		n += c
	}
	return n
}

// AvgDuration returns the mean statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	n := s.Total()
	if n == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(n)
}

// String formats the snapshot as space separated key=value pairs.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	for k, c := range s.Kinds {
		fmt.Fprintf(&b, "%s=%d ", StmtKind(k), c)
	}
	fmt.Fprintf(&b, "failed=%d constraint=%d slow=%d elapsed=%s avg=%s",
		s.Failed, s.Constraints, s.Slow, s.Elapsed, s.AvgDuration())
	return b.String()
}

// StatsDriver wraps a dialect.Driver and counts every statement by kind.
type StatsDriver struct {
	dialect.Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowLog       *slog.Logger
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement counts as
// slow. The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryLog logs slow statements to logger at warn level. A nil
// logger means slog.Default().
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return func(s *StatsDriver) {
		s.slowLog = logger
	}
}

// NewStatsDriver wraps drv with statement counters.
//
//	drv, _ := sql.Open(dialect.MySQL, dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(nil))
//	reg := recordkit.NewRegistry(stats)
//	...
//	fmt.Println(stats.QueryStats().Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the live counters.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// Query runs and counts a statement returning rows.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.observe(ctx, query, time.Since(start), err)
	return err
}

// Exec runs and counts a statement returning no rows.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.observe(ctx, query, time.Since(start), err)
	return err
}

func (d *StatsDriver) observe(ctx context.Context, query string, took time.Duration, err error) {
	kind := KindOf(query)
	d.stats.kinds[kind].Add(1)
	d.stats.elapsed.Add(int64(took))
	if err != nil {
		d.stats.failed.Add(1)
		if sqlgraph.Classify(err) != "" {
			d.stats.constraints.Add(1)
		}
	}
	if took > d.slowThreshold {
		d.stats.slow.Add(1)
		if d.slowLog != nil {
			d.slowLog.WarnContext(ctx, "slow statement", "kind", kind, "duration", took, "sql", query)
		}
	}
}

// DebugDriver wraps a Driver and logs every statement at debug level.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv with statement logging. A nil logger means
// slog.Default().
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Query logs and runs a statement returning rows.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "statement", "kind", KindOf(query), "sql", query)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and runs a statement returning no rows.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "statement", "kind", KindOf(query), "sql", query)
	return d.Driver.Exec(ctx, query, args, v)
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
