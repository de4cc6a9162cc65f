package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/syssam/recordkit/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := map[string]StmtKind{
		"SELECT * FROM `orders`":                 StmtSelect,
		"  select 1":                             StmtSelect,
		"INSERT INTO `orders` (`id`) VALUES (1)": StmtInsert,
		"UPDATE `orders` SET `a` = 1":            StmtUpdate,
		"DELETE FROM `orders`":                   StmtDelete,
		"TRUNCATE TABLE `orders`":                StmtTruncate,
		"PRAGMA foreign_keys = ON":               StmtOther,
		"":                                       StmtOther,
	}
	for query, want := range tests {
		assert.Equal(t, want, KindOf(query), query)
	}
	assert.Equal(t, "delete", StmtDelete.String())
	assert.Equal(t, "other", StmtKind(42).String())
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db),
		WithSlowThreshold(-1),
		WithSlowQueryLog(logger),
	)
	assert.Equal(t, dialect.MySQL, drv.Dialect())
	ctx := context.Background()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("INSERT").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE").WillReturnError(errors.New("boom"))

	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, "SELECT * FROM `orders`", nil, rows))
	require.NoError(t, rows.Close())
	require.Error(t, drv.Exec(ctx, "INSERT INTO `orders` (`id`) VALUES (1)", nil, nil))
	require.NoError(t, drv.Exec(ctx, "DELETE FROM `orders`", nil, nil))
	require.Error(t, drv.Exec(ctx, "DELETE FROM `orders`", nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.Count(StmtSelect))
	assert.Equal(t, int64(1), s.Count(StmtInsert))
	assert.Equal(t, int64(2), s.Count(StmtDelete))
	assert.Equal(t, int64(0), s.Count(StmtUpdate))
	assert.Equal(t, int64(4), s.Total())
	assert.Equal(t, int64(2), s.Failed)
	assert.Equal(t, int64(1), s.Constraints)
	assert.Equal(t, int64(4), s.Slow)
	assert.Contains(t, s.String(), "select=1 insert=1 update=0 delete=2 truncate=0 other=0 failed=2 constraint=1 slow=4")
	assert.Contains(t, buf.String(), "slow statement")
	assert.Contains(t, buf.String(), "kind=delete")

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Stats())
	assert.Equal(t, time.Duration(0), StatsSnapshot{}.AvgDuration())
}

func TestStatsDriverThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(time.Hour),
		WithSlowQueryLog(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "UPDATE `orders` SET `a` = 1", nil, nil))

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.Count(StmtUpdate))
	assert.Zero(t, s.Slow)
	assert.Empty(t, buf.String())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db), logger)

	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "UPDATE `t` SET `a` = 1", nil, nil))
	assert.Contains(t, buf.String(), "UPDATE `t` SET `a` = 1")
	assert.Contains(t, buf.String(), "kind=update")
	require.NoError(t, mock.ExpectationsWereMet())
}
