package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres"
)

func newMockConn(t *testing.T) pgxmock.PgxConnIface {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close(context.Background()) })
	return mock
}

func TestRunInTx_Commit(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM word`).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, postgres.InTx(ctx))
		_, err := postgres.QuerierFromCtx(ctx, mock).Exec(ctx, `DELETE FROM word WHERE type = 'P'`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	fnErr := errors.New("boom")
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return fnErr
	})
	require.ErrorIs(t, err, fnErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			panic("kaboom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_BeginError(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection lost"))

	called := false
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.False(t, called)
}

func TestRunInTx_Nested(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)
	tm := postgres.NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectCommit()

	inner := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return tm.RunInTx(ctx, func(ctx context.Context) error {
			inner++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerierFromCtx_Fallback(t *testing.T) {
	t.Parallel()
	mock := newMockConn(t)

	assert.False(t, postgres.InTx(context.Background()))
	assert.Equal(t, postgres.Querier(mock), postgres.QuerierFromCtx(context.Background(), mock))
}
