package txn

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolOrder(t *testing.T) {
	tm := NewTxnManager()

	assert.ErrorIs(t, tm.CheckMutable(), ErrProtocolViolation)
	_, err := tm.BeginPrepare()
	assert.ErrorIs(t, err, ErrProtocolViolation)

	require.NoError(t, tm.Clear(0))
	assert.ErrorIs(t, tm.Clear(0), ErrProtocolViolation)
	assert.ErrorIs(t, tm.Recover(), ErrProtocolViolation)
	require.NoError(t, tm.CheckMutable())

	_, err = tm.BeginCommit()
	assert.ErrorIs(t, err, ErrCommitWithoutPrepare)

	txn, err := tm.BeginPrepare()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), txn.Phase)
	tm.Prepared()

	_, err = tm.BeginPrepare()
	assert.ErrorIs(t, err, ErrDoublePrepare)
	assert.True(t, errors.Is(err, ErrProtocolViolation))
	require.NoError(t, tm.CheckMutable())
	assert.Equal(t, uint32(2), tm.Active().Phase)

	_, err = tm.BeginCommit()
	require.NoError(t, err)
	done := tm.Committed()
	assert.Equal(t, TxnCommitted, done.State)

	phase, ok := tm.CommittedPhase()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), phase)

	_, err = tm.BeginCommit()
	assert.ErrorIs(t, err, ErrCommitWithoutPrepare)
}

func TestRecoverThenSelect(t *testing.T) {
	tm := NewTxnManager()
	assert.ErrorIs(t, tm.Select(3), ErrProtocolViolation)

	require.NoError(t, tm.Recover())
	assert.ErrorIs(t, tm.CheckMutable(), ErrProtocolViolation)
	require.NoError(t, tm.Select(3))
	assert.Equal(t, PoolActive, tm.State())
	assert.Equal(t, uint32(4), tm.Active().Phase)
}

func TestClearAfterEmptyRecovery(t *testing.T) {
	tm := NewTxnManager()
	require.NoError(t, tm.Recover())
	require.NoError(t, tm.Clear(0))
	assert.Equal(t, PoolActive, tm.State())
	assert.ErrorIs(t, tm.Recover(), ErrProtocolViolation)
}

func TestRollback(t *testing.T) {
	tm := NewTxnManager()
	require.NoError(t, tm.Clear(5))
	tm.Active().RecordPut(11)
	assert.False(t, tm.Active().Empty())

	_, err := tm.BeginPrepare()
	require.NoError(t, err)
	tm.Prepared()

	prepared, err := tm.Rollback()
	require.NoError(t, err)
	require.NotNil(t, prepared)
	assert.Equal(t, TxnAborted, prepared.State)
	assert.Equal(t, uint32(6), prepared.Phase)
	assert.Equal(t, uint32(6), tm.Active().Phase)
	assert.True(t, tm.Active().Empty())

	prepared, err = tm.Rollback()
	require.NoError(t, err)
	assert.Nil(t, prepared)
}

func TestClosedRejectsEverything(t *testing.T) {
	tm := NewTxnManager()
	require.NoError(t, tm.Clear(0))
	tm.Close()
	assert.ErrorIs(t, tm.CheckMutable(), ErrClosed)
	_, err := tm.Rollback()
	assert.ErrorIs(t, err, ErrClosed)
}
