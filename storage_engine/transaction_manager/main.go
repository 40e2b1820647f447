package txn

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

/*
Transaction manager tracks the protocol a pool follows and rejects calls made out of order:

	Uninitialized --Clear--> Active
	Uninitialized --Recover--> Recovering --Select--> Active
	Active --Prepare--> Prepared --Commit--> Active
	Prepared --Rollback--> Active
	any --Close--> Closed

Mutations are accepted while Active or Prepared. After a prepare they belong to the next transaction.
*/

var (
	ErrProtocolViolation    = errors.New("protocol violation")
	ErrDoublePrepare        = errors.Wrap(ErrProtocolViolation, "already prepared")
	ErrCommitWithoutPrepare = errors.Wrap(ErrProtocolViolation, "commit without prepare")
	ErrClosed               = errors.New("pool closed")
)

func NewTxnManager() *TxnManager {
	return &TxnManager{nextID: 1}
}

func (tm *TxnManager) begin(phase uint32) *Transaction {
	txnID := atomic.AddUint64(&tm.nextID, 1) - 1
	return &Transaction{ID: txnID, State: TxnActive, Phase: phase}
}

func (tm *TxnManager) violation(op string) error {
	if tm.state == PoolClosed {
		return ErrClosed
	}
	return errors.Wrapf(ErrProtocolViolation, "%s while %s", op, tm.state)
}

// Clear starts a pool from nothing at phase.
func (tm *TxnManager) Clear(phase uint32) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	// a recovery that found nothing worth selecting may start over
	if tm.state != PoolUninitialized && tm.state != PoolRecovering {
		return tm.violation("clear")
	}
	tm.state = PoolActive
	tm.committed = phase
	tm.anyCommit = false
	tm.active = tm.begin(phase + 1)
	return nil
}

// Recover marks the metaroots as read. Only valid before any phase exists.
func (tm *TxnManager) Recover() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.state != PoolUninitialized && tm.state != PoolRecovering {
		return tm.violation("recover")
	}
	tm.state = PoolRecovering
	return nil
}

// Select resumes from committed phase phase.
func (tm *TxnManager) Select(phase uint32) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.state != PoolRecovering {
		return tm.violation("select phase")
	}
	tm.state = PoolActive
	tm.committed = phase
	tm.anyCommit = true
	tm.active = tm.begin(phase + 1)
	return nil
}

// CheckMutable fails unless mutations are currently allowed.
func (tm *TxnManager) CheckMutable() error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.state != PoolActive && tm.state != PoolPrepared {
		return tm.violation("mutation")
	}
	return nil
}

// CheckReadable fails when the pool has no phase to read from.
func (tm *TxnManager) CheckReadable() error {
	return tm.CheckMutable()
}

// BeginPrepare returns the transaction about to be prepared.
func (tm *TxnManager) BeginPrepare() (*Transaction, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	switch tm.state {
	case PoolActive:
		return tm.active, nil
	case PoolPrepared:
		return nil, errors.Wrapf(ErrDoublePrepare, "phase %d", tm.prepared.Phase)
	}
	return nil, tm.violation("prepare")
}

// Prepared records that the active transaction is durable but not yet committed.
// Later mutations go to a new transaction for the phase after it.
func (tm *TxnManager) Prepared() *Transaction {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.prepared = tm.active
	tm.prepared.State = TxnPrepared
	tm.active = tm.begin(tm.prepared.Phase + 1)
	tm.state = PoolPrepared
	return tm.prepared
}

// BeginCommit returns the prepared transaction.
func (tm *TxnManager) BeginCommit() (*Transaction, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.state == PoolPrepared {
		return tm.prepared, nil
	}
	if tm.state == PoolActive {
		return nil, ErrCommitWithoutPrepare
	}
	return nil, tm.violation("commit")
}

// Committed promotes the prepared transaction.
func (tm *TxnManager) Committed() *Transaction {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	t := tm.prepared
	t.State = TxnCommitted
	tm.committed = t.Phase
	tm.anyCommit = true
	tm.prepared = nil
	tm.state = PoolActive
	return t
}

// Close makes every later call fail with ErrClosed.
func (tm *TxnManager) Close() {
	tm.mu.Lock()
	tm.state = PoolClosed
	tm.mu.Unlock()
}

func (tm *TxnManager) State() PoolState {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.state
}

// Committed phase number, and whether any phase has been committed or selected.
func (tm *TxnManager) CommittedPhase() (uint32, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.committed, tm.anyCommit
}

// Active returns the transaction collecting mutations, nil before Clear or Select.
func (tm *TxnManager) Active() *Transaction {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.active
}
