package txn

/*
Until a transaction is committed it may still be rolled back.
Puts and Removes record which nodes it touched so the pool can tell whether the
current phase holds anything worth preparing and report it.
*/

// RecordPut notes that node gained a value.
func (txn *Transaction) RecordPut(node int64) {
	txn.Puts = append(txn.Puts, node)
}

// RecordRemove notes that node lost its value.
func (txn *Transaction) RecordRemove(node int64) {
	txn.Removes = append(txn.Removes, node)
}

// Empty reports whether the transaction changed nothing.
func (txn *Transaction) Empty() bool {
	return len(txn.Puts) == 0 && len(txn.Removes) == 0
}

// Rollback discards the prepared transaction (if any) and the active one.
// It returns the transaction that was prepared, nil when nothing was.
func (tm *TxnManager) Rollback() (*Transaction, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var prepared *Transaction
	switch tm.state {
	case PoolPrepared:
		prepared = tm.prepared
		prepared.State = TxnAborted
		tm.prepared = nil
	case PoolActive:
	default:
		return nil, tm.violation("rollback")
	}
	tm.active.State = TxnAborted
	tm.active = tm.begin(tm.committed + 1)
	tm.state = PoolActive
	return prepared, nil
}
