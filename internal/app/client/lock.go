package client

import "sync/atomic"

// SyncLock не допускает одновременных проходов синхронизации.
// Idle -> Locked -> Idle; повторный захват возвращает false без побочных эффектов.
type SyncLock struct {
	locked atomic.Bool
}

// TryAcquire захватывает блокировку, если она свободна
func (l *SyncLock) TryAcquire() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Release освобождает блокировку; повторный вызов ничего не делает
func (l *SyncLock) Release() {
	l.locked.Store(false)
}

func (l *SyncLock) Locked() bool {
	return l.locked.Load()
}
