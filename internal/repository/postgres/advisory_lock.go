package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1)`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1)`
)

type AdvisoryLocker struct {
	DB *gorm.DB
}

func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{DB: db}
}

// TryAdvisoryLock takes a session-level postgres advisory lock on a dedicated
// connection. The returned unlock func releases both.
func (l *AdvisoryLocker) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	sqlDB, err := l.DB.DB()
	if err != nil {
		return nil, false, fmt.Errorf("get sql db: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// unlock is best effort; closing the connection drops the lock anyway
		_, _ = conn.ExecContext(ctxUnlock, advisoryUnlockSQL, key)
		_ = conn.Close()
	}
	return unlock, true, nil
}
