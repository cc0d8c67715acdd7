package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meristem/authcore/pkg/database"
	"github.com/meristem/authcore/pkg/utilities"
)

// Store is the persistence surface Recorder needs.
type Store interface {
	Insert(ctx context.Context, q database.Querier, e *Entry) error
}

// Recorder writes audit entries inside the caller's transaction. Recording is
// best-effort: a failed insert is logged and swallowed so bookkeeping can
// never turn an authorized mutation into a failure.
type Recorder struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewRecorder(store Store, logger *zap.SugaredLogger) *Recorder {
	if store == nil {
		store = NewRepo()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Recorder{store: store, logger: logger}
}

// Record appends one allowed/denied entry for the user and action.
func (r *Recorder) Record(ctx context.Context, q database.Querier, userID uuid.UUID, action, status string) {
	e := &Entry{
		ID:        utilities.NewKSUID(),
		RequestID: utilities.NewSnowflakeID(),
		UserID:    userID,
		Action:    action,
		Status:    status,
		At:        time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, q, e); err != nil {
		r.logger.Warnw("audit insert failed", "action", action, "user_id", userID, "err", err)
		return
	}
	r.logger.Debugw("audit", "action", action, "user_id", userID, "status", status)
}
