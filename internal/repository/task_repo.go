package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOpenTaskExists maps the partial unique index on (user_id, offer_id)
// for non-terminal tasks.
var ErrOpenTaskExists = errors.New("open task already exists for this offer")

const pgUniqueViolation = "23505"

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, offer_id, session_token, status, payout_nano,
	postback_payload, postback_received_at, started_at, completed_at, approved_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var payload []byte
	err := row.Scan(&t.ID, &t.UserID, &t.OfferID, &t.SessionToken, &t.Status, &t.PayoutNano,
		&payload, &t.PostbackReceivedAt, &t.StartedAt, &t.CompletedAt, &t.ApprovedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &t.PostbackPayload)
	}
	return &t, nil
}

// Create inserts a STARTED task. The store-level partial unique index is
// the authority on the one-open-task-per-offer rule; a unique violation
// is surfaced as ErrOpenTaskExists.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (user_id, offer_id, session_token, status, payout_nano)
		VALUES ($1, $2, $3, 'STARTED', $4)
		RETURNING id, started_at
	`, t.UserID, t.OfferID, t.SessionToken, t.PayoutNano).Scan(&t.ID, &t.StartedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrOpenTaskExists
		}
		return err
	}
	t.Status = domain.TaskStarted
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (r *TaskRepository) GetBySessionToken(ctx context.Context, token string) (*domain.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE session_token = $1`, token))
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// RecordPostback stores the raw payload and receipt time and moves the
// task to PENDING or REJECTED. Compare-and-swap on the non-terminal
// states: returns false when the task was already terminal.
func (r *TaskRepository) RecordPostback(ctx context.Context, taskID int64, payload map[string]string, to domain.TaskStatus) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE tasks SET postback_payload = $2, postback_received_at = NOW(),
			completed_at = COALESCE(completed_at, NOW()), status = $3
		WHERE id = $1 AND status IN ('STARTED', 'PENDING')
	`, taskID, raw, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApproveTx transitions a task to APPROVED inside the caller's
// transaction. Compare-and-swap: exactly one concurrent caller observes
// true, all others false.
func (r *TaskRepository) ApproveTx(ctx context.Context, tx pgx.Tx, taskID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = 'APPROVED', approved_at = NOW(),
			completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1 AND status IN ('STARTED', 'PENDING')
	`, taskID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompletedCountSince counts APPROVED or postback-completed tasks in the
// trailing window, used for velocity signals.
func (r *TaskRepository) CompletedCountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE user_id = $1 AND completed_at >= $2
	`, userID, since).Scan(&n)
	return n, err
}

// RecentCompletionDurations returns completed-minus-started durations of
// the user's most recent completed tasks, newest first.
func (r *TaskRepository) RecentCompletionDurations(ctx context.Context, userID int64, limit int) ([]time.Duration, error) {
	rows, err := r.db.Query(ctx, `
		SELECT started_at, completed_at FROM tasks
		WHERE user_id = $1 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var durations []time.Duration
	for rows.Next() {
		var started, completed time.Time
		if err := rows.Scan(&started, &completed); err != nil {
			return nil, err
		}
		durations = append(durations, completed.Sub(started))
	}
	return durations, rows.Err()
}
