package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

const sessionColumns = `id, status, visitor_name, owner_operator_id, escalated, last_seq, last_activity_at, created_at`

// SessionRepository persists sessions in Postgres. Claim, Release, Close and
// CloseIdle are single conditional UPDATEs: the expected state is part of the
// WHERE clause, so two racing writers can never both succeed.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) CreateSession(ctx context.Context, sess *model.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_sessions (id, status, visitor_name, escalated, last_seq, last_activity_at, created_at)
		VALUES ($1, $2, $3, FALSE, 0, $4, $5)
	`, sess.ID, sess.Status, sess.VisitorName, sess.LastActivityAt, sess.CreatedAt)
	return err
}

func (r *SessionRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (r *SessionRepository) SetVisitorName(ctx context.Context, id, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions SET visitor_name = $2 WHERE id = $1 AND visitor_name = ''
	`, id, name)
	return err
}

func (r *SessionRepository) MarkEscalated(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions SET escalated = TRUE WHERE id = $1 AND status = 'bot'
	`, id)
	return err
}

func (r *SessionRepository) Claim(ctx context.Context, id, operatorID string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE chat_sessions
		SET status = 'human', owner_operator_id = $2, last_activity_at = NOW()
		WHERE id = $1 AND status = 'bot' AND owner_operator_id IS NULL
		RETURNING `+sessionColumns, id, operatorID)

	sess, err := scanSession(row)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}
	return nil, r.diagnoseClaimFailure(ctx, id)
}

// diagnoseClaimFailure re-reads the session to turn a lost conditional write
// into the right business error.
func (r *SessionRepository) diagnoseClaimFailure(ctx context.Context, id string) error {
	cur, err := r.GetSession(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case cur.Status == model.StatusClosed:
		return model.ErrSessionClosed
	case cur.OwnerOperatorID != nil:
		return &model.AlreadyClaimedError{OwnerOperatorID: *cur.OwnerOperatorID}
	default:
		return model.ErrAlreadyClaimed
	}
}

func (r *SessionRepository) Release(ctx context.Context, id, operatorID string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE chat_sessions
		SET status = 'bot', owner_operator_id = NULL, escalated = FALSE, last_activity_at = NOW()
		WHERE id = $1 AND status = 'human' AND owner_operator_id = $2
		RETURNING `+sessionColumns, id, operatorID)

	sess, err := scanSession(row)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}

	cur, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cur.Status {
	case model.StatusClosed:
		return nil, model.ErrSessionClosed
	case model.StatusHuman:
		return nil, model.ErrStaleOwner
	default:
		return nil, model.ErrInvalidTransition
	}
}

func (r *SessionRepository) CloseSession(ctx context.Context, id string) (*model.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE chat_sessions
		SET status = 'closed', owner_operator_id = NULL, last_activity_at = NOW()
		WHERE id = $1 AND status IN ('bot', 'human')
		RETURNING `+sessionColumns, id)

	sess, err := scanSession(row)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, model.ErrSessionNotFound) {
		return nil, err
	}

	cur, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}
	return nil, model.ErrInvalidTransition
}

func (r *SessionRepository) ListSessions(ctx context.Context, status *model.SessionStatus, limit int) ([]*model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT `+sessionColumns+` FROM chat_sessions
			WHERE status = $1
			ORDER BY last_activity_at DESC
			LIMIT $2
		`, *status, limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+sessionColumns+` FROM chat_sessions
			ORDER BY last_activity_at DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *SessionRepository) ListNeedingAttention(ctx context.Context, limit int) ([]*model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM chat_sessions
		WHERE status = 'human' OR (status = 'bot' AND escalated = TRUE)
		ORDER BY last_activity_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *SessionRepository) CloseIdle(ctx context.Context, cutoff time.Time) ([]*model.Session, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE chat_sessions
		SET status = 'closed', owner_operator_id = NULL
		WHERE status IN ('bot', 'human') AND last_activity_at < $1
		RETURNING `+sessionColumns, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.Status, &s.VisitorName, &s.OwnerOperatorID, &s.Escalated, &s.LastSeq, &s.LastActivityAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanSessions(rows pgx.Rows) ([]*model.Session, error) {
	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.Status, &s.VisitorName, &s.OwnerOperatorID, &s.Escalated, &s.LastSeq, &s.LastActivityAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
