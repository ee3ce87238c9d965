package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// NewWithDB constructs a SQLite store backed directly by database/sql and
// creates the schema if it does not exist.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &liteStore{db: db}, nil
}

type liteStore struct{ db *sql.DB }

func (s *liteStore) Users() store.Users         { return &users{db: s.db} }
func (s *liteStore) Calls() store.Calls         { return &calls{db: s.db} }
func (s *liteStore) Tasks() store.Tasks         { return &tasks{db: s.db} }
func (s *liteStore) Reminders() store.Reminders { return &reminders{db: s.db} }
func (s *liteStore) Tokens() store.Tokens       { return &tokens{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            display_name TEXT,
            time_zone TEXT NOT NULL,
            phone_number TEXT,
            call_time TEXT,
            calendar_id TEXT,
            calendar_connected INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            creation_time TIMESTAMP NOT NULL,
            last_active_time TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS scheduled_calls (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(user_id),
            scheduled_at TIMESTAMP NOT NULL,
            status TEXT NOT NULL,
            retry_count INTEGER NOT NULL DEFAULT 0,
            error_message TEXT,
            call_sid TEXT,
            conversation_id TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_calls_due
            ON scheduled_calls(status, scheduled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_calls_user
            ON scheduled_calls(user_id, scheduled_at);`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            user_id TEXT,
            title TEXT NOT NULL,
            due TIMESTAMP NOT NULL,
            time_zone TEXT NOT NULL,
            status TEXT NOT NULL,
            reminder_minutes_before INTEGER NOT NULL DEFAULT 0,
            call_sid TEXT,
            conversation_id TEXT,
            source TEXT NOT NULL,
            error_message TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_conversation
            ON tasks(conversation_id);`,
		`CREATE TABLE IF NOT EXISTS reminders (
            id TEXT PRIMARY KEY,
            task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            fire_at TIMESTAMP NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due
            ON reminders(status, fire_at);`,
		`CREATE TABLE IF NOT EXISTS oauth_tokens (
            user_id TEXT PRIMARY KEY REFERENCES users(user_id),
            token TEXT NOT NULL,
            update_time TIMESTAMP NOT NULL
        );`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

// guarded runs a conditional UPDATE and maps an empty result to
// ErrAlreadyClaimed or ErrNotFound depending on whether the row exists.
func guarded(ctx context.Context, db *sql.DB, update string, updateArgs []interface{}, existsQuery string, existsArgs ...interface{}) error {
	res, err := db.ExecContext(ctx, update, updateArgs...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, existsQuery, existsArgs...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	return model.ErrAlreadyClaimed
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	status := m.Status
	if status == "" {
		status = "ACTIVE"
	}
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, phone_number, call_time,
                           calendar_id, calendar_connected, status, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, m.UserID, m.Email, m.DisplayName, m.TimeZone, m.PhoneNumber, m.CallTime,
		m.CalendarID, m.CalendarConnected, status, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.Status = status
	out.CreationTime = now
	return &out, nil
}

const userColumns = `user_id, email, display_name, time_zone, phone_number, call_time,
        calendar_id, calendar_connected, status, creation_time, last_active_time`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	var out model.User
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone,
		&out.PhoneNumber, &out.CallTime, &out.CalendarID, &out.CalendarConnected,
		&out.Status, &out.CreationTime, &out.LastActiveTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=?`, userID)
	out, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (u *users) UpdateCallSettings(ctx context.Context, userID string, s model.CallSettings) (*model.User, error) {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET
            phone_number = COALESCE(?, phone_number),
            call_time = COALESCE(?, call_time),
            time_zone = COALESCE(?, time_zone),
            calendar_id = COALESCE(?, calendar_id),
            calendar_connected = COALESCE(?, calendar_connected)
        WHERE user_id=?
    `, s.PhoneNumber, s.CallTime, s.TimeZone, s.CalendarID, s.CalendarConnected, userID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, model.ErrNotFound
	}
	return u.Get(ctx, userID)
}

func (u *users) ListCallCandidates(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT `+userColumns+` FROM users
        WHERE call_time IS NOT NULL AND call_time != ''
          AND time_zone != ''
          AND phone_number IS NOT NULL AND phone_number != ''
          AND calendar_connected = 1
          AND status = 'ACTIVE'
        ORDER BY user_id
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.User
	for rows.Next() {
		m, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Scheduled calls ---

type calls struct{ db *sql.DB }

const callColumns = `id, user_id, scheduled_at, status, retry_count, error_message,
        call_sid, conversation_id, created_at, updated_at`

func scanCall(row interface{ Scan(...interface{}) error }) (*model.ScheduledCall, error) {
	var out model.ScheduledCall
	if err := row.Scan(&out.ID, &out.UserID, &out.ScheduledAt, &out.Status, &out.RetryCount,
		&out.ErrorMessage, &out.CallSID, &out.ConversationID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *calls) Create(ctx context.Context, m *model.ScheduledCall) (*model.ScheduledCall, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO scheduled_calls (id, user_id, scheduled_at, status, retry_count, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?)
    `, id, m.UserID, m.ScheduledAt.UTC(), model.CallStatusScheduled, m.RetryCount, now, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.Status = model.CallStatusScheduled
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (c *calls) Get(ctx context.Context, callID string) (*model.ScheduledCall, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM scheduled_calls WHERE id=?`, callID)
	out, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (c *calls) GetByConversationID(ctx context.Context, conversationID string) (*model.ScheduledCall, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM scheduled_calls WHERE conversation_id=?`, conversationID)
	out, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (c *calls) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+callColumns+` FROM scheduled_calls
        WHERE user_id=? ORDER BY scheduled_at DESC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectCalls(rows)
}

func (c *calls) Due(ctx context.Context, from, to time.Time) ([]*model.ScheduledCall, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT `+callColumns+` FROM scheduled_calls
        WHERE status=? AND scheduled_at >= ? AND scheduled_at < ?
        ORDER BY scheduled_at ASC
    `, model.CallStatusScheduled, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectCalls(rows)
}

func (c *calls) ExistsForUserBetween(ctx context.Context, userID string, from, to time.Time) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, `
        SELECT 1 FROM scheduled_calls
        WHERE user_id=? AND status != ? AND scheduled_at >= ? AND scheduled_at < ?
        LIMIT 1
    `, userID, model.CallStatusFailed, from.UTC(), to.UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *calls) Claim(ctx context.Context, t model.CallClaim) error {
	return guarded(ctx, c.db,
		`UPDATE scheduled_calls SET status=?, updated_at=? WHERE id=? AND status=?`,
		[]interface{}{model.CallStatusInProgress, time.Now().UTC(), t.CallID, model.CallStatusScheduled},
		`SELECT 1 FROM scheduled_calls WHERE id=?`, t.CallID)
}

func (c *calls) Complete(ctx context.Context, t model.CallCompletion) error {
	return guarded(ctx, c.db,
		`UPDATE scheduled_calls SET status=?, call_sid=?, conversation_id=?, updated_at=?
         WHERE id=? AND status=?`,
		[]interface{}{model.CallStatusCompleted, t.CallSID, t.ConversationID, time.Now().UTC(),
			t.CallID, model.CallStatusInProgress},
		`SELECT 1 FROM scheduled_calls WHERE id=?`, t.CallID)
}

func (c *calls) Fail(ctx context.Context, t model.CallFailure) error {
	return guarded(ctx, c.db,
		`UPDATE scheduled_calls SET status=?, error_message=?, updated_at=?
         WHERE id=? AND status=?`,
		[]interface{}{model.CallStatusFailed, t.ErrorMessage, time.Now().UTC(),
			t.CallID, model.CallStatusInProgress},
		`SELECT 1 FROM scheduled_calls WHERE id=?`, t.CallID)
}

func collectCalls(rows *sql.Rows) ([]*model.ScheduledCall, error) {
	var out []*model.ScheduledCall
	for rows.Next() {
		m, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Tasks ---

type tasks struct{ db *sql.DB }

const taskColumns = `id, user_id, title, due, time_zone, status, reminder_minutes_before,
        call_sid, conversation_id, source, error_message, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*model.Task, error) {
	var out model.Task
	if err := row.Scan(&out.ID, &out.UserID, &out.Title, &out.Due, &out.TimeZone, &out.Status,
		&out.ReminderMinutesBefore, &out.CallSID, &out.ConversationID, &out.Source,
		&out.ErrorMessage, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *tasks) Create(ctx context.Context, m *model.Task) (*model.Task, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	source := m.Source
	if source == "" {
		source = "api"
	}
	now := time.Now().UTC()
	_, err := t.db.ExecContext(ctx, `
        INSERT INTO tasks (id, user_id, title, due, time_zone, status, reminder_minutes_before,
                           source, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, id, m.UserID, m.Title, m.Due.UTC(), m.TimeZone, model.TaskStatusScheduled,
		m.ReminderMinutesBefore, source, now, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.Status = model.TaskStatusScheduled
	out.Source = source
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

func (t *tasks) Get(ctx context.Context, taskID string) (*model.Task, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, taskID)
	out, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (t *tasks) GetByConversationID(ctx context.Context, conversationID string) (*model.Task, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE conversation_id=? ORDER BY updated_at DESC LIMIT 1`,
		conversationID)
	out, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (t *tasks) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.db.QueryContext(ctx, `
        SELECT `+taskColumns+` FROM tasks WHERE user_id=? ORDER BY due ASC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Task
	for rows.Next() {
		m, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tasks) Delete(ctx context.Context, taskID string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, taskID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *tasks) Claim(ctx context.Context, tr model.TaskClaim) error {
	return guarded(ctx, t.db,
		`UPDATE tasks SET status=?, updated_at=? WHERE id=? AND status=?`,
		[]interface{}{model.TaskStatusCalling, time.Now().UTC(), tr.TaskID, model.TaskStatusScheduled},
		`SELECT 1 FROM tasks WHERE id=?`, tr.TaskID)
}

func (t *tasks) Complete(ctx context.Context, tr model.TaskCompletion) error {
	if tr.FromScheduled {
		return guarded(ctx, t.db,
			`UPDATE tasks SET status=?, updated_at=? WHERE id=? AND status IN (?,?)`,
			[]interface{}{model.TaskStatusCompleted, time.Now().UTC(), tr.TaskID,
				model.TaskStatusCalling, model.TaskStatusScheduled},
			`SELECT 1 FROM tasks WHERE id=?`, tr.TaskID)
	}
	return guarded(ctx, t.db,
		`UPDATE tasks SET status=?, updated_at=? WHERE id=? AND status=?`,
		[]interface{}{model.TaskStatusCompleted, time.Now().UTC(), tr.TaskID, model.TaskStatusCalling},
		`SELECT 1 FROM tasks WHERE id=?`, tr.TaskID)
}

func (t *tasks) Fail(ctx context.Context, tr model.TaskFailure) error {
	return guarded(ctx, t.db,
		`UPDATE tasks SET status=?, error_message=?, updated_at=? WHERE id=? AND status=?`,
		[]interface{}{model.TaskStatusFailed, tr.ErrorMessage, time.Now().UTC(),
			tr.TaskID, model.TaskStatusCalling},
		`SELECT 1 FROM tasks WHERE id=?`, tr.TaskID)
}

func (t *tasks) SetCallInfo(ctx context.Context, tr model.TaskCallInfo) error {
	_, err := t.db.ExecContext(ctx,
		`UPDATE tasks SET call_sid=?, conversation_id=?, updated_at=? WHERE id=?`,
		tr.CallSID, tr.ConversationID, time.Now().UTC(), tr.TaskID)
	return err
}

func (t *tasks) Reschedule(ctx context.Context, tr model.TaskReschedule) (*model.Task, error) {
	var due interface{}
	if tr.Due != nil {
		utc := tr.Due.UTC()
		due = utc
	}
	err := guarded(ctx, t.db, `
        UPDATE tasks SET
            title = COALESCE(?, title),
            due = COALESCE(?, due),
            time_zone = COALESCE(?, time_zone),
            reminder_minutes_before = COALESCE(?, reminder_minutes_before),
            updated_at = ?
        WHERE id=? AND status=?`,
		[]interface{}{tr.Title, due, tr.TimeZone, tr.ReminderMinutesBefore,
			time.Now().UTC(), tr.TaskID, model.TaskStatusScheduled},
		`SELECT 1 FROM tasks WHERE id=?`, tr.TaskID)
	if errors.Is(err, model.ErrAlreadyClaimed) {
		return nil, fmt.Errorf("task %s is no longer editable: %w", tr.TaskID, model.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, tr.TaskID)
}

// --- Reminders ---

type reminders struct{ db *sql.DB }

func (r *reminders) Create(ctx context.Context, m *model.Reminder) (*model.Reminder, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reminders (id, task_id, fire_at, status, created_at)
        VALUES (?,?,?,?,?)
    `, id, m.TaskID, m.FireAt.UTC(), model.ReminderStatusPending, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.Status = model.ReminderStatusPending
	out.CreatedAt = now
	return &out, nil
}

func (r *reminders) Due(ctx context.Context, asOf time.Time) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, task_id, fire_at, status, created_at FROM reminders
        WHERE status=? AND fire_at <= ?
        ORDER BY fire_at ASC
    `, model.ReminderStatusPending, asOf.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Reminder
	for rows.Next() {
		var m model.Reminder
		if err := rows.Scan(&m.ID, &m.TaskID, &m.FireAt, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *reminders) mark(ctx context.Context, reminderID string, to model.ReminderStatus) error {
	return guarded(ctx, r.db,
		`UPDATE reminders SET status=? WHERE id=? AND status=?`,
		[]interface{}{to, reminderID, model.ReminderStatusPending},
		`SELECT 1 FROM reminders WHERE id=?`, reminderID)
}

func (r *reminders) MarkFired(ctx context.Context, reminderID string) error {
	return r.mark(ctx, reminderID, model.ReminderStatusFired)
}

func (r *reminders) MarkSkipped(ctx context.Context, reminderID string) error {
	return r.mark(ctx, reminderID, model.ReminderStatusSkipped)
}

func (r *reminders) MarkFailed(ctx context.Context, reminderID string) error {
	return r.mark(ctx, reminderID, model.ReminderStatusFailed)
}

func (r *reminders) DeletePendingForTask(ctx context.Context, taskID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE task_id=? AND status=?`, taskID, model.ReminderStatusPending)
	return err
}

// --- OAuth tokens ---

type tokens struct{ db *sql.DB }

func (t *tokens) Get(ctx context.Context, userID string) (*oauth2.Token, error) {
	var raw []byte
	err := t.db.QueryRowContext(ctx,
		`SELECT token FROM oauth_tokens WHERE user_id=?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &tok, nil
}

func (t *tokens) Save(ctx context.Context, userID string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, `
        INSERT INTO oauth_tokens (user_id, token, update_time) VALUES (?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET token=excluded.token, update_time=excluded.update_time
    `, userID, raw, time.Now().UTC())
	return err
}
