package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists runs, visited URLs, search quota, feedback, and
// evaluated snippets.
type PostgresStore struct {
	db       *sql.DB
	dailyCap int
}

var (
	_ ports.RunStore              = (*PostgresStore)(nil)
	_ ports.VisitedURLStore       = (*PostgresStore)(nil)
	_ ports.QuotaStore            = (*PostgresStore)(nil)
	_ ports.FeedbackStore         = (*PostgresStore)(nil)
	_ ports.EvaluatedSnippetStore = (*PostgresStore)(nil)
)

// Open connects to Postgres and wires connection pool limits.
func Open(dsn string, dailyCap int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return NewPostgresStore(db, dailyCap), nil
}

// NewPostgresStore wires an existing sql.DB.
func NewPostgresStore(db *sql.DB, dailyCap int) *PostgresStore {
	return &PostgresStore{db: db, dailyCap: dailyCap}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record.
func (s *PostgresStore) CreateRun(ctx context.Context, run domain.Run) error {
	query, args, err := psql.Insert("runs").
		Columns("id", "brand_id", "status", "started_at").
		Values(run.ID, run.BrandID, string(run.Status), run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert run: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (domain.Run, error) {
	query, args, err := psql.Select("id", "brand_id", "status", "started_at", "completed_at", "result", "error_message").
		From("runs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Run{}, fmt.Errorf("build select run: %w", err)
	}

	var (
		run         domain.Run
		status      string
		completedAt sql.NullTime
		result      []byte
		errMessage  sql.NullString
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&run.ID, &run.BrandID, &status, &run.StartedAt, &completedAt, &result, &errMessage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Run{}, ErrRunNotFound
		}
		return domain.Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMessage.Valid {
		run.ErrorMessage = errMessage.String
	}
	if len(result) > 0 {
		var payload domain.RunResult
		if err := json.Unmarshal(result, &payload); err != nil {
			return domain.Run{}, fmt.Errorf("decode run result: %w", err)
		}
		run.Result = &payload
	}

	return run, nil
}

// MarkRunning transitions the run to running.
func (s *PostgresStore) MarkRunning(ctx context.Context, id string) error {
	query, args, err := psql.Update("runs").
		Set("status", string(domain.StatusRunning)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// CompleteRun sets the terminal status, completion timestamp, and either
// the result payload or the error message in a single statement.
func (s *PostgresStore) CompleteRun(ctx context.Context, id string, status domain.RunStatus, result *domain.RunResult, errMessage string) error {
	update := psql.Update("runs").
		Set("status", string(status)).
		Set("completed_at", time.Now().UTC())

	if result != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode run result: %w", err)
		}
		update = update.Set("result", payload)
	}
	if errMessage != "" {
		update = update.Set("error_message", errMessage)
	}

	query, args, err := update.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build complete run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// IsVisited reports whether the URL was ever surfaced before.
func (s *PostgresStore) IsVisited(ctx context.Context, rawURL string) (bool, error) {
	query, args, err := psql.Select("1").
		From("visited_urls").
		Where(sq.Eq{"url": rawURL}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select visited: %w", err)
	}

	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query visited: %w", err)
	}
	return true, nil
}

// Record inserts a visited URL; a later sighting is simply a no-op.
func (s *PostgresStore) Record(ctx context.Context, visit domain.VisitedURL) error {
	query, args, err := psql.Insert("visited_urls").
		Columns("url", "domain", "last_visited").
		Values(visit.URL, visit.Domain, visit.LastVisited).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert visited: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert visited: %w", err)
	}
	return nil
}

// Reserve grants up to `requested` query slots against the daily cap and
// increments the day's counter by the grant in one transaction. The row
// lock makes concurrent reservations on the same date serialize instead
// of over-granting.
func (s *PostgresStore) Reserve(ctx context.Context, date time.Time, requested int) (int, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin quota tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO search_quota (quota_date, used) VALUES ($1, 0) ON CONFLICT (quota_date) DO NOTHING`,
		day,
	); err != nil {
		return 0, fmt.Errorf("ensure quota row: %w", err)
	}

	var used int
	if err := tx.QueryRowContext(ctx,
		`SELECT used FROM search_quota WHERE quota_date = $1 FOR UPDATE`,
		day,
	).Scan(&used); err != nil {
		return 0, fmt.Errorf("lock quota row: %w", err)
	}

	granted := s.dailyCap - used
	if granted < 0 {
		granted = 0
	}
	if granted > requested {
		granted = requested
	}

	if granted > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE search_quota SET used = used + $1 WHERE quota_date = $2`,
			granted, day,
		); err != nil {
			return 0, fmt.Errorf("increment quota: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit quota tx: %w", err)
	}
	return granted, nil
}

// SaveFeedback appends one yes/no feedback record.
func (s *PostgresStore) SaveFeedback(ctx context.Context, fb domain.Feedback) error {
	query, args, err := psql.Insert("feedback").
		Columns("run_id", "feedback", "created_at").
		Values(fb.RunID, fb.Value, fb.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert feedback: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// AppendEvaluated stores the durable projection of one evaluation.
func (s *PostgresStore) AppendEvaluated(ctx context.Context, snip domain.EvaluatedSnippet) error {
	query, args, err := psql.Insert("evaluated_snippets").
		Columns("url", "title", "content_summary", "relevance_score", "category", "created_at").
		Values(snip.URL, snip.Title, snip.ContentSummary, snip.RelevanceScore, snip.Category, snip.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert evaluated: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert evaluated: %w", err)
	}
	return nil
}
