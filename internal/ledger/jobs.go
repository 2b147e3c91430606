package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is the terminal classification of a job.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Job is one recorded pipeline run.
type Job struct {
	ID           int64
	MessageID    string
	JobID        string
	AssetID      int64
	SourceKey    string
	State        string
	Outcome      Outcome
	PathToken    string
	Qualities    []string
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   time.Time
}

// Duration reports how long the job ran, or has been running.
func (j Job) Duration() time.Duration {
	end := j.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(j.StartedAt)
}

const jobColumns = "id, message_id, job_id, asset_id, source_key, state, outcome, path_token, qualities, error_kind, error_message, started_at, updated_at, finished_at"

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Begin records a new running job and returns its row id.
func (s *Store) Begin(ctx context.Context, job Job) (int64, error) {
	ts := now()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (message_id, job_id, asset_id, source_key, state, outcome, started_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(job.MessageID),
		nullableString(job.JobID),
		job.AssetID,
		nullableString(job.SourceKey),
		job.State,
		OutcomeRunning,
		ts,
		ts,
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Advance stores the state a running job just reached.
func (s *Store) Advance(ctx context.Context, id int64, state string) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET state = ?, updated_at = ? WHERE id = ?`,
		state, now(), id,
	)
	if err != nil {
		return fmt.Errorf("advance job %d: %w", id, err)
	}
	return nil
}

// Complete marks a job finished with the published token and qualities.
func (s *Store) Complete(ctx context.Context, id int64, state, pathToken string, qualities []string) error {
	ts := now()
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET state = ?, outcome = ?, path_token = ?, qualities = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		state, OutcomeCompleted, nullableString(pathToken), strings.Join(qualities, ","), ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	return nil
}

// Fail marks a job failed at state with a classified error.
func (s *Store) Fail(ctx context.Context, id int64, state, kind, message string) error {
	ts := now()
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET state = ?, outcome = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		state, OutcomeFailed, nullableString(kind), nullableString(message), ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	return nil
}

// Get returns the job with id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// List returns up to limit jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+jobColumns+" FROM jobs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Counts returns the number of jobs per outcome.
func (s *Store) Counts(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(1) FROM jobs GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := map[Outcome]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// MarkAbandoned fails jobs left running by a previous process.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	ts := now()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET outcome = ?, error_kind = 'abandoned', error_message = 'worker stopped before the job finished', updated_at = ?, finished_at = ? WHERE outcome = ?`,
		OutcomeFailed, ts, ts, OutcomeRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		messageID    sql.NullString
		jobID        sql.NullString
		assetID      sql.NullInt64
		sourceKey    sql.NullString
		outcome      string
		pathToken    sql.NullString
		qualities    sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&job.ID, &messageID, &jobID, &assetID, &sourceKey, &job.State, &outcome,
		&pathToken, &qualities, &errorKind, &errorMessage, &startedRaw, &updatedRaw, &finishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.MessageID = messageID.String
	job.JobID = jobID.String
	job.AssetID = assetID.Int64
	job.SourceKey = sourceKey.String
	job.Outcome = Outcome(outcome)
	job.PathToken = pathToken.String
	if qualities.String != "" {
		job.Qualities = strings.Split(qualities.String, ",")
	}
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMessage.String
	job.StartedAt = parseTime(startedRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	job.FinishedAt = parseTime(finishedRaw.String)
	return &job, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
