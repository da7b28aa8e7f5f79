package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, record Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	date, err := ParseDate(record.Date)
	if err != nil {
		return nil, err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO training_record
				(user_id, date, exercise, sets, reps, weight, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		record.UserID, date, record.Exercise, record.Sets, record.Reps, record.Weight, record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("record.id", id))

	record.ID = id
	return &record, nil
}

// AddMany stores all records in one batch, in one transaction.
func (r *Repo) AddMany(ctx context.Context, records []Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.add_many")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("records.count", len(records)))

	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		date, err := ParseDate(record.Date)
		if err != nil {
			return err
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}
		batch.Queue(
			`INSERT INTO training_record (user_id, date, exercise, sets, reps, weight, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			record.UserID, date, record.Exercise, record.Sets, record.Reps, record.Weight, record.CreatedAt,
		)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM training_record WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *Repo) ListForDate(ctx context.Context, userID string, date time.Time) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list_for_date")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", FormatDate(date)))

	return r.list(ctx, userID, date, date.AddDate(0, 0, 1))
}

// MonthSummary returns the days of the month that have records, in date order.
func (r *Repo) MonthSummary(ctx context.Context, userID string, year, month int) (_ []DaySummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.month_summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("year", year), attribute.Int("month", month))

	from, to, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}

	records, err := r.list(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return summarize(records), nil
}

func (r *Repo) list(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, date, exercise, sets, reps, weight, created_at
			FROM training_record
			WHERE user_id = $1 AND date >= $2 AND date < $3
			ORDER BY date, id;`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec  Record
			date time.Time
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &date, &rec.Exercise, &rec.Sets, &rec.Reps, &rec.Weight, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		rec.Date = FormatDate(date)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
