package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresBackend struct {
	db *pgxpool.Pool
}

func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{
		db: db,
	}
}

func (b *PostgresBackend) Load(ctx context.Context, key Key) (_ *Document, _ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.pg.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("doc.key", string(key)))

	var body []byte
	var version int64
	err = b.db.QueryRow(
		ctx,
		`SELECT body, version FROM plan_document WHERE doc_key = $1;`,
		string(key),
	).Scan(&body, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrDocumentNotFound
		}
		return nil, 0, fmt.Errorf("query document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal document: %w", err)
	}

	span.SetAttributes(attribute.Int64("doc.version", version))
	return &doc, version, nil
}

func (b *PostgresBackend) Save(ctx context.Context, key Key, doc *Document, expectedVersion int64) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.pg.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("doc.key", string(key)))
	span.SetAttributes(attribute.Int64("doc.expected_version", expectedVersion))

	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	now := time.Now()
	if expectedVersion == 0 {
		_, err := b.db.Exec(
			ctx,
			`INSERT INTO plan_document (doc_key, body, version, updated_at) VALUES ($1, $2, 1, $3);`,
			string(key), body, now,
		)
		if err != nil {
			if pkg.IsUniqueViolationError(err) {
				return 0, ErrVersionConflict
			}
			return 0, fmt.Errorf("insert document: %w", err)
		}
		return 1, nil
	}

	tag, err := b.db.Exec(
		ctx,
		`UPDATE plan_document SET body = $1, version = version + 1, updated_at = $2 WHERE doc_key = $3 AND version = $4;`,
		body, now, string(key), expectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrVersionConflict
	}

	return expectedVersion + 1, nil
}

func (b *PostgresBackend) Keys(ctx context.Context) (_ []Key, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.pg.keys")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := b.db.Query(ctx, `SELECT doc_key FROM plan_document ORDER BY doc_key;`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		keys = append(keys, Key(k))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return keys, nil
}
