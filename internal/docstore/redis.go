package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/2beens/gymplan/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const (
	redisDocKeyPrefix = "gymplan-doc||"
	redisDocIndexKey  = "gymplan-docs"
	fieldBody         = "body"
	fieldVersion      = "version"
)

// RedisBackend stores each document as a hash {body, version}. Writes run
// in a WATCH/MULTI transaction on the document key.
type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{
		rdb: rdb,
	}
}

func redisKey(key Key) string {
	return redisDocKeyPrefix + string(key)
}

func (b *RedisBackend) Load(ctx context.Context, key Key) (_ *Document, _ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.redis.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("doc.key", string(key)))

	fields, err := b.rdb.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, 0, ErrDocumentNotFound
	}

	version, err := strconv.ParseInt(fields[fieldVersion], 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("parse version: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(fields[fieldBody]), &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal document: %w", err)
	}

	return &doc, version, nil
}

func (b *RedisBackend) Save(ctx context.Context, key Key, doc *Document, expectedVersion int64) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.redis.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("doc.key", string(key)))
	span.SetAttributes(attribute.Int64("doc.expected_version", expectedVersion))

	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}

	k := redisKey(key)
	newVersion := expectedVersion + 1
	err = b.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, fieldBody, body, fieldVersion, newVersion)
			pipe.SAdd(ctx, redisDocIndexKey, string(key))
			return nil
		})
		return err
	}, k)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) || errors.Is(err, redis.TxFailedErr) {
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("save document: %w", err)
	}

	return newVersion, nil
}

func (b *RedisBackend) Keys(ctx context.Context) (_ []Key, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.docstore.redis.keys")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	members, err := b.rdb.SMembers(ctx, redisDocIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}

	keys := make([]Key, 0, len(members))
	for _, m := range members {
		keys = append(keys, Key(m))
	}
	return keys, nil
}
