// Package redisqueue cola de reconciliación sobre Redis Streams y candado de pasadas del reconciliador.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

var (
	_ ledger.ReconciliationQueue = (*Queue)(nil)
	_ ledger.PassLock            = (*Lock)(nil)
)

const (
	payloadField = "payload"
	maxLen       = 10000
)

// Queue cola operativa: cada documento incompleto se agrega al stream.
type Queue struct {
	rdb    *redis.Client
	stream string
}

// New construye la cola sobre un cliente existente.
func New(rdb *redis.Client, stream string) *Queue {
	return &Queue{rdb: rdb, stream: stream}
}

// Enqueue agrega el item al stream (recortado aproximadamente a maxLen entradas).
func (q *Queue) Enqueue(ctx context.Context, item entity.ReconciliationItem) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal reconciliation item: %w", err)
	}
	err = q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]interface{}{payloadField: string(b)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", q.stream, err)
	}
	return nil
}

// List últimos items, más recientes primero.
func (q *Queue) List(ctx context.Context, limit int) ([]entity.ReconciliationItem, error) {
	msgs, err := q.rdb.XRevRangeN(ctx, q.stream, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", q.stream, err)
	}
	out := make([]entity.ReconciliationItem, 0, len(msgs))
	for _, m := range msgs {
		item, err := decode(m)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func decode(m redis.XMessage) (entity.ReconciliationItem, error) {
	var item entity.ReconciliationItem
	raw, ok := m.Values[payloadField].(string)
	if !ok {
		return item, fmt.Errorf("mensaje %s sin %s", m.ID, payloadField)
	}
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return item, fmt.Errorf("unmarshal %s: %w", m.ID, err)
	}
	return item, nil
}

// Lock evita que dos instancias del API ejecuten la misma pasada de reconciliación.
type Lock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewLock candado con la clave y duración indicadas; ttl debe cubrir una pasada completa.
func NewLock(rdb *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{locker: redislock.New(rdb), key: key, ttl: ttl}
}

// TryLock intenta tomar el candado sin esperar. ok=false si otra instancia lo tiene.
func (l *Lock) TryLock(ctx context.Context) (func(), bool, error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain %s: %w", l.key, err)
	}
	return func() { _ = lock.Release(context.Background()) }, true, nil
}
