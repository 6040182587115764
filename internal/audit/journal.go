// Package audit ведёт журнал платёжных операций в MongoDB.
// Журнал только дополняется: записи не изменяются и не удаляются.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// CollectionName коллекция журнала платёжных событий.
const CollectionName = "payment_events"

// Действия и исходы, попадающие в журнал.
const (
	ActionInitiate = "initiate_purchase"
	ActionConfirm  = "confirm_purchase"

	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeFailure   = "failure"
)

// ErrFailedToConnect не удалось подключиться к MongoDB за отведённые попытки.
var ErrFailedToConnect = errors.New("audit: failed to connect to mongo")

// Collection подмножество коллекции MongoDB, нужное журналу.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// Journal пишет события в коллекцию.
type Journal struct {
	coll Collection
	now  func() time.Time
}

// Connect подключается к MongoDB с повторными попытками и проверкой ping.
func Connect(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	attempts := cfg.MongoRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.MongoURL).
				SetConnectTimeout(cfg.MongoConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrFailedToConnect, ctx.Err())
			case <-time.After(cfg.MongoRetryInterval):
			}
		}
	}
	return nil, ErrFailedToConnect
}

// New создаёт журнал поверх коллекции.
func New(coll Collection) *Journal {
	return &Journal{coll: coll, now: time.Now}
}

// NewFromClient создаёт журнал в базе database клиента.
func NewFromClient(client *mongo.Client, database string) *Journal {
	return New(client.Database(database).Collection(CollectionName))
}

// Record добавляет событие в журнал. Пустое время заполняется текущим.
func (j *Journal) Record(ctx context.Context, event models.PaymentEvent) error {
	const op = "audit.Record"
	if event.CreatedAt.IsZero() {
		event.CreatedAt = j.now().UTC()
	}
	if _, err := j.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Nop журнал-заглушка для окружений без MongoDB.
type Nop struct{}

// Record ничего не делает.
func (Nop) Record(context.Context, models.PaymentEvent) error { return nil }
