// Package mongo — альтернативный приёмник журнала действий на MongoDB
// (audit.backend: mongo).
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	auditCollection = "audit_log"
	defaultDBName   = "vatomi"
)

// Mongo — тонкий адаптер подключения и коллекции журнала.
type Mongo struct {
	client *mongodriver.Client
	audit  *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
func New(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	m := &Mongo{
		client: cli,
		audit:  cli.Database(databaseFromURI(uri)).Collection(auditCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Ping проверяет доступность MongoDB.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes:
// - выборка и очистка по created_at;
// - фильтр по типу и категории.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("created_at_asc"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("type_category_created_desc"),
		},
	}

	if _, err := m.audit.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя БД из пути URI, иначе возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
