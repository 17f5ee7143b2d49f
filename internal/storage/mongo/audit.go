package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

// Проверка на соответствие интерфейсу AuditStorage.
var _ storage.AuditStorage = (*Mongo)(nil)

type auditDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"`
	Category  string             `bson:"category"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message,omitempty"`
	IP        string             `bson:"ip"`
	UserAgent string             `bson:"user_agent"`
	URL       string             `bson:"url"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d auditDoc) toModel() models.AuditEntry {
	e := models.AuditEntry{
		ID:        d.ID.Hex(),
		Type:      models.AuditType(d.Type),
		Category:  d.Category,
		Title:     d.Title,
		IP:        d.IP,
		UserAgent: d.UserAgent,
		URL:       d.URL,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if d.Message != "" {
		e.Message = []byte(d.Message)
	}

	return e
}

// AppendAudit добавляет запись журнала.
func (m *Mongo) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	const op = "storage.mongo.AppendAudit"

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	doc := auditDoc{
		ID:        primitive.NewObjectID(),
		Type:      string(e.Type),
		Category:  e.Category,
		Title:     e.Title,
		Message:   string(e.Message),
		IP:        e.IP,
		UserAgent: e.UserAgent,
		URL:       e.URL,
		CreatedAt: e.CreatedAt,
	}

	if _, err := m.audit.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.ID = doc.ID.Hex()

	return nil
}

// AuditEntries возвращает записи по фильтру, новые первыми, и общее число.
func (m *Mongo) AuditEntries(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, int, error) {
	const op = "storage.mongo.AuditEntries"

	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	total, err := m.audit.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(max(f.Offset, 0)))

	cur, err := m.audit.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%s: decode: %w", op, err)
	}

	out := make([]models.AuditEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}

	return out, int(total), nil
}

// PruneAudit удаляет не более limit самых старых записей раньше before.
func (m *Mongo) PruneAudit(ctx context.Context, before time.Time, limit int) (int64, error) {
	const op = "storage.mongo.PruneAudit"

	if limit <= 0 {
		return 0, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})

	cur, err := m.audit.Find(ctx, bson.M{"created_at": bson.M{"$lt": before}}, opts)
	if err != nil {
		return 0, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var ids []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &ids); err != nil {
		return 0, fmt.Errorf("%s: decode: %w", op, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	in := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		in = append(in, v.ID)
	}

	res, err := m.audit.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": in}})
	if err != nil {
		return 0, fmt.Errorf("%s: delete: %w", op, err)
	}

	return res.DeletedCount, nil
}
