package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Box lifecycle events written to the audit trail.
const (
	BoxEventAttached   = "attached"
	BoxEventCodeIssued = "code_issued"
	BoxEventOpened     = "opened"
	BoxEventClosed     = "closed"
	BoxEventReclaimed  = "reclaimed"
)

type BoxAuditEntry struct {
	ExchangeID uint      `bson:"exchange_id" json:"exchangeId"`
	FrontID    uint      `bson:"front_id" json:"frontId"`
	Event      string    `bson:"event" json:"event"`
	Detail     string    `bson:"detail,omitempty" json:"detail,omitempty"`
	At         time.Time `bson:"at" json:"at"`
}

// BoxAuditLog is the append-only lifecycle trail for boxes, kept in the
// document store while the relational store owns the box rows themselves.
type BoxAuditLog interface {
	Append(ctx context.Context, entry BoxAuditEntry) error
	ListByExchange(ctx context.Context, exchangeID uint) ([]BoxAuditEntry, error)
}

type mongoBoxAuditLog struct {
	collection *mongo.Collection
}

func NewBoxAuditLog(db *mongo.Database) BoxAuditLog {
	return &mongoBoxAuditLog{
		collection: db.Collection(BoxAuditCollection),
	}
}

func (l *mongoBoxAuditLog) Append(ctx context.Context, entry BoxAuditEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	_, err := l.collection.InsertOne(ctx, entry)
	return err
}

func (l *mongoBoxAuditLog) ListByExchange(ctx context.Context, exchangeID uint) ([]BoxAuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cursor, err := l.collection.Find(ctx, bson.M{"exchange_id": exchangeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []BoxAuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// NopBoxAuditLog discards entries. Used when the document store is not
// configured and by tests.
type NopBoxAuditLog struct{}

func (NopBoxAuditLog) Append(ctx context.Context, entry BoxAuditEntry) error {
	return nil
}

func (NopBoxAuditLog) ListByExchange(ctx context.Context, exchangeID uint) ([]BoxAuditEntry, error) {
	return nil, nil
}
