package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRow is the persisted form of a Document.
//
// Composite PK: (Collection, DocID)
//   - One row per document path; Set is an upsert on this key.
type DocumentRow struct {
	Collection string    `gorm:"primaryKey;size:255"`
	DocID      string    `gorm:"primaryKey;size:128"`
	Fields     Fields    `gorm:"type:text;serializer:json"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (DocumentRow) TableName() string { return "documents" }

// SQLStore persists documents with gorm and signals changes through a Notifier.
type SQLStore struct {
	db       *gorm.DB
	notifier Notifier
	log      *slog.Logger
}

// NewSQLStore migrates the documents table and returns a store bound to it.
func NewSQLStore(database *gorm.DB, notifier Notifier, log *slog.Logger) (*SQLStore, error) {
	if err := database.AutoMigrate(&DocumentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents: %w", err)
	}
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &SQLStore{db: database, notifier: notifier, log: log}, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return row.document(), nil
}

// Set inserts or replaces the document's fields.
//
// Behavior:
//   - If (collection, doc_id) exists → fields and updated_at are overwritten.
//   - Otherwise a new row is inserted.
//   - Subscribers of the collection are signalled after a successful write.
func (s *SQLStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	row := DocumentRow{Collection: collection, DocID: id, Fields: fields}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}
	s.publish(ctx, collection)
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&DocumentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.publish(ctx, collection)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, collection string) ([]Document, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.document())
	}
	return out, nil
}

// Subscribe starts listening before the initial load so no write between
// the two is missed.
func (s *SQLStore) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	sub := newSubscription(collection, func(ctx context.Context) ([]Document, error) {
		return s.List(ctx, collection)
	})

	stop, err := s.notifier.Listen(ctx, ChannelFor(collection), sub.notify)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", collection, err)
	}
	sub.start(ctx, stop)
	return sub, nil
}

// publish is best effort: the write already succeeded, and a missed signal
// only delays subscribers until the next change.
func (s *SQLStore) publish(ctx context.Context, collection string) {
	if err := s.notifier.Publish(ctx, ChannelFor(collection)); err != nil {
		s.log.Warn("change notification failed", "collection", collection, "err", err)
	}
}

func (r DocumentRow) document() Document {
	return Document{
		Collection: r.Collection,
		ID:         r.DocID,
		Fields:     r.Fields,
		UpdatedAt:  r.UpdatedAt,
	}
}
