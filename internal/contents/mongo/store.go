// Package mongo implements the content store on MongoDB. Snapshots are
// written by the content service (out of this subsystem); this package only
// reads them.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quillcms/quill/internal/contents"
	"github.com/quillcms/quill/pkg/model"
)

// Store reads content snapshots from a MongoDB collection. Every version of
// a content item is stored as its own document; the newest one carries the
// latest flag maintained by the write path.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type snapshotDoc struct {
	ID             string                 `bson:"_id"` // app:content:version
	AppID          string                 `bson:"app_id"`
	ContentID      string                 `bson:"content_id"`
	SchemaID       string                 `bson:"schema_id"`
	SchemaName     string                 `bson:"schema_name"`
	Data           map[string]interface{} `bson:"data"`
	Status         string                 `bson:"status"`
	CreatedBy      string                 `bson:"created_by"`
	LastModifiedBy string                 `bson:"last_modified_by"`
	Version        int64                  `bson:"version"`
	Latest         bool                   `bson:"latest"`
	Order          int64                  `bson:"order"` // insertion order, used by StreamAll
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName, collName string) (*Store, error) {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	s := &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the snapshot of one content item at the given version, or the
// newest stored version when version is negative. Returns
// contents.ErrNotFound when no matching snapshot exists.
func (s *Store) Get(ctx context.Context, app, contentID string, version int64) (*contents.Snapshot, error) {
	filter := bson.M{"app_id": app, "content_id": contentID}

	findOpts := options.FindOne()
	if version >= 0 {
		filter["version"] = version
	} else {
		findOpts.SetSort(bson.D{{Key: "version", Value: -1}})
	}

	var doc snapshotDoc
	err := s.coll.FindOne(ctx, filter, findOpts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, contents.ErrNotFound
		}
		return nil, err
	}

	return docToSnapshot(&doc), nil
}

// StreamAll yields the current snapshot of every content item of the app,
// optionally filtered to a set of schema ids, in insertion order. The
// returned channel is closed when the cursor is exhausted or the context is
// cancelled.
func (s *Store) StreamAll(ctx context.Context, app string, schemaIDs []string) (<-chan contents.Snapshot, error) {
	filter := streamFilter(app, schemaIDs)

	findOpts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("stream contents: %w", err)
	}

	out := make(chan contents.Snapshot)

	go func() {
		defer close(out)
		defer cursor.Close(context.WithoutCancel(ctx))

		for cursor.Next(ctx) {
			var doc snapshotDoc
			if err := cursor.Decode(&doc); err != nil {
				slog.Error("Failed to decode content snapshot", "app", app, "error", err)
				continue
			}

			select {
			case out <- *docToSnapshot(&doc):
			case <-ctx.Done():
				return
			}
		}
		if err := cursor.Err(); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Content stream aborted", "app", app, "error", err)
		}
	}()

	return out, nil
}

// EnsureIndexes creates the indexes Get and StreamAll rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "app_id", Value: 1}, {Key: "content_id", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "latest", Value: 1}, {Key: "schema_id", Value: 1}, {Key: "order", Value: 1}},
		},
	})
	return err
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func streamFilter(app string, schemaIDs []string) bson.M {
	filter := bson.M{"app_id": app, "latest": true}
	if len(schemaIDs) > 0 {
		filter["schema_id"] = bson.M{"$in": schemaIDs}
	}
	return filter
}

func docToSnapshot(doc *snapshotDoc) *contents.Snapshot {
	return &contents.Snapshot{
		AppID:          doc.AppID,
		ContentID:      doc.ContentID,
		SchemaID:       contents.NamedID{ID: doc.SchemaID, Name: doc.SchemaName},
		Data:           model.ContentData(doc.Data),
		Status:         contents.Status(doc.Status),
		CreatedBy:      doc.CreatedBy,
		LastModifiedBy: doc.LastModifiedBy,
		Version:        doc.Version,
	}
}
