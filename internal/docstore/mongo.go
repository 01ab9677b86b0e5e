// Package docstore holds the MongoDB connection used when images are stored
// as documents (IMAGE_STORE=mongo).
package docstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"inkwell/internal/middleware"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ImagesCollection stores uploaded image documents.
const ImagesCollection = "images"

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
	initErr    error
)

// Init connects once per process and ensures indexes. Later calls return the
// result of the first.
func Init(ctx context.Context, uri, dbName string) error {
	clientOnce.Do(func() {
		if uri == "" {
			initErr = errors.New("docstore: MONGO_URI is required")
			return
		}
		if dbName == "" {
			dbName = "inkwell"
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			_ = cl.Disconnect(context.Background())
			initErr = err
			return
		}
		d := cl.Database(dbName)
		if err := ensureIndexes(ctx, d); err != nil {
			_ = cl.Disconnect(context.Background())
			initErr = err
			return
		}

		client = cl
		db = d
		middleware.Logger.Info("MongoDB connected and indexes ensured")
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Close disconnects the shared client.
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// IndexModels returns the indexes ensured on the images collection.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "filename", Value: 1}},
			Options: options.Index().SetName("uniq_filename").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_created_at_desc"),
		},
	}
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	_, err := d.Collection(ImagesCollection).Indexes().CreateMany(ctx, IndexModels())
	return err
}
