package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per video. Numeric ids come from a counter
// document so DeleteByID works the same as on the SQL stores.
type MongoStore struct {
	client   *mongo.Client
	videos   *mongo.Collection
	counters *mongo.Collection
	log      *logger.Logger
}

// NewMongoStore connects to uri and prepares the videos collection and its
// unique identifier index.
func NewMongoStore(ctx context.Context, uri, database, collection string, log *logger.Logger) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := newMongoStore(client, client.Database(database), collection, log)
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("Mongo store connected", "database", database, "collection", collection)
	return s, nil
}

func newMongoStore(client *mongo.Client, db *mongo.Database, collection string, log *logger.Logger) *MongoStore {
	return &MongoStore{
		client:   client,
		videos:   db.Collection(collection),
		counters: db.Collection(collection + "_counters"),
		log:      log,
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identifier", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("identifier_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create identifier index: %w", err)
	}
	return nil
}

// nextID increments the per-collection counter document, creating it on
// first use. Ids are never handed out twice, even after deletes.
func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.videos.Name()},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate video id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) Insert(ctx context.Context, v *models.Video) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	doc := *v
	doc.ID = id
	doc.Chunks = nonNil(v.Chunks)
	if _, err := s.videos.InsertOne(ctx, &doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, v.Identifier)
		}
		return fmt.Errorf("failed to insert video %s: %w", v.Identifier, err)
	}

	v.ID = id
	return nil
}

func (s *MongoStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Video, error) {
	var v models.Video
	err := s.videos.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find video %s: %w", identifier, err)
	}
	return &v, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]*models.Video, error) {
	cursor, err := s.videos.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	var videos []*models.Video
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return videos, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := s.videos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
