package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/okian/gradestats/internal/domain/grades"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "perscholas"
	DefaultMongoCollection = "grades"
)

// scoreDoc is the stored shape of one record.
type scoreDoc struct {
	LearnerID int64      `bson:"learner_id"`
	ClassID   int64      `bson:"class_id"`
	Scores    []entryDoc `bson:"scores"`
}

type entryDoc struct {
	Type  string  `bson:"type"`
	Score float64 `bson:"score"`
}

// MongoStore reads score records from a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the primary is reachable.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri", ErrMissingSetting)
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// FetchScoreRecords implements Store. Documents are returned in _id order.
func (s *MongoStore) FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error) {
	filter := bson.D{}
	if f.ClassID != nil {
		filter = bson.D{{Key: "class_id", Value: *f.ClassID}}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{
			{Key: "learner_id", Value: 1},
			{Key: "class_id", Value: 1},
			{Key: "scores", Value: 1},
		})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []scoreDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]grades.ScoreRecord, len(docs))
	for i, d := range docs {
		out[i] = grades.ScoreRecord{LearnerID: d.LearnerID, ClassID: d.ClassID}
		if len(d.Scores) > 0 {
			out[i].Scores = make([]grades.ScoreEntry, len(d.Scores))
			for j, e := range d.Scores {
				out[i].Scores[j] = grades.ScoreEntry{Type: grades.ScoreType(e.Type), Score: e.Score}
			}
		}
	}
	return out, nil
}

// InsertScoreRecords implements Writer.
func (s *MongoStore) InsertScoreRecords(ctx context.Context, records []grades.ScoreRecord) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, r := range records {
		d := scoreDoc{LearnerID: r.LearnerID, ClassID: r.ClassID, Scores: make([]entryDoc, len(r.Scores))}
		for j, e := range r.Scores {
			d.Scores[j] = entryDoc{Type: string(e.Type), Score: e.Score}
		}
		docs[i] = d
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

// Reset deletes every document of the collection.
func (s *MongoStore) Reset(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{})
	return err
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Driver implements Store.
func (s *MongoStore) Driver() Driver { return DriverMongo }

// Close implements Store.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
