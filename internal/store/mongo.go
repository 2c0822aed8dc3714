// Package store is the document-database persistence layer. All
// counter and session-set mutations use MongoDB's atomic update
// operators ($inc, $addToSet) so concurrent writers accumulate rather
// than overwrite each other.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gridsense-io/site-analytics-service/internal/models"
)

const (
	eventsCollection     = "pageview_events"
	aggregatesCollection = "daily_aggregates"
)

// MongoStore is the durable persistence layer for events and daily
// aggregates.
type MongoStore struct {
	client     *mongo.Client
	events     *mongo.Collection
	aggregates *mongo.Collection
}

// NewMongoStore connects to MongoDB and fails fast if it is
// unreachable, so a misconfigured deployment dies at boot instead of
// at the first request.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &MongoStore{
		client:     client,
		events:     db.Collection(eventsCollection),
		aggregates: db.Collection(aggregatesCollection),
	}, nil
}

// EnsureIndexes creates the indexes the read path depends on. Safe to
// run on every boot.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

// Ping is used by the readiness endpoint to validate connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// InsertEvent appends one immutable page-view event record.
func (s *MongoStore) InsertEvent(ctx context.Context, ev *models.PageViewEvent) error {
	if _, err := s.events.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ApplyPageView upserts the aggregate document for date, adding one
// view to the total and to the sanitized country and page counters.
// The upsert makes the first view of a new day race-free: concurrent
// writers all $inc the same document, whichever of them created it.
func (s *MongoStore) ApplyPageView(ctx context.Context, date, pageKey, countryKey string, at time.Time) error {
	filter := bson.M{"_id": date}
	update := bson.M{
		"$inc": bson.M{
			"total_views":              1,
			"countries." + countryKey: 1,
			"pages." + pageKey:        1,
		},
		"$set": bson.M{"updated_at": at},
		"$setOnInsert": bson.M{
			"unique_visitors": 0,
			"sessions":        []string{},
		},
	}

	if _, err := s.aggregates.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert aggregate %s: %w", date, err)
	}
	return nil
}

// MarkSessionSeen counts sessionID as a unique visitor for date. The
// filter excludes documents already containing the session, so the
// $addToSet and the unique_visitors $inc apply together exactly once
// per (date, session) no matter how many concurrent callers race here.
func (s *MongoStore) MarkSessionSeen(ctx context.Context, date, sessionID string, at time.Time) error {
	filter := bson.M{
		"_id":      date,
		"sessions": bson.M{"$ne": sessionID},
	}
	update := bson.M{
		"$addToSet": bson.M{"sessions": sessionID},
		"$inc":      bson.M{"unique_visitors": 1},
		"$set":      bson.M{"updated_at": at},
	}

	if _, err := s.aggregates.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("mark session seen %s: %w", date, err)
	}
	return nil
}

// AggregatesSince returns every daily aggregate dated startDate or
// later, newest first. ISO date strings order lexicographically, so the
// comparison runs directly against the _id key.
func (s *MongoStore) AggregatesSince(ctx context.Context, startDate string) ([]models.DailyAggregate, error) {
	filter := bson.M{"_id": bson.M{"$gte": startDate}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})

	cursor, err := s.aggregates.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer cursor.Close(ctx)

	var aggs []models.DailyAggregate
	if err := cursor.All(ctx, &aggs); err != nil {
		return nil, fmt.Errorf("decode aggregates: %w", err)
	}
	return aggs, nil
}

// RecentEvents returns up to limit raw events, newest first.
func (s *MongoStore) RecentEvents(ctx context.Context, limit int) ([]models.PageViewEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.PageViewEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode recent events: %w", err)
	}
	return events, nil
}
