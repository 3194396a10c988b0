package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventsCollection holds calendar events when CALENDAR_STORE=mongo.
const EventsCollection = "calendar_events"

// MongoRepository stores events as documents.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository builds an event store on db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(EventsCollection)}
}

type eventDocument struct {
	ID              string    `bson:"_id"`
	UserID          string    `bson:"userId"`
	EventDate       time.Time `bson:"eventDate"`
	TransactionType string    `bson:"transactionType"`
	EventType       string    `bson:"eventType"`
	Title           string    `bson:"title"`
	Description     string    `bson:"description,omitempty"`
	Amount          int64     `bson:"amount"`
	Status          string    `bson:"status"`
	RelatedID       string    `bson:"relatedId,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func toDocument(e Event) eventDocument {
	return eventDocument(e)
}

func (d eventDocument) event() Event {
	e := Event(d)
	e.EventDate = e.EventDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e
}

// EnsureIndexes creates the lookup indexes used by the queries below.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "eventDate", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "relatedId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create calendar indexes: %w", err)
	}
	return nil
}

// Create inserts events.
func (r *MongoRepository) Create(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, 0, len(events))
	for _, e := range events {
		docs = append(docs, toDocument(e))
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert calendar events: %w", err)
	}
	return nil
}

// Get fetches one event.
func (r *MongoRepository) Get(ctx context.Context, id string) (Event, error) {
	var doc eventDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Event{}, ErrEventNotFound
	}
	if err != nil {
		return Event{}, err
	}
	return doc.event(), nil
}

// Update stores the editable fields.
func (r *MongoRepository) Update(ctx context.Context, e Event) error {
	res, err := r.coll.UpdateByID(ctx, e.ID, bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"amount":      e.Amount,
		"status":      e.Status,
		"updatedAt":   e.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes one event.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ByUser lists every event of a user.
func (r *MongoRepository) ByUser(ctx context.Context, userID string) ([]Event, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// ByRange lists a user's events between from and to.
func (r *MongoRepository) ByRange(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	return r.find(ctx, bson.M{"userId": userID, "eventDate": bson.M{"$gte": from, "$lte": to}})
}

// TitleExists reports whether the user already has an event titled title.
func (r *MongoRepository) TitleExists(ctx context.Context, userID, title string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID, "title": title}, options.Count().SetLimit(1))
	return n > 0, err
}

// RelatedExisting returns the related ids already registered.
func (r *MongoRepository) RelatedExisting(ctx context.Context, userID string, relatedIDs []string) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "relatedId", bson.M{"userId": userID, "relatedId": bson.M{"$in": relatedIDs}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// DeleteByTitle removes every event of the user with the given title.
func (r *MongoRepository) DeleteByTitle(ctx context.Context, userID, title string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID, "title": title})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "eventDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.event())
	}
	return out, nil
}
