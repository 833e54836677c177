// Package mongo stores Person documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"example.com/exercisetracker/internal/domain"
)

// CollectionName is the collection holding person documents.
const CollectionName = "people"

// maxUpdateAttempts bounds the compare-and-swap retries in Update.
const maxUpdateAttempts = 5

// Connect opens a client for uri and verifies it against the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("unable to ping mongodb: %w", err)
	}
	return client, nil
}

// Repository provides MongoDB-backed persistence for people.
type Repository struct {
	people *mongo.Collection
}

// NewRepository constructs a Repository over db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{people: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique username index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.people.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("created_at"),
		},
	})
	return err
}

// FindByUsername implements domain.PersonRepository.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*domain.Person, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// Create inserts a new person; a duplicate key maps to domain.ErrUsernameTaken.
func (r *Repository) Create(ctx context.Context, person domain.Person) error {
	if person.Exercise == nil {
		person.Exercise = []domain.ExerciseRecord{}
	}
	_, err := r.people.InsertOne(ctx, person)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUsernameTaken
	}
	return err
}

// Get implements domain.PersonRepository.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Person, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// List returns every person in registration order.
func (r *Repository) List(ctx context.Context) ([]domain.Person, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.people.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	people := make([]domain.Person, 0)
	if err := cur.All(ctx, &people); err != nil {
		return nil, err
	}
	for i := range people {
		normalize(&people[i])
	}
	return people, nil
}

// Update applies mutate with optimistic concurrency on the rev field,
// retrying when another writer changed the document in between.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*domain.Person) error) (*domain.Person, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.ErrPersonNotFound
		}

		next := current.Clone()
		if err := mutate(&next); err != nil {
			return nil, err
		}
		if next.Exercise == nil {
			next.Exercise = []domain.ExerciseRecord{}
		}
		next.ID = current.ID
		next.Rev = current.Rev + 1

		res, err := r.people.UpdateOne(ctx,
			bson.M{"_id": current.ID, "rev": current.Rev},
			bson.M{"$set": bson.M{"exercise": next.Exercise, "rev": next.Rev}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &next, nil
		}
	}
	return nil, domain.ErrConflict
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*domain.Person, error) {
	var p domain.Person
	err := r.people.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalize(&p)
	return &p, nil
}

func normalize(p *domain.Person) {
	if p.Exercise == nil {
		p.Exercise = []domain.ExerciseRecord{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	for i := range p.Exercise {
		p.Exercise[i].Date = p.Exercise[i].Date.UTC()
	}
}
