// Package store provides MongoDB-backed persistence for the storefront.
// Controllers depend on narrow interfaces declared at their point of use;
// *Store satisfies all of them.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a versioned update lost a concurrent race.
	ErrConflict = errors.New("store: version conflict")
)

// Store wraps a mongo database with one method per persistence operation.
type Store struct {
	users         *mongo.Collection
	products      *mongo.Collection
	orders        *mongo.Collection
	addresses     *mongo.Collection
	verifications *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// New returns a Store over the named database.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		users:         db.Collection("users"),
		products:      db.Collection("products"),
		orders:        db.Collection("orders"),
		addresses:     db.Collection("addresses"),
		verifications: db.Collection("emailverifications"),
	}
}

// EnsureIndexes creates the indexes the data model relies on: unique user
// emails, one verification record per user, and the one-hour OTP expiry.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.verifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(3600),
		},
	})
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}
