package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greencart/models"
)

// CreateAddress inserts a new shipping address and returns its id.
func (s *Store) CreateAddress(ctx context.Context, address *models.Address) (primitive.ObjectID, error) {
	address.CreatedAt = now()
	res, err := s.addresses.InsertOne(ctx, address)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// AddressesByUser returns the user's saved addresses, newest first.
func (s *Store) AddressesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.addresses.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var addresses []models.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
