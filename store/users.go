package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greencart/models"
)

// CreateUser inserts a new user and returns its id.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	if user.CartItems == nil {
		user.CartItems = map[string]int{}
	}
	res, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// UserByEmail returns the user with the given email, or ErrNotFound.
func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UserByID returns the user with the given id, or ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// SetUserVerified marks a user's email as verified.
func (s *Store) SetUserVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isVerified": true, "updatedAt": now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user document. Used to roll back a registration whose
// verification email could not be sent.
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ReplaceUserCart overwrites the user's cart mirror with the given mapping.
func (s *Store) ReplaceUserCart(ctx context.Context, id primitive.ObjectID, items map[string]int) error {
	if items == nil {
		items = map[string]int{}
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"cartItems": items, "updatedAt": now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearUserCart empties the user's cart mirror. Clearing an already empty
// cart is a no-op, which keeps payment reconciliation idempotent.
func (s *Store) ClearUserCart(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"cartItems": map[string]int{}, "updatedAt": now()},
	})
	return err
}

// CreateVerification stores a fresh OTP for the user, replacing any prior one.
func (s *Store) CreateVerification(ctx context.Context, userID primitive.ObjectID, otp string) error {
	_, err := s.verifications.ReplaceOne(ctx,
		bson.M{"userId": userID},
		models.EmailVerification{UserID: userID, OTP: otp, CreatedAt: now()},
		options.Replace().SetUpsert(true),
	)
	return err
}

// ConsumeVerification deletes the verification record matching the user and
// code. ErrNotFound means the code is wrong or has expired.
func (s *Store) ConsumeVerification(ctx context.Context, userID primitive.ObjectID, otp string) error {
	err := s.verifications.FindOneAndDelete(ctx, bson.M{"userId": userID, "otp": otp}).Err()
	return notFound(err)
}

// DeleteVerificationForUser discards any pending OTP for the user.
func (s *Store) DeleteVerificationForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.verifications.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}
