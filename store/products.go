package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greencart/models"
)

// CreateProduct inserts a new catalog entry and returns its id.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) (primitive.ObjectID, error) {
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	res, err := s.products.InsertOne(ctx, product)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// Products returns the full catalog without the embedded review lists.
func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetProjection(bson.M{"reviews": 0})
	cursor, err := s.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductByID returns a single product with its reviews, or ErrNotFound.
func (s *Store) ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// SetProductStock flips a product's stock flag.
func (s *Store) SetProductStock(ctx context.Context, id primitive.ObjectID, inStock bool) error {
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"inStock": inStock, "updatedAt": now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProductReviews writes the review list and its cached aggregates in a
// single document update, conditional on the revision the caller read. A
// concurrent writer bumping the revision first yields ErrConflict so the
// caller can re-read and retry.
func (s *Store) UpdateProductReviews(ctx context.Context, id primitive.ObjectID, rev int64, reviews []models.Review, averageRating float64, numReviews int) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": id, "reviewsRev": rev},
		bson.M{
			"$set": bson.M{
				"reviews":       reviews,
				"averageRating": averageRating,
				"numReviews":    numReviews,
				"updatedAt":     now(),
			},
			"$inc": bson.M{"reviewsRev": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
