package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a single buyer review embedded in a product. A user has at most
// one review per product; resubmitting overwrites rating, comment and
// timestamp in place.
type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"` // 1..5
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Product is a catalog entry. AverageRating and NumReviews are cached
// aggregates of Reviews, recomputed and written alongside every review
// mutation. ReviewsRev is the optimistic-concurrency version guarding the
// review read-modify-write.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   []string           `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Price         float64            `bson:"price" json:"price"`
	OfferPrice    float64            `bson:"offerPrice" json:"offerPrice"`
	Image         []string           `bson:"image" json:"image"`
	InStock       bool               `bson:"inStock" json:"inStock"`
	Weight        string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Reviews       []Review           `bson:"reviews" json:"reviews,omitempty"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
	NumReviews    int                `bson:"numReviews" json:"numReviews"`
	ReviewsRev    int64              `bson:"reviewsRev" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
