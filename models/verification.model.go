package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailVerification binds a user to a one-time numeric code. At most one
// record exists per user; issuing a new code replaces the old one. Records
// expire one hour after creation via a TTL index on CreatedAt.
type EmailVerification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	OTP       string             `bson:"otp" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
