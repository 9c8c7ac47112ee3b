package domain

import "time"

// MealPhoto stores metadata about a picture attached to a meal.
// The actual file resides in S3; only the object key is persisted.
type MealPhoto struct {
	S3ObjectKey string    `bson:"s3ObjectKey" json:"-"` // Internal use
	ContentType string    `bson:"contentType" json:"contentType"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
}
