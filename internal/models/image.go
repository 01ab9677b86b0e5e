package models

import "time"

// Image is an uploaded, size-normalized image served from /api/images/{id}.
type Image struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Filename    string    `gorm:"size:64;not null;uniqueIndex" bson:"filename" json:"filename"`
	ContentType string    `gorm:"size:32;not null" bson:"contentType" json:"contentType"`
	Data        []byte    `gorm:"not null" bson:"data" json:"-"`
	Width       int       `bson:"width" json:"width"`
	Height      int       `bson:"height" json:"height"`
	SizeBytes   int64     `bson:"sizeBytes" json:"sizeBytes"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
