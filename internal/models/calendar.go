package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalendarSlot is one bookable availability window.
type CalendarSlot struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Start   time.Time          `bson:"start" json:"start"`
	End     time.Time          `bson:"end" json:"end"`
	Display string             `bson:"display,omitempty" json:"display,omitempty"` // Precomputed human-readable label
	Booked  bool               `bson:"booked" json:"booked"`
}
