package services

import (
	"context"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"concierge/internal/database"
	"concierge/internal/models"
)

// Availability changes rarely relative to how often users ask for it, so
// window queries are cached briefly.
const slotCacheTTL = time.Minute

// CalendarService serves bookable availability from MongoDB with a short-TTL
// cache in front. Implements CalendarProvider.
type CalendarService struct {
	collection *mongo.Collection
	cache      *gocache.Cache
}

// NewCalendarService creates a new calendar service
func NewCalendarService(db *database.MongoDB) *CalendarService {
	return &CalendarService{
		collection: db.Collection(database.CollectionAvailabilitySlots),
		cache:      gocache.New(slotCacheTTL, 2*slotCacheTTL),
	}
}

// GetAvailableSlots returns the open slots starting within [from, to),
// ordered by start time.
func (s *CalendarService) GetAvailableSlots(ctx context.Context, from, to time.Time) ([]models.CalendarSlot, error) {
	key := fmt.Sprintf("%d:%d", from.Unix(), to.Unix())
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.CalendarSlot), nil
	}

	filter := bson.M{
		"booked": false,
		"start":  bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.CalendarSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability slots: %w", err)
	}

	s.cache.Set(key, slots, gocache.DefaultExpiration)
	log.Printf("📅 [CALENDAR] Loaded %d open slots between %s and %s", len(slots), from.Format("2006-01-02"), to.Format("2006-01-02"))
	return slots, nil
}
