package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"concierge/internal/database"
	"concierge/internal/models"
)

// UserService handles user persistence on MongoDB. Implements UserStore.
type UserService struct {
	db         *database.MongoDB
	collection *mongo.Collection
}

// NewUserService creates a new user service
func NewUserService(db *database.MongoDB) *UserService {
	return &UserService{
		db:         db,
		collection: db.Collection(database.CollectionUsers),
	}
}

// GetUserByIdentifier retrieves a user by their external contact identifier.
// Returns (nil, nil) when the user does not exist.
func (s *UserService) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", identifier, err)
	}
	return &user, nil
}

// UpsertUser creates or updates a user keyed by identifier and returns the
// stored document. createdAt is only set on insert.
func (s *UserService) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Identifier == "" {
		return nil, fmt.Errorf("user identifier is required")
	}

	now := time.Now()
	filter := bson.M{"identifier": user.Identifier}
	update := bson.M{
		"$set": bson.M{
			"sessionId":    user.SessionID,
			"name":         user.Name,
			"email":        user.Email,
			"languageCode": user.LanguageCode,
			"timezone":     user.Timezone,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"identifier": user.Identifier,
			"createdAt":  now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.User
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", user.Identifier, err)
	}
	return &stored, nil
}

// UpdateRegistration sets name and email in a single write.
func (s *UserService) UpdateRegistration(ctx context.Context, identifier, name, email string) error {
	update := bson.M{
		"$set": bson.M{
			"name":      name,
			"email":     email,
			"updatedAt": time.Now(),
		},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"identifier": identifier}, update)
	if err != nil {
		return fmt.Errorf("failed to update registration for %s: %w", identifier, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no user found for identifier %s", identifier)
	}
	return nil
}

// UpdateLanguage sets the user's language code.
func (s *UserService) UpdateLanguage(ctx context.Context, identifier, languageCode string) error {
	update := bson.M{
		"$set": bson.M{
			"languageCode": languageCode,
			"updatedAt":    time.Now(),
		},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"identifier": identifier}, update)
	if err != nil {
		return fmt.Errorf("failed to update language for %s: %w", identifier, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no user found for identifier %s", identifier)
	}
	return nil
}
