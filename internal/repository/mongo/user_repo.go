package mongo

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user document. Embedded arrays are initialised so that
// later $push / $addToSet updates never hit a null field.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.UserID == "" || user.Name == "" {
		return primitive.NilObjectID, errors.New("userId and name are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	initUserArrays(user)

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves a user by identity-provider id.
func (r *mongoUserRepository) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes the provided profile fields and appends history entries
// in a single update.
func (r *mongoUserRepository) UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, profileUpdateDoc(update, time.Now().UTC()))
	return updateResultErr(result, err, false)
}

// SetAvatarKey records the object-storage key of the user's uploaded avatar.
func (r *mongoUserRepository) SetAvatarKey(ctx context.Context, userID, objectKey string) error {
	update := bson.M{
		"$set": bson.M{
			"profile.avatarKey": objectKey,
			"updatedAt":         time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

// DeleteByUserID removes the whole user document, workouts included.
func (r *mongoUserRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) AddFavExercise(ctx context.Context, userID, exerciseID string) error {
	update := bson.M{"$addToSet": bson.M{"favExercises": exerciseID}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

func (r *mongoUserRepository) RemoveFavExercise(ctx context.Context, userID, exerciseID string) error {
	update := bson.M{"$pull": bson.M{"favExercises": exerciseID}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

// AddSavedWorkout bookmarks a workout; $addToSet keeps the list free of duplicates.
func (r *mongoUserRepository) AddSavedWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error {
	update := bson.M{"$addToSet": bson.M{"savedWorkouts": domain.SavedWorkout{WorkoutID: workoutID}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

func (r *mongoUserRepository) RemoveSavedWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"savedWorkouts": bson.M{"workoutId": workoutID}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

// profileUpdateDoc builds the $set / $push document of a partial profile update.
func profileUpdateDoc(update repository.ProfileUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if update.Name != "" {
		set["name"] = update.Name
	}
	p := update.Profile
	if p.Age != nil {
		set["profile.age"] = *p.Age
	}
	if p.Gender != nil {
		set["profile.gender"] = *p.Gender
	}
	if p.Weight != nil {
		set["profile.weight"] = *p.Weight
	}
	if p.Height != nil {
		set["profile.height"] = *p.Height
	}
	if p.BodyFat != nil {
		set["profile.bodyFat"] = *p.BodyFat
	}

	doc := bson.M{"$set": set}
	push := bson.M{}
	if update.WeightEntry != nil {
		push["weightHistory"] = *update.WeightEntry
	}
	if update.BodyFatEntry != nil {
		push["bodyFatHistory"] = *update.BodyFatEntry
	}
	if len(push) > 0 {
		doc["$push"] = push
	}
	return doc
}

func initUserArrays(user *domain.User) {
	if user.WeightHistory == nil {
		user.WeightHistory = []domain.MetricEntry{}
	}
	if user.BodyFatHistory == nil {
		user.BodyFatHistory = []domain.MetricEntry{}
	}
	if user.Workouts == nil {
		user.Workouts = []domain.Workout{}
	}
	if user.SavedWorkouts == nil {
		user.SavedWorkouts = []domain.SavedWorkout{}
	}
	if user.FavExercises == nil {
		user.FavExercises = []string{}
	}
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// owner lookup by embedded workout id ($elemMatch on workouts._id)
			Keys:    bson.D{{Key: "workouts._id", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "workouts.public", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
