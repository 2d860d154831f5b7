// internal/repository/mongo/workout_repo.go
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

// mongoWorkoutRepository implements repository.WorkoutRepository on the
// workouts array embedded in the users collection.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(userCollectionName),
	}
}

// ownerFilter addresses one embedded workout of one user.
func ownerFilter(userID string, workoutID primitive.ObjectID) bson.M {
	return bson.M{"userId": userID, "workouts._id": workoutID}
}

// Append pushes the workout and reads back the last element of the array.
func (r *mongoWorkoutRepository) Append(ctx context.Context, userID string, workout domain.Workout) (*domain.Workout, error) {
	return r.pushWorkout(ctx, bson.M{"userId": userID}, workout)
}

// AppendIfNameAbsent pushes the workout only if no workout of the user
// carries the same name. The name check is part of the update filter.
func (r *mongoWorkoutRepository) AppendIfNameAbsent(ctx context.Context, userID string, workout domain.Workout) (*domain.Workout, error) {
	filter := bson.M{"userId": userID, "workouts.name": bson.M{"$ne": workout.Name}}
	created, err := r.pushWorkout(ctx, filter, workout)
	if !errors.Is(err, repository.ErrNotFound) {
		return created, err
	}

	// Tell a missing user apart from a name clash.
	n, cErr := r.collection.CountDocuments(ctx, bson.M{"userId": userID})
	if cErr != nil {
		return nil, cErr
	}
	if n > 0 {
		return nil, repository.ErrDuplicate
	}
	return nil, repository.ErrNotFound
}

func (r *mongoWorkoutRepository) pushWorkout(ctx context.Context, filter bson.M, workout domain.Workout) (*domain.Workout, error) {
	update := bson.M{
		"$push": bson.M{"workouts": workout},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"workouts": bson.M{"$slice": -1}})

	var user domain.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if len(user.Workouts) == 0 {
		return nil, repository.ErrNotFound
	}
	return &user.Workouts[len(user.Workouts)-1], nil
}

// Update applies a partial patch to one workout in one conditional update.
func (r *mongoWorkoutRepository) Update(ctx context.Context, userID string, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error) {
	return r.findAndModifyWorkout(ctx, ownerFilter(userID, workoutID), workoutPatchDoc(patch, time.Now().UTC()), workoutID)
}

// SetExerciseSets replaces the sets of one exercise using array filters, so
// user, workout and exercise must all match for anything to be written.
func (r *mongoWorkoutRepository) SetExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID, sets []domain.SetGroup) error {
	filter := bson.M{
		"userId": userID,
		"workouts": bson.M{"$elemMatch": bson.M{
			"_id":           workoutID,
			"exercises._id": exerciseID,
		}},
	}
	update := bson.M{
		"$set": bson.M{
			"workouts.$[w].exercises.$[e].sets": sets,
			"updatedAt":                         time.Now().UTC(),
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"w._id": workoutID},
			bson.M{"e._id": exerciseID},
		},
	})

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return updateResultErr(result, err, false)
}

// PullExercise removes an exercise from a workout. ErrNotModified means the
// workout exists but has no such exercise.
func (r *mongoWorkoutRepository) PullExercise(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"workouts.$.exercises": bson.M{"_id": exerciseID}}}
	result, err := r.collection.UpdateOne(ctx, ownerFilter(userID, workoutID), update)
	return updateResultErr(result, err, true)
}

func (r *mongoWorkoutRepository) Delete(ctx context.Context, userID string, workoutID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"workouts": bson.M{"_id": workoutID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, ownerFilter(userID, workoutID), update)
	return updateResultErr(result, err, false)
}

func (r *mongoWorkoutRepository) DeleteAll(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{
		"workouts":  []domain.Workout{},
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return updateResultErr(result, err, false)
}

// FindOwner scans the collection for the user owning workoutID.
func (r *mongoWorkoutRepository) FindOwner(ctx context.Context, workoutID primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"workouts": bson.M{"$elemMatch": bson.M{"_id": workoutID}}}
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *mongoWorkoutRepository) AddLike(ctx context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error) {
	update := bson.M{"$addToSet": bson.M{"workouts.$.likes": likerID}}
	return r.findAndModifyWorkout(ctx, ownerFilter(ownerID, workoutID), update, workoutID)
}

func (r *mongoWorkoutRepository) RemoveLike(ctx context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error) {
	update := bson.M{"$pull": bson.M{"workouts.$.likes": likerID}}
	return r.findAndModifyWorkout(ctx, ownerFilter(ownerID, workoutID), update, workoutID)
}

func (r *mongoWorkoutRepository) AddComment(ctx context.Context, ownerID string, workoutID primitive.ObjectID, comment domain.Comment) (*domain.Workout, error) {
	update := bson.M{"$push": bson.M{"workouts.$.comments": comment}}
	return r.findAndModifyWorkout(ctx, ownerFilter(ownerID, workoutID), update, workoutID)
}

func (r *mongoWorkoutRepository) RemoveComment(ctx context.Context, ownerID string, workoutID, commentID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"workouts.$.comments": bson.M{"_id": commentID}}}
	result, err := r.collection.UpdateOne(ctx, ownerFilter(ownerID, workoutID), update)
	return updateResultErr(result, err, true)
}

func (r *mongoWorkoutRepository) AddSave(ctx context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error {
	update := bson.M{"$addToSet": bson.M{"workouts.$.saves": saverID}}
	result, err := r.collection.UpdateOne(ctx, ownerFilter(ownerID, workoutID), update)
	return updateResultErr(result, err, false)
}

func (r *mongoWorkoutRepository) RemoveSave(ctx context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error {
	update := bson.M{"$pull": bson.M{"workouts.$.saves": saverID}}
	result, err := r.collection.UpdateOne(ctx, ownerFilter(ownerID, workoutID), update)
	return updateResultErr(result, err, false)
}

// findAndModifyWorkout runs an update against one embedded workout and returns
// that workout as it is after the update.
func (r *mongoWorkoutRepository) findAndModifyWorkout(ctx context.Context, filter, update bson.M, workoutID primitive.ObjectID) (*domain.Workout, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	workout, ok := user.FindWorkout(workoutID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return workout, nil
}

// workoutPatchDoc builds the positional update of a workout patch.
func workoutPatchDoc(patch repository.WorkoutPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if patch.Name != nil {
		set["workouts.$.name"] = *patch.Name
	}
	if patch.Public != nil {
		set["workouts.$.public"] = *patch.Public
		set["workouts.$.postDate"] = patch.PostDate
	}
	if patch.Comments != nil {
		set["workouts.$.comments"] = patch.Comments
	}

	doc := bson.M{"$set": set}
	if len(patch.AppendExercises) > 0 {
		doc["$push"] = bson.M{"workouts.$.exercises": bson.M{"$each": patch.AppendExercises}}
	}
	return doc
}
