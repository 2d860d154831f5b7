package mongo

import (
	"alcyxob/fitness-social/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoFeedRepository implements repository.FeedRepository with an aggregation
// over the users collection.
type mongoFeedRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedRepository creates a new Feed repository.
func NewMongoFeedRepository(db *mongo.Database) repository.FeedRepository {
	return &mongoFeedRepository{
		collection: db.Collection(userCollectionName),
	}
}

// PublicWorkouts returns one page of public workouts, newest first.
func (r *mongoFeedRepository) PublicWorkouts(ctx context.Context, page, itemsPerPage int) ([]repository.FeedRow, error) {
	cursor, err := r.collection.Aggregate(ctx, publicWorkoutsPipeline(page, itemsPerPage))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []repository.FeedRow{}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// publicWorkoutsPipeline unwinds every user's workouts, keeps the public ones,
// orders them by workout _id (time-ordered), pages, and joins the commenters.
// Paging happens before the join so the join only touches one page.
func publicWorkoutsPipeline(page, itemsPerPage int) mongo.Pipeline {
	skip := int64(page-1) * int64(itemsPerPage)
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$workouts"}},
		{{Key: "$match", Value: bson.D{{Key: "workouts.public", Value: true}}}},
		{{Key: "$sort", Value: bson.D{{Key: "workouts._id", Value: -1}}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: int64(itemsPerPage)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: userCollectionName},
			{Key: "localField", Value: "workouts.comments.userId"},
			{Key: "foreignField", Value: "userId"},
			{Key: "as", Value: "commenters"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "userId", Value: 1},
			{Key: "name", Value: 1},
			{Key: "avatarKey", Value: "$profile.avatarKey"},
			{Key: "workout", Value: "$workouts"},
			{Key: "commenters", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$commenters"},
				{Key: "as", Value: "c"},
				{Key: "in", Value: bson.D{
					{Key: "userId", Value: "$$c.userId"},
					{Key: "name", Value: "$$c.name"},
					{Key: "avatarKey", Value: "$$c.profile.avatarKey"},
				}},
			}}}},
		}}},
	}
}
