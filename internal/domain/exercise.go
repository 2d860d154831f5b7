// internal/domain/exercise.go
package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is embedded in a Workout. CatalogID points into the external
// exercise catalog; ID identifies this occurrence inside the workout.
type Exercise struct {
	ID               primitive.ObjectID `bson:"_id" json:"_id"`
	CatalogID        string             `bson:"id" json:"id"`
	Name             string             `bson:"name" json:"name"`
	BodyPart         string             `bson:"bodyPart,omitempty" json:"bodyPart,omitempty"`
	Equipment        string             `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Target           string             `bson:"target,omitempty" json:"target,omitempty"`
	SecondaryMuscles []string           `bson:"secondaryMuscles" json:"secondaryMuscles"`
	Instructions     []string           `bson:"instructions" json:"instructions"`
	GifURL           string             `bson:"gifUrl,omitempty" json:"gifUrl,omitempty"`
	Sets             []SetGroup         `bson:"sets" json:"sets"`
}

// Fresh returns a copy with a new identifier and non-nil slices.
func (e Exercise) Fresh() Exercise {
	e.ID = primitive.NewObjectID()
	if e.SecondaryMuscles == nil {
		e.SecondaryMuscles = []string{}
	}
	if e.Instructions == nil {
		e.Instructions = []string{}
	}
	sets := make([]SetGroup, len(e.Sets))
	copy(sets, e.Sets)
	e.Sets = sets
	return e
}
