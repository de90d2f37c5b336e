// internal/domain/models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one expert's rubric evaluation of one project. Criteria maps
// rubric criterion keys to scores in 1..10; a persisted review always has
// all ten (the write path refuses anything less), but readers must not
// assume it — see the rubric package.
type Review struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"review_id"`
	ProjectID    primitive.ObjectID `bson:"project_id" json:"project_id"`
	ReviewerID   primitive.ObjectID `bson:"reviewer_id" json:"reviewer_id"`
	ReviewerName string             `bson:"reviewer_name,omitempty" json:"reviewer_full_name,omitempty"`

	Criteria map[string]int `bson:"criteria_evaluation" json:"criteria_evaluation"`
	Comment  string         `bson:"expert_comment" json:"expert_comment"`

	CreatedAt time.Time `bson:"created_at" json:"create_date"`
	UpdatedAt time.Time `bson:"updated_at" json:"update_date"`
}
