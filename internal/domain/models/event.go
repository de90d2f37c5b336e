// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event lifecycle statuses.
const (
	EventScheduled  = "scheduled"
	EventInProgress = "in_progress"
	EventCompleted  = "completed"
)

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool {
	return s == EventScheduled || s == EventInProgress || s == EventCompleted
}

// EventCreator identifies who published the event.
type EventCreator struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	FullName string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
}

// Event is a grant competition: a window during which projects are
// submitted and scored. Managers run it, experts score attached
// projects, spectators may watch, participants submit.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"event_id"`
	Title       string             `bson:"title" json:"full_title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Type        string             `bson:"event_type" json:"event_type"`
	Format      string             `bson:"format" json:"format"`
	Status      string             `bson:"status" json:"event_status"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Logo        string             `bson:"logo,omitempty" json:"logo,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Contacts    string             `bson:"contact_info,omitempty" json:"contact_info,omitempty"`

	Creator   EventCreator `bson:"creator" json:"creator_event"`
	StartDate time.Time    `bson:"start_date" json:"event_start_date"`
	EndDate   time.Time    `bson:"end_date" json:"event_end_date"`

	Managers     []primitive.ObjectID `bson:"managers,omitempty" json:"managers"`
	Experts      []primitive.ObjectID `bson:"experts,omitempty" json:"experts"`
	Spectators   []primitive.ObjectID `bson:"spectators,omitempty" json:"spectators"`
	Participants []primitive.ObjectID `bson:"participants,omitempty" json:"participants"`
	ProjectIDs   []primitive.ObjectID `bson:"project_ids,omitempty" json:"project_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EventSummary is the reduced event shape for paged listings.
type EventSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"event_id"`
	Title     string             `bson:"title" json:"full_title"`
	Type      string             `bson:"event_type" json:"event_type"`
	Format    string             `bson:"format" json:"format"`
	Status    string             `bson:"status" json:"event_status"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	StartDate time.Time          `bson:"start_date" json:"event_start_date"`
	EndDate   time.Time          `bson:"end_date" json:"event_end_date"`
}
