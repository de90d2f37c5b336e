// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactInfo is how reviewers reach the project team.
type ContactInfo struct {
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
}

// BudgetItem is one planned expense line.
type BudgetItem struct {
	Title  string  `bson:"title" json:"title"`
	Amount float64 `bson:"amount" json:"amount"`
	OwnCut float64 `bson:"own_cut,omitempty" json:"own_cut,omitempty"` // self-financed portion
}

// TeamMember is one person on the project team.
type TeamMember struct {
	FullName     string `bson:"full_name" json:"full_name"`
	Role         string `bson:"role,omitempty" json:"role,omitempty"`
	Competencies string `bson:"competencies,omitempty" json:"competencies,omitempty"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
}

// ReviewRef is the cached pointer a project keeps for each submitted
// review. Score is the review's rubric total at the time it was last
// written; the reviews collection remains the source of truth.
type ReviewRef struct {
	ReviewID primitive.ObjectID `bson:"review_id" json:"review_id"`
	ExpertID primitive.ObjectID `bson:"expert_id" json:"expert_id"`
	Score    int                `bson:"score" json:"score"`
}

// Project is a grant application registered by an applicant.
type Project struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"project_id"`
	Title      string             `bson:"title" json:"title"`
	TitleCI    string             `bson:"title_ci" json:"-"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name,omitempty" json:"author_name,omitempty"`
	Region     string             `bson:"region,omitempty" json:"region,omitempty"`
	Contacts   ContactInfo        `bson:"contacts,omitempty" json:"contacts"`

	BriefInfo          string       `bson:"brief_info,omitempty" json:"brief_info,omitempty"`
	ProblemDescription string       `bson:"problem_description,omitempty" json:"problem_description,omitempty"`
	TargetGroups       string       `bson:"target_groups,omitempty" json:"target_groups,omitempty"`
	MainGoal           string       `bson:"main_goal,omitempty" json:"main_goal,omitempty"`
	Tasks              []string     `bson:"tasks,omitempty" json:"tasks,omitempty"`
	Geography          []string     `bson:"geography,omitempty" json:"geography,omitempty"`
	Team               []TeamMember `bson:"team,omitempty" json:"team,omitempty"`
	Budget             []BudgetItem `bson:"budget,omitempty" json:"budget,omitempty"`

	EventIDs []primitive.ObjectID `bson:"event_ids,omitempty" json:"event_ids,omitempty"`
	Reviews  []ReviewRef          `bson:"reviews,omitempty" json:"reviews"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProjectSummary is the reduced project shape for listings.
type ProjectSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"project_id"`
	Title      string             `bson:"title" json:"title"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name,omitempty" json:"author_name,omitempty"`
	Region     string             `bson:"region,omitempty" json:"region,omitempty"`
	Reviews    []ReviewRef        `bson:"reviews,omitempty" json:"reviews"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
