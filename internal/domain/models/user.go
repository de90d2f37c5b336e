// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// ExternalAccounts holds identifiers from external sign-in providers.
type ExternalAccounts struct {
	Yandex string `bson:"yandex,omitempty" json:"yandex,omitempty"`
	VK     string `bson:"vk,omitempty" json:"vk,omitempty"`
}

// SquadInfo is the applicant's student-squad affiliation.
type SquadInfo struct {
	Direction string `bson:"direction,omitempty" json:"direction,omitempty"`
	Squad     string `bson:"squad,omitempty" json:"squad,omitempty"`
}

// User represents every account in the portal: applicants, experts,
// event managers, moderators, and admins. The role field decides which
// tiers of the API the account may call.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"user_id"`
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"-"` // lowercase fold for unique index
	PassHash   string             `bson:"pass_hash,omitempty" json:"-"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	FirstName  string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName   string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	MiddleName string             `bson:"middle_name,omitempty" json:"middle_name,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	City       string             `bson:"city,omitempty" json:"city,omitempty"`
	Gender     string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Birthday   string             `bson:"birthday,omitempty" json:"birthday,omitempty"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`

	External ExternalAccounts `bson:"external_accounts,omitempty" json:"external_service_accounts"`
	Squad    SquadInfo        `bson:"squad_info,omitempty" json:"squad_info"`

	Role   roles.Role `bson:"role" json:"role_name"`
	Status string     `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the abbreviated user shape for listings and pickers.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"user_id"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email" json:"email"`
	Role     roles.Role         `bson:"role" json:"role_name"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}
