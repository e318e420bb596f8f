package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Name          string         `json:"name" bson:"name"`
	Email         string         `json:"email" bson:"email"`
	Password      string         `json:"-" bson:"password"`
	Role          string         `json:"role" bson:"role"`
	IsActive      bool           `json:"isActive" bson:"isActive"`
	LawyerProfile *LawyerProfile `json:"lawyerProfile,omitempty" bson:"lawyerProfile,omitempty"`
	CaseStats     CaseStats      `json:"caseStats" bson:"caseStats"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// LawyerProfile is only set for users with the lawyer role
type LawyerProfile struct {
	BarNumber         string   `json:"barNumber" bson:"barNumber"`
	YearsOfExperience int      `json:"yearsOfExperience" bson:"yearsOfExperience"`
	Specialization    []string `json:"specialization" bson:"specialization"`
}

// CaseStats is the lawyer workload summary. ActiveCases is overwritten by the
// daily workload rebalance.
type CaseStats struct {
	ActiveCases    int `json:"activeCases" bson:"activeCases"`
	CompletedCases int `json:"completedCases" bson:"completedCases"`
}
