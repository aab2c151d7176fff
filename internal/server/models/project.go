package models

import "time"

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"

	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	DefaultMaxTeamMembers = 5
)

type Project struct {
	ID                  int64
	Title               string
	ShortDescription    string
	DetailedDescription *string
	Difficulty          string
	Status              string
	MaxTeamMembers      int
	Tags                []string
	TechStack           []string
	RepositoryURL       *string
	LiveDemoURL         *string
	OwnerID             int64
	CreatedAt           time.Time
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type ProjectMember struct {
	ID        int64
	UserID    int64
	ProjectID int64
	Role      string
	JoinedAt  time.Time
}
