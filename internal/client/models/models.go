// Package models holds the records the CLI exchanges with the server and keeps
// locally.
package models

import "time"

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	Bio        *string   `json:"bio"`
	AvatarURL  *string   `json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AvatarUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

type Project struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	ShortDescription    string    `json:"short_description"`
	DetailedDescription *string   `json:"detailed_description"`
	Difficulty          string    `json:"difficulty"`
	Status              string    `json:"status"`
	MaxTeamMembers      int       `json:"max_team_members"`
	Tags                []string  `json:"tags"`
	TechStack           []string  `json:"tech_stack"`
	RepositoryURL       *string   `json:"repository_url"`
	LiveDemoURL         *string   `json:"live_demo_url"`
	OwnerID             int64     `json:"owner_id"`
	CreatedAt           time.Time `json:"created_at"`
}

// ProjectInput is what the CLI sends to create a project; empty optional
// fields are left to the server's defaults.
type ProjectInput struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags,omitempty"`
	TechStack        []string `json:"tech_stack,omitempty"`
	RepositoryURL    *string  `json:"repository_url,omitempty"`
}

type Member struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Session is a login persisted between CLI runs, one per server address.
type Session struct {
	Server       string
	Login        string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}
