// Package dto defines the JSON views of server records shared by the HTTP
// and gRPC transports.
package dto

import (
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

// User is the public projection of a user; secrets never leave the server.
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

func NewUser(u *models.User) User {
	return User{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Bio:        u.Bio,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func NewTokenPair(p *models.TokenPair) TokenPair {
	return TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: p.TokenType}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
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

func NewProject(p *models.Project) Project {
	tags, stack := p.Tags, p.TechStack
	if tags == nil {
		tags = []string{}
	}
	if stack == nil {
		stack = []string{}
	}
	return Project{
		ID:                  p.ID,
		Title:               p.Title,
		ShortDescription:    p.ShortDescription,
		DetailedDescription: p.DetailedDescription,
		Difficulty:          p.Difficulty,
		Status:              p.Status,
		MaxTeamMembers:      p.MaxTeamMembers,
		Tags:                tags,
		TechStack:           stack,
		RepositoryURL:       p.RepositoryURL,
		LiveDemoURL:         p.LiveDemoURL,
		OwnerID:             p.OwnerID,
		CreatedAt:           p.CreatedAt,
	}
}

type Member struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

func NewMember(m *models.ProjectMember) Member {
	return Member{ID: m.ID, UserID: m.UserID, ProjectID: m.ProjectID, Role: m.Role, JoinedAt: m.JoinedAt}
}

func Map[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
