package services

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/security/password"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// invalid marks err as a validation failure while keeping the field errors
// reachable through errors.As.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrorValidation, err)
}

// passwordBytes enforces bcrypt's input limit; Length counts bytes for strings.
var passwordBytes = validation.Length(0, password.MaxLength)

// httpURL accepts only absolute http(s) URLs.
var httpURL = validation.By(func(v any) error {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	}
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
})

// eachString applies rules to every element of a string list.
func eachString(rules ...validation.Rule) validation.Rule {
	return validation.By(func(v any) error {
		list, _ := v.([]string)
		for i, item := range list {
			if err := validation.Validate(item, rules...); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	})
}

// Usernames are free text; only the length is bounded.
var usernameRules = []validation.Rule{
	validation.Length(1, 100),
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Username, append([]validation.Rule{validation.Required}, usernameRules...)...),
		validation.Field(&in.Password, validation.Required, passwordBytes),
	))
}

// Credentials identify a user at login, by email or, when Email is empty, by username.
type Credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	return invalid(validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.By(func(any) error {
			if c.Email == "" && c.Username == "" {
				return errors.New("email or username is required")
			}
			return nil
		}), is.Email),
		validation.Field(&c.Password, validation.Required, passwordBytes),
	))
}

// PasswordChange is the payload of a password change.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (p PasswordChange) Validate() error {
	return invalid(validation.ValidateStruct(&p,
		validation.Field(&p.OldPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, passwordBytes),
	))
}

// ProfileInput is the payload of a profile update; absent fields stay unchanged.
type ProfileInput struct {
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

func (p ProfileInput) Validate() error {
	return invalid(validation.ValidateStruct(&p,
		validation.Field(&p.Username, append([]validation.Rule{validation.NilOrNotEmpty}, usernameRules...)...),
		validation.Field(&p.Bio, validation.Length(0, 500)),
		validation.Field(&p.AvatarURL, httpURL),
	))
}

func (p ProfileInput) toModel() models.ProfileUpdate {
	return models.ProfileUpdate{Username: p.Username, Bio: p.Bio, AvatarURL: p.AvatarURL}
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Title               string   `json:"title"`
	ShortDescription    string   `json:"short_description"`
	DetailedDescription *string  `json:"detailed_description"`
	Difficulty          string   `json:"difficulty"`
	Status              string   `json:"status"`
	MaxTeamMembers      *int     `json:"max_team_members"`
	Tags                []string `json:"tags"`
	TechStack           []string `json:"tech_stack"`
	RepositoryURL       *string  `json:"repository_url"`
	LiveDemoURL         *string  `json:"live_demo_url"`
}

func (in ProjectInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.ShortDescription, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.Difficulty, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.Status, validation.Length(0, 50)),
		validation.Field(&in.MaxTeamMembers, validation.Min(1), validation.Max(100)),
		validation.Field(&in.Tags, eachString(validation.Required, validation.Length(1, 50))),
		validation.Field(&in.TechStack, eachString(validation.Required, validation.Length(1, 50))),
		validation.Field(&in.RepositoryURL, httpURL),
		validation.Field(&in.LiveDemoURL, httpURL),
	))
}

func (in ProjectInput) toModel(ownerID int64) *models.Project {
	p := &models.Project{
		Title:               in.Title,
		ShortDescription:    in.ShortDescription,
		DetailedDescription: in.DetailedDescription,
		Difficulty:          in.Difficulty,
		Status:              in.Status,
		MaxTeamMembers:      models.DefaultMaxTeamMembers,
		Tags:                in.Tags,
		TechStack:           in.TechStack,
		RepositoryURL:       in.RepositoryURL,
		LiveDemoURL:         in.LiveDemoURL,
		OwnerID:             ownerID,
	}
	if p.Status == "" {
		p.Status = models.StatusOpen
	}
	if in.MaxTeamMembers != nil {
		p.MaxTeamMembers = *in.MaxTeamMembers
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	return p
}
