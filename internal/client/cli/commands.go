package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/nestdevhive/internal/client/client"
	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/dmitrijs2005/nestdevhive/internal/common"
)

// getSimpleText, getPassword and getList are indirections swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getList       = GetList
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// sessionLost drops the local login when the server no longer accepts it.
func (a *App) sessionLost(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.setLogin("")
		return fmt.Errorf("%w; please log in again", err)
	}
	return err
}

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.authService.Register(ctx, email, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d). You can log in now.\n", u.Username, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.authService.Login(ctx, login, password); err != nil {
		return err
	}

	a.setLogin(login)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err := a.authService.Logout(ctx)
	a.setLogin("")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.authService.Me(ctx)
	if err != nil {
		return a.sessionLost(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", u.ID)
	fmt.Fprintf(tw, "email\t%s\n", u.Email)
	fmt.Fprintf(tw, "username\t%s\n", u.Username)
	fmt.Fprintf(tw, "active\t%t\n", u.IsActive)
	fmt.Fprintf(tw, "verified\t%t\n", u.IsVerified)
	fmt.Fprintf(tw, "bio\t%s\n", deref(u.Bio))
	fmt.Fprintf(tw, "avatar\t%s\n", deref(u.AvatarURL))
	fmt.Fprintf(tw, "joined\t%s\n", u.CreatedAt.Format("2006-01-02"))
	return tw.Flush()
}

func (a *App) ChangePassword(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	oldPassword, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.authService.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}

	a.setLogin("")
	fmt.Fprintln(a.out, "Password changed. Please log in again.")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.authService.Refresh(ctx); err != nil {
		return a.sessionLost(err)
	}
	fmt.Fprintln(a.out, "Access token refreshed")
	return nil
}

func (a *App) UploadAvatar(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: avatar <file>")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, err := a.authService.UploadAvatar(ctx, args[0])
	if err != nil {
		return a.sessionLost(err)
	}
	fmt.Fprintf(a.out, "Avatar uploaded as %s\n", key)
	return nil
}

func (a *App) ListProjects(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	list, err := a.projectService.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No projects yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tSTATUS\tTEAM")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Difficulty, p.Status, p.MaxTeamMembers)
	}
	return tw.Flush()
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("usage: " + usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func (a *App) ShowProject(ctx context.Context, args []string) error {
	id, err := parseID(args, "project <id>")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	p, err := a.projectService.Get(ctx, id)
	if err != nil {
		return err
	}
	printProject(a, p)
	return nil
}

func printProject(a *App, p *models.Project) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", p.ID)
	fmt.Fprintf(tw, "title\t%s\n", p.Title)
	fmt.Fprintf(tw, "description\t%s\n", p.ShortDescription)
	fmt.Fprintf(tw, "difficulty\t%s\n", p.Difficulty)
	fmt.Fprintf(tw, "status\t%s\n", p.Status)
	fmt.Fprintf(tw, "team size\t%d\n", p.MaxTeamMembers)
	fmt.Fprintf(tw, "tags\t%s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(tw, "tech stack\t%s\n", strings.Join(p.TechStack, ", "))
	fmt.Fprintf(tw, "repository\t%s\n", deref(p.RepositoryURL))
	fmt.Fprintf(tw, "owner\t%d\n", p.OwnerID)
	_ = tw.Flush()
}

func (a *App) CreateProject(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	var in models.ProjectInput
	var err error
	if in.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if in.ShortDescription, err = getSimpleText(a.reader, "Short description", a.out); err != nil {
		return err
	}
	if in.Difficulty, err = getSimpleText(a.reader, "Difficulty (e.g. beginner, intermediate, advanced)", a.out); err != nil {
		return err
	}
	if in.Tags, err = getList(a.reader, "Tags", a.out); err != nil {
		return err
	}
	if in.TechStack, err = getList(a.reader, "Tech stack", a.out); err != nil {
		return err
	}
	repo, err := getSimpleText(a.reader, "Repository URL (empty for none)", a.out)
	if err != nil {
		return err
	}
	if repo != "" {
		in.RepositoryURL = &repo
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	p, err := a.projectService.Create(ctx, in)
	if err != nil {
		return a.sessionLost(err)
	}
	fmt.Fprintf(a.out, "Created project %d\n", p.ID)
	return nil
}

func (a *App) JoinProject(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args, "join <id>")
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	m, err := a.projectService.Join(ctx, id)
	if err != nil {
		return a.sessionLost(err)
	}
	fmt.Fprintf(a.out, "Joined project %d as %s\n", m.ProjectID, m.Role)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
