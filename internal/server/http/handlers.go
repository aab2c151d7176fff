package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/dto"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		h.log.Warn(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", common.ErrorNotFound)
	}
	return id, nil
}

// auth

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewUser(u))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var creds services.Credentials
	if err := readJSON(w, r, &creds); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	pair, err := h.Auth.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTokenPair(pair))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	pair, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTokenPair(pair))
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var in services.PasswordChange
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := h.Auth.ChangePassword(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUser(u))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), userFrom(r.Context())); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail{Detail: "Logged out successfully"})
}

// users

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewUser(u))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Map(list, dto.NewUser))
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewUser(userFrom(r.Context())))
}

func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := h.Users.UpdateProfile(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUser(u))
}

func (h *handler) deactivateMe(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Deactivate(r.Context(), userFrom(r.Context())); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail{Detail: "Account deactivated"})
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUser(u))
}

func (h *handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.Avatars.PresignUpload(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AvatarUpload{Key: key, UploadURL: url})
}

func (h *handler) getAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	url, err := h.Avatars.PresignDownload(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// projects

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var in services.ProjectInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.Projects.Create(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewProject(p))
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.Projects.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Map(list, dto.NewProject))
}

func (h *handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.Projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProject(p))
}

func (h *handler) joinProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	m, err := h.Projects.Join(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewMember(m))
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	list, err := h.Projects.Members(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Map(list, dto.NewMember))
}
