package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/presentation/mappers"
	"github.com/chathub-dev/chathub/modules/chat/presentation/viewmodels"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/middleware"
)

type GroupController struct {
	app      application.Application
	groups   *services.GroupService
	basePath string
}

func NewGroupController(app application.Application) application.Controller {
	return &GroupController{
		app:      app,
		groups:   app.Service(services.GroupService{}).(*services.GroupService),
		basePath: "/groups",
	}
}

func (c *GroupController) Key() string {
	return c.basePath
}

func (c *GroupController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}/participants", c.Participants).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}/messages", c.Messages).Methods(http.MethodGet)

	authRouter := r.PathPrefix(c.basePath).Subrouter()
	authRouter.Use(middleware.Authorize(configuration.Use().Auth.Secret))
	authRouter.HandleFunc("", c.Create).Methods(http.MethodPost)
	authRouter.HandleFunc("/{uuid}", c.Delete).Methods(http.MethodDelete)
	authRouter.HandleFunc("/{uuid}/join", c.Join).Methods(http.MethodPost)
	authRouter.HandleFunc("/{uuid}/leave", c.Leave).Methods(http.MethodPost)
}

func (c *GroupController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	created, err := c.groups.Create(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Group created successfully",
		"group":   mappers.GroupToViewModel(created),
	})
}

func (c *GroupController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.groups.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]viewmodels.Group, 0, len(items))
	for _, g := range items {
		out = append(out, mappers.GroupToViewModel(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (c *GroupController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	g, err := c.groups.GetByUUID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.GroupToViewModel(g))
}

func (c *GroupController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	if err := c.groups.Delete(r.Context(), id, userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Group deleted successfully"})
}

func (c *GroupController) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	p, err := c.groups.Join(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Joined group successfully",
		"participant": mappers.ParticipantToViewModel(p),
	})
}

func (c *GroupController) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	if err := c.groups.Leave(r.Context(), id, userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Left group successfully"})
}

func (c *GroupController) Participants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	items, err := c.groups.Participants(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]viewmodels.Participant, 0, len(items))
	for _, p := range items {
		out = append(out, mappers.ParticipantToViewModel(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": out})
}

func (c *GroupController) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "GROUP_INVALID_UUID", "invalid group uuid")
		return
	}

	params := paginationParams(r)
	items, total, err := c.groups.Messages(r.Context(), id, params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages":   mappers.MessagesToViewModels(items),
		"pagination": mappers.NewPagination(params.Page, params.PerPage, total),
	})
}

// paginationParams reads page/per_page query parameters, clamping to the
// configured bounds.
func paginationParams(r *http.Request) *message.FindParams {
	conf := configuration.Use()
	params := &message.FindParams{Page: 1, PerPage: conf.PageSize}

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 1 {
		params.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v >= 1 && v <= conf.MaxPageSize {
		params.PerPage = v
	}
	return params
}
