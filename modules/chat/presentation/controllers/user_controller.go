package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/modules/chat/presentation/mappers"
	"github.com/chathub-dev/chathub/modules/chat/presentation/viewmodels"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/middleware"
)

type UserController struct {
	app      application.Application
	users    *services.UserService
	basePath string
}

func NewUserController(app application.Application) application.Controller {
	return &UserController{
		app:      app,
		users:    app.Service(services.UserService{}).(*services.UserService),
		basePath: "/users",
	}
}

func (c *UserController) Key() string {
	return c.basePath
}

func (c *UserController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}/messages", c.Messages).Methods(http.MethodGet)
	router.HandleFunc("/{uuid}/groups", c.Groups).Methods(http.MethodGet)

	meRouter := r.PathPrefix(c.basePath).Subrouter()
	meRouter.Use(middleware.Authorize(configuration.Use().Auth.Secret))
	meRouter.HandleFunc("/me", c.UpdateMe).Methods(http.MethodPut)
	meRouter.HandleFunc("/me", c.DeleteMe).Methods(http.MethodDelete)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	items, err := c.users.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]viewmodels.User, 0, len(items))
	for _, u := range items {
		out = append(out, mappers.UserToViewModel(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (c *UserController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_UUID", "invalid user uuid")
		return
	}

	u, err := c.users.GetByUUID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(u))
}

func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	var dto user.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "USER_VALIDATION_FAILED", firstValidationMessage(errs))
		return
	}

	updated, err := c.users.Update(r.Context(), userID, &dto)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    mappers.UserToViewModel(updated),
	})
}

func (c *UserController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	if err := c.users.Delete(r.Context(), userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
}

func (c *UserController) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_UUID", "invalid user uuid")
		return
	}

	items, err := c.users.Messages(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": mappers.MessagesToViewModels(items)})
}

func (c *UserController) Groups(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "uuid")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_UUID", "invalid user uuid")
		return
	}

	items, err := c.users.Groups(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]viewmodels.Participant, 0, len(items))
	for _, p := range items {
		out = append(out, mappers.ParticipantToViewModel(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}
