package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/modules/chat/presentation/mappers"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/middleware"
)

type AuthController struct {
	app      application.Application
	auth     *services.AuthService
	basePath string
}

func NewAuthController(app application.Application) application.Controller {
	return &AuthController{
		app:      app,
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		basePath: "/auth",
	}
}

func (c *AuthController) Key() string {
	return c.basePath
}

func (c *AuthController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/register", c.RegisterUser).Methods(http.MethodPost)
	router.HandleFunc("/login", c.Login).Methods(http.MethodPost)

	authRouter := r.PathPrefix(c.basePath).Subrouter()
	authRouter.Use(middleware.Authorize(configuration.Use().Auth.Secret))
	authRouter.HandleFunc("/me", c.Me).Methods(http.MethodGet)
}

func (c *AuthController) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var dto user.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "AUTH_VALIDATION_FAILED", firstValidationMessage(errs))
		return
	}

	created, token, err := c.auth.Register(r.Context(), &dto)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "User created successfully",
		"access_token": token,
		"user":         mappers.UserToViewModel(created),
	})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var dto user.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "AUTH_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "AUTH_VALIDATION_FAILED", firstValidationMessage(errs))
		return
	}

	u, token, err := c.auth.Login(r.Context(), dto.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": token,
		"user":         mappers.UserToViewModel(u),
	})
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	u, err := c.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.UserToViewModel(u))
}
