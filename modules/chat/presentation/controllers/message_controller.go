package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/presentation/mappers"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/middleware"
)

type MessageController struct {
	app      application.Application
	messages *services.MessageService
	basePath string
}

func NewMessageController(app application.Application) application.Controller {
	return &MessageController{
		app:      app,
		messages: app.Service(services.MessageService{}).(*services.MessageService),
		basePath: "/messages",
	}
}

func (c *MessageController) Key() string {
	return c.basePath
}

func (c *MessageController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/search", c.Search).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)

	authRouter := r.PathPrefix(c.basePath).Subrouter()
	authRouter.Use(middleware.Authorize(configuration.Use().Auth.Secret))
	authRouter.HandleFunc("", c.Create).Methods(http.MethodPost)
	authRouter.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
	authRouter.HandleFunc("/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
}

func pathMessageID(r *http.Request) (int64, bool) {
	raw, ok := mux.Vars(r)["id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *MessageController) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	var dto message.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "MESSAGE_VALIDATION_FAILED", firstValidationMessage(errs))
		return
	}

	created, err := c.messages.Create(r.Context(), userID, &dto)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Message sent successfully",
		"data":    mappers.MessageToViewModel(created),
	})
}

func (c *MessageController) List(w http.ResponseWriter, r *http.Request) {
	params := paginationParams(r)

	if raw := r.URL.Query().Get("group_uuid"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_FILTER", "invalid group_uuid filter")
			return
		}
		params.GroupID = &id
	}
	if raw := r.URL.Query().Get("sender_uuid"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_FILTER", "invalid sender_uuid filter")
			return
		}
		params.SenderID = &id
	}

	items, total, err := c.messages.GetPaginated(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages":   mappers.MessagesToViewModels(items),
		"pagination": mappers.NewPagination(params.Page, params.PerPage, total),
	})
}

func (c *MessageController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathMessageID(r)
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_ID", "invalid message id")
		return
	}

	m, err := c.messages.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.MessageToViewModel(m))
}

func (c *MessageController) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_SEARCH_QUERY_REQUIRED", "search query is required")
		return
	}

	params := &message.SearchParams{Query: query, Limit: configuration.Use().PageSize}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 && v <= configuration.Use().MaxPageSize {
		params.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		params.Offset = v
	}

	items, err := c.messages.Search(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": mappers.MessagesToViewModels(items),
		"total":   len(items),
	})
}

func (c *MessageController) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	id, ok := pathMessageID(r)
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_ID", "invalid message id")
		return
	}

	var dto message.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "MESSAGE_VALIDATION_FAILED", firstValidationMessage(errs))
		return
	}

	updated, err := c.messages.Update(r.Context(), userID, id, &dto)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Message updated successfully",
		"data":    mappers.MessageToViewModel(updated),
	})
}

func (c *MessageController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	id, ok := pathMessageID(r)
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "MESSAGE_INVALID_ID", "invalid message id")
		return
	}

	if err := c.messages.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Message deleted successfully"})
}
