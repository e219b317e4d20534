package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/cache"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/middleware"
	"github.com/chathub-dev/chathub/pkg/pglistener"
)

type StreamController struct {
	app      application.Application
	groups   *services.GroupService
	cache    *cache.Client
	listener *pglistener.Listener
	basePath string
}

func NewStreamController(app application.Application, listener *pglistener.Listener) application.Controller {
	return &StreamController{
		app:      app,
		groups:   app.Service(services.GroupService{}).(*services.GroupService),
		cache:    app.Cache(),
		listener: listener,
		basePath: "/stream",
	}
}

func (c *StreamController) Key() string {
	return c.basePath
}

func (c *StreamController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Health).Methods(http.MethodGet)

	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/health", c.Health).Methods(http.MethodGet)

	authRouter := r.PathPrefix(c.basePath).Subrouter()
	authRouter.Use(middleware.Authorize(configuration.Use().Auth.Secret))
	authRouter.HandleFunc("/group", c.StreamGroup).Methods(http.MethodGet)
	authRouter.HandleFunc("/all", c.StreamAll).Methods(http.MethodGet)
	authRouter.HandleFunc("/test", c.TestNotification).Methods(http.MethodPost)
	authRouter.Handle("/ws", c.app.Websocket()).Methods(http.MethodGet)
}

// StreamGroup streams one group's events over SSE. The subscription is
// per-request: each client gets its own redis pub/sub connection.
func (c *StreamController) StreamGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	raw := r.URL.Query().Get("group_uuid")
	groupID, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "STREAM_INVALID_GROUP", "group_uuid parameter required")
		return
	}

	member, err := c.groups.IsMember(r.Context(), groupID, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !member {
		writeAPIError(w, r, http.StatusForbidden, "GROUP_NOT_MEMBER", "not a member of this group")
		return
	}

	c.serveSSE(w, r, fmt.Sprintf(`{"type":"connected","group_uuid":%q}`, groupID), group.EventChannel(groupID))
}

// StreamAll streams events from every group the user belongs to.
func (c *StreamController) StreamAll(w http.ResponseWriter, r *http.Request) {
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	memberships, err := c.groups.GroupsForUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if len(memberships) == 0 {
		writeAPIError(w, r, http.StatusBadRequest, "STREAM_NO_GROUPS", "user is not a member of any groups")
		return
	}

	channels := make([]string, 0, len(memberships))
	groupIDs := make([]string, 0, len(memberships))
	for _, p := range memberships {
		channels = append(channels, group.EventChannel(p.GroupUUID))
		groupIDs = append(groupIDs, p.GroupUUID.String())
	}

	hello, _ := json.Marshal(map[string]any{"type": "connected", "groups": groupIDs})
	c.serveSSE(w, r, string(hello), channels...)
}

func (c *StreamController) serveSSE(w http.ResponseWriter, r *http.Request, hello string, channels ...string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIError(w, r, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "data: %s\n\n", hello)
	flusher.Flush()

	sub := c.cache.Subscribe(r.Context(), channels...)
	defer func() { _ = sub.Close() }()

	log := composables.UseLogger(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-sub.Channel():
			if !open {
				log.Warn("pubsub channel closed, ending stream")
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		}
	}
}

// TestNotification pushes a synthetic event through the whole pipeline.
func (c *StreamController) TestNotification(w http.ResponseWriter, r *http.Request) {
	if err := c.listener.TestNotification(r.Context()); err != nil {
		if errors.Is(err, pglistener.ErrNotListening) {
			writeAPIError(w, r, http.StatusServiceUnavailable, "LISTENER_NOT_READY", "change listener is not listening")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "LISTENER_TEST_FAILED", "failed to send test notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Test notification sent"})
}

// Health reports the state of the realtime pipeline's dependencies.
func (c *StreamController) Health(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"listener": c.listener.State().String(),
	}
	healthy := c.listener.IsListening()

	if err := c.app.DB().Ping(r.Context()); err != nil {
		components["postgres"] = err.Error()
		healthy = false
	} else {
		components["postgres"] = "connected"
	}

	if err := c.cache.Ping(r.Context()); err != nil {
		components["redis"] = err.Error()
		healthy = false
	} else {
		components["redis"] = "connected"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
	})
}
