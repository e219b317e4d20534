package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/modules/chat/testhelpers"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/eventbus"
)

type testEnv struct {
	app      application.Application
	users    *testhelpers.UserRepo
	groups   *testhelpers.GroupRepo
	messages *testhelpers.MessageRepo
	router   *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conf := configuration.Use()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := testhelpers.NewUserRepo()
	groups := testhelpers.NewGroupRepo()
	messages := testhelpers.NewMessageRepo()

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterServices(
		services.NewAuthService(users, conf.Auth.Secret, conf.Auth.TokenDuration),
		services.NewUserService(users, groups, messages),
		services.NewGroupService(groups, messages),
		services.NewMessageService(messages, groups, nil, conf.MessageCacheTTL),
	)

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithTx(r.Context(), testhelpers.StubTx{})))
		})
	})
	for _, c := range []application.Controller{
		NewAuthController(app),
		NewUserController(app),
		NewGroupController(app),
		NewMessageController(app),
	} {
		c.Register(router)
	}

	return &testEnv{
		app:      app,
		users:    users,
		groups:   groups,
		messages: messages,
		router:   router,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerUser signs a user up through the real endpoint and returns its
// uuid and access token.
func (e *testEnv) registerUser(t *testing.T, name string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	u, _ := body["user"].(map[string]any)
	require.NotNil(t, u)
	id, _ := u["uuid"].(string)
	require.NotEmpty(t, id)
	return id, token
}

// createGroup makes a group owned by the given token's user and returns its
// uuid.
func (e *testEnv) createGroup(t *testing.T, token string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/groups", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	g, _ := body["group"].(map[string]any)
	require.NotNil(t, g)
	id, _ := g["uuid"].(string)
	require.NotEmpty(t, id)
	return id
}
