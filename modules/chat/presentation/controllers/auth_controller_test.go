package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthRegister_CreatesUserWithToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "User created successfully", body["message"])
	require.NotEmpty(t, body["access_token"])

	u := body["user"].(map[string]any)
	require.Equal(t, "alice", u["name"])
}

func TestAuthRegister_RejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": "alice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "USER_NAME_TAKEN", decodeBody(t, rec)["code"])
}

func TestAuthRegister_ValidatesName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "a-name-way-longer-than-twenty-five-characters",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuthLogin_KnownAndUnknownUsers(t *testing.T) {
	env := newTestEnv(t)
	userID, _ := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"name": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["access_token"])
	require.Equal(t, userID, body["user"].(map[string]any)["uuid"])

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]any{"name": "nobody"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.registerUser(t, "alice")

	rec := env.do(t, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, decodeBody(t, rec)["uuid"])
}

func TestAuthMe_RejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
