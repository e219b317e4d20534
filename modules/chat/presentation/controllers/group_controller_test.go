package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupCreate_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/groups", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGroupCreate_EnrollsCreatorAsParticipant(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.registerUser(t, "alice")
	groupID := env.createGroup(t, token)

	rec := env.do(t, http.MethodGet, "/groups/"+groupID+"/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	participants := decodeBody(t, rec)["participants"].([]any)
	require.Len(t, participants, 1)
	require.Equal(t, userID, participants[0].(map[string]any)["user_uuid"])
}

func TestGroupGet_UnknownGroup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/groups/6e2dd217-9b70-417c-8e1a-fdbe1e8e5a6f", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "GROUP_NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestGroupGet_InvalidUUID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/groups/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupJoinAndLeave(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "alice")
	joinerID, joinerToken := env.registerUser(t, "bob")
	groupID := env.createGroup(t, ownerToken)

	rec := env.do(t, http.MethodPost, "/groups/"+groupID+"/join", joinerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody(t, rec)["participant"].(map[string]any)
	require.Equal(t, joinerID, p["user_uuid"])

	rec = env.do(t, http.MethodPost, "/groups/"+groupID+"/join", joinerToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "GROUP_ALREADY_MEMBER", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPost, "/groups/"+groupID+"/leave", joinerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/groups/"+groupID+"/participants", "", nil)
	require.Len(t, decodeBody(t, rec)["participants"].([]any), 1)
}

func TestGroupDelete_OnlyMembers(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "alice")
	_, strangerToken := env.registerUser(t, "bob")
	groupID := env.createGroup(t, ownerToken)

	rec := env.do(t, http.MethodDelete, "/groups/"+groupID, strangerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "GROUP_NOT_MEMBER", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodDelete, "/groups/"+groupID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/groups/"+groupID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupList_ReturnsAllGroups(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")
	env.createGroup(t, token)
	env.createGroup(t, token)

	rec := env.do(t, http.MethodGet, "/groups", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["groups"].([]any), 2)
}
