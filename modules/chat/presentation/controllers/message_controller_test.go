package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type messageEnv struct {
	*testEnv
	groupID     string
	senderToken string
	otherToken  string
}

func newMessageEnv(t *testing.T) *messageEnv {
	t.Helper()
	env := newTestEnv(t)
	_, senderToken := env.registerUser(t, "alice")
	_, otherToken := env.registerUser(t, "bob")
	return &messageEnv{
		testEnv:     env,
		groupID:     env.createGroup(t, senderToken),
		senderToken: senderToken,
		otherToken:  otherToken,
	}
}

func (e *messageEnv) send(t *testing.T, token, content string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/messages", token, map[string]any{
		"content":    content,
		"group_uuid": e.groupID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	return int64(data["id"].(float64))
}

func TestMessageCreate_MembershipEnforced(t *testing.T) {
	env := newMessageEnv(t)

	rec := env.do(t, http.MethodPost, "/messages", env.otherToken, map[string]any{
		"content":    "hello",
		"group_uuid": env.groupID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "GROUP_NOT_MEMBER", decodeBody(t, rec)["code"])

	id := env.send(t, env.senderToken, "hello")
	require.Positive(t, id)
}

func TestMessageCreate_Validation(t *testing.T) {
	env := newMessageEnv(t)

	rec := env.do(t, http.MethodPost, "/messages", env.senderToken, map[string]any{
		"content":    "",
		"group_uuid": env.groupID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/messages", env.senderToken, map[string]any{
		"content": "orphan",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMessageGet_ByID(t *testing.T) {
	env := newMessageEnv(t)
	id := env.send(t, env.senderToken, "hello")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/messages/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "hello", body["content"])
	require.Equal(t, env.groupID, body["group_uuid"])

	rec = env.do(t, http.MethodGet, "/messages/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessageUpdate_OnlySender(t *testing.T) {
	env := newMessageEnv(t)
	id := env.send(t, env.senderToken, "original")

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/messages/%d", id), env.otherToken, map[string]any{
		"content": "hijacked",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "MESSAGE_NOT_SENDER", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/messages/%d", id), env.senderToken, map[string]any{
		"content": "edited",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	require.Equal(t, "edited", data["content"])
}

func TestMessageDelete_SoftDeletesAndHides(t *testing.T) {
	env := newMessageEnv(t)
	id := env.send(t, env.senderToken, "hello")

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/messages/%d", id), env.otherToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/messages/%d", id), env.senderToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/messages/%d", id), "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "MESSAGE_DELETED", decodeBody(t, rec)["code"])
}

func TestMessageList_FiltersAndPaginates(t *testing.T) {
	env := newMessageEnv(t)
	for i := range 5 {
		env.send(t, env.senderToken, fmt.Sprintf("message %d", i))
	}

	rec := env.do(t, http.MethodGet, "/messages?per_page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["messages"].([]any), 2)

	pagination := body["pagination"].(map[string]any)
	require.Equal(t, float64(5), pagination["total"])
	require.Equal(t, float64(3), pagination["total_pages"])
	require.Equal(t, true, pagination["has_next"])

	rec = env.do(t, http.MethodGet, "/messages?group_uuid="+env.groupID, "", nil)
	require.Len(t, decodeBody(t, rec)["messages"].([]any), 5)

	rec = env.do(t, http.MethodGet, "/messages?group_uuid=nope", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageSearch_RequiresQuery(t *testing.T) {
	env := newMessageEnv(t)
	env.send(t, env.senderToken, "the quick brown fox")
	env.send(t, env.senderToken, "unrelated")

	rec := env.do(t, http.MethodGet, "/messages/search", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/messages/search?q=quick", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "quick", body["query"])
	require.Len(t, body["results"].([]any), 1)
	require.Equal(t, float64(1), body["total"])
}
