package pglistener

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChangeEvent(t *testing.T) {
	groupID := uuid.MustParse("6f1c2a34-9b0d-4df5-8a7e-0f34a25b9c11")
	senderID := uuid.MustParse("ae0f8b92-3c41-47d8-b5a2-61d909a2a7df")

	t.Run("insert carries the full new row", func(t *testing.T) {
		payload := `{
			"operation": "INSERT",
			"table": "messages",
			"id": 42,
			"group_id": "6f1c2a34-9b0d-4df5-8a7e-0f34a25b9c11",
			"sender_id": "ae0f8b92-3c41-47d8-b5a2-61d909a2a7df",
			"content": "hello there",
			"file": "photo.png",
			"created_date": "2025-03-14T09:26:53.589Z",
			"is_deleted": false
		}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)

		assert.Equal(t, OpInsert, event.Operation)
		assert.Equal(t, "messages", event.Table)
		assert.Equal(t, int64(42), event.ID)
		assert.Equal(t, groupID, event.GroupID)
		assert.Equal(t, senderID, event.SenderID)
		assert.Equal(t, "hello there", event.Content)
		require.NotNil(t, event.File)
		assert.Equal(t, "photo.png", *event.File)
		assert.Equal(t, 2025, event.CreatedDate.Year())
		assert.False(t, event.IsDeleted)
		assert.Nil(t, event.PreviousID)
		assert.False(t, event.IsSoftDelete())
	})

	t.Run("update carries the pre-image", func(t *testing.T) {
		payload := `{
			"operation": "UPDATE",
			"table": "messages",
			"id": 42,
			"content": "hello, edited",
			"is_deleted": false,
			"previous_id": 42,
			"previous_content": "hello there",
			"previous_is_deleted": false
		}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)

		assert.Equal(t, OpUpdate, event.Operation)
		require.NotNil(t, event.PreviousID)
		assert.Equal(t, int64(42), *event.PreviousID)
		require.NotNil(t, event.PreviousContent)
		assert.Equal(t, "hello there", *event.PreviousContent)
		require.NotNil(t, event.PreviousIsDeleted)
		assert.False(t, *event.PreviousIsDeleted)
		assert.False(t, event.IsSoftDelete())
	})

	t.Run("update into deleted state is a soft delete", func(t *testing.T) {
		payload := `{
			"operation": "UPDATE",
			"table": "messages",
			"id": 42,
			"content": "hello there",
			"is_deleted": true,
			"previous_id": 42,
			"previous_content": "hello there",
			"previous_is_deleted": false
		}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)
		assert.True(t, event.IsSoftDelete())
	})

	t.Run("update of an already deleted row is not a soft delete", func(t *testing.T) {
		payload := `{
			"operation": "UPDATE",
			"table": "messages",
			"id": 42,
			"is_deleted": true,
			"previous_is_deleted": true
		}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)
		assert.False(t, event.IsSoftDelete())
	})

	t.Run("delete carries only identifying columns", func(t *testing.T) {
		payload := `{
			"operation": "DELETE",
			"table": "messages",
			"id": 42,
			"group_id": "6f1c2a34-9b0d-4df5-8a7e-0f34a25b9c11",
			"sender_id": "ae0f8b92-3c41-47d8-b5a2-61d909a2a7df"
		}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)

		assert.Equal(t, OpDelete, event.Operation)
		assert.Equal(t, int64(42), event.ID)
		assert.Equal(t, groupID, event.GroupID)
		assert.Empty(t, event.Content)
		assert.Nil(t, event.File)
	})

	t.Run("test operation", func(t *testing.T) {
		payload := `{"operation":"TEST","table":"messages","message":"listener connectivity check"}`
		event, err := DecodeChangeEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, OpTest, event.Operation)
		assert.Equal(t, "listener connectivity check", event.Message)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		_, err := DecodeChangeEvent([]byte(`{"operation":`))
		require.Error(t, err)
	})

	t.Run("unknown operation is rejected", func(t *testing.T) {
		_, err := DecodeChangeEvent([]byte(`{"operation":"TRUNCATE","table":"messages"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown operation")
	})
}
