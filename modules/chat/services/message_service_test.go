package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/testhelpers"
)

type messageFixture struct {
	svc      *MessageService
	groups   *testhelpers.GroupRepo
	messages *testhelpers.MessageRepo
	groupID  uuid.UUID
	sender   uuid.UUID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	groups := testhelpers.NewGroupRepo()
	messages := testhelpers.NewMessageRepo()

	sender := uuid.New()
	g, err := groups.Create(testhelpers.TxContext(), group.New())
	require.NoError(t, err)
	_, err = groups.AddParticipant(testhelpers.TxContext(), g.UUID, sender)
	require.NoError(t, err)

	return &messageFixture{
		svc:      NewMessageService(messages, groups, nil, time.Hour),
		groups:   groups,
		messages: messages,
		groupID:  g.UUID,
		sender:   sender,
	}
}

func TestMessageCreate_RequiresMembership(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Create(testhelpers.TxContext(), uuid.New(), &message.CreateDTO{
		Content: "hello",
		GroupID: f.groupID,
	})
	require.ErrorIs(t, err, group.ErrNotMember)

	created, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
		Content: "hello",
		GroupID: f.groupID,
	})
	require.NoError(t, err)
	require.Equal(t, "hello", created.Content)
	require.Equal(t, f.sender, created.SenderID)
}

func TestMessageGetByID_DeletedReadsAsGone(t *testing.T) {
	f := newMessageFixture(t)

	created, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
		Content: "hello",
		GroupID: f.groupID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(testhelpers.TxContext(), f.sender, created.ID))

	_, err = f.svc.GetByID(testhelpers.TxContext(), created.ID)
	require.ErrorIs(t, err, message.ErrDeleted)
}

func TestMessageUpdate_OnlySender(t *testing.T) {
	f := newMessageFixture(t)

	created, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
		Content: "original",
		GroupID: f.groupID,
	})
	require.NoError(t, err)

	edited := "edited"
	_, err = f.svc.Update(testhelpers.TxContext(), uuid.New(), created.ID, &message.UpdateDTO{Content: &edited})
	require.ErrorIs(t, err, message.ErrNotSender)

	updated, err := f.svc.Update(testhelpers.TxContext(), f.sender, created.ID, &message.UpdateDTO{Content: &edited})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)
}

func TestMessageUpdate_DeletedIsImmutable(t *testing.T) {
	f := newMessageFixture(t)

	created, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
		Content: "hello",
		GroupID: f.groupID,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(testhelpers.TxContext(), f.sender, created.ID))

	edited := "edited"
	_, err = f.svc.Update(testhelpers.TxContext(), f.sender, created.ID, &message.UpdateDTO{Content: &edited})
	require.ErrorIs(t, err, message.ErrDeleted)
}

func TestMessageDelete_OnlySender(t *testing.T) {
	f := newMessageFixture(t)

	created, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
		Content: "hello",
		GroupID: f.groupID,
	})
	require.NoError(t, err)

	err = f.svc.Delete(testhelpers.TxContext(), uuid.New(), created.ID)
	require.ErrorIs(t, err, message.ErrNotSender)

	require.NoError(t, f.svc.Delete(testhelpers.TxContext(), f.sender, created.ID))

	err = f.svc.Delete(testhelpers.TxContext(), f.sender, created.ID)
	require.ErrorIs(t, err, message.ErrDeleted)
}

func TestMessageDelete_UnknownMessage(t *testing.T) {
	f := newMessageFixture(t)

	err := f.svc.Delete(testhelpers.TxContext(), f.sender, 999)
	require.ErrorIs(t, err, message.ErrNotFound)
}

func TestMessageGetPaginated_FiltersAndCounts(t *testing.T) {
	f := newMessageFixture(t)

	other := uuid.New()
	_, err := f.groups.AddParticipant(testhelpers.TxContext(), f.groupID, other)
	require.NoError(t, err)

	for range 3 {
		_, err := f.svc.Create(testhelpers.TxContext(), f.sender, &message.CreateDTO{
			Content: "from sender",
			GroupID: f.groupID,
		})
		require.NoError(t, err)
	}
	_, err = f.svc.Create(testhelpers.TxContext(), other, &message.CreateDTO{
		Content: "from other",
		GroupID: f.groupID,
	})
	require.NoError(t, err)

	page, total, err := f.svc.GetPaginated(testhelpers.TxContext(), &message.FindParams{
		SenderID: &f.sender,
		Page:     1,
		PerPage:  2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 2)
}
