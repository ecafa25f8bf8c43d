package peersmgr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineInvoker отклоняет любой RPC: сервис должен обходиться кэшем.
type offlineInvoker struct{}

func (offlineInvoker) Invoke(context.Context, bin.Encoder, bin.Decoder) error {
	return errors.New("offline")
}

func newService(t *testing.T, path string) *Service {
	t.Helper()
	svc, err := New(tg.NewClient(offlineInvoker{}), path)
	require.NoError(t, err)
	return svc
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, filepath.Join(t.TempDir(), "peers.bbolt"))
	require.Error(t, err)

	_, err = New(tg.NewClient(offlineInvoker{}), "  ")
	require.Error(t, err)
}

func TestRemember_SurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "peers.bbolt")

	svc := newService(t, path)
	require.NoError(t, svc.LoadFromStorage(ctx))
	require.NoError(t, svc.Remember(ctx,
		[]tg.UserClass{&tg.User{ID: 10, AccessHash: 1010, FirstName: "Ann"}},
		[]tg.ChatClass{
			&tg.Chat{ID: 20, Title: "Group", Photo: &tg.ChatPhotoEmpty{}},
			&tg.Channel{ID: 30, AccessHash: 3030, Title: "Forum", Forum: true, Photo: &tg.ChatPhotoEmpty{}},
		},
	))
	require.NoError(t, svc.Close())

	reopened := newService(t, path)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.LoadFromStorage(ctx))

	stored, ok, err := reopened.LookupPeer(ctx, DialogKindChat, 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(20), stored.Key.ID)

	stored, ok, err = reopened.LookupPeer(ctx, DialogKindChannel, 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3030), stored.Key.AccessHash)

	_, ok, err = reopened.LookupPeer(ctx, DialogKindUser, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	peer, err := reopened.InputPeer(ctx, DialogKindUser, 10)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerUser{UserID: 10, AccessHash: 1010}, peer)

	peer, err = reopened.InputPeer(ctx, DialogKindChannel, 30)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 30, AccessHash: 3030}, peer)
}

func TestRemember_BadEntityDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t, filepath.Join(t.TempDir(), "peers.bbolt"))
	t.Cleanup(func() { _ = svc.Close() })

	// Чат без фото не кодируется в JSON, пользователь при этом сохраняется.
	err := svc.Remember(ctx,
		[]tg.UserClass{&tg.User{ID: 10, AccessHash: 1010, FirstName: "Ann"}},
		[]tg.ChatClass{
			&tg.Chat{ID: 20, Title: "Broken"},
			&tg.Channel{ID: 30, AccessHash: 3030, Title: "Forum", Photo: &tg.ChatPhotoEmpty{}},
		},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store chat 20")

	_, ok, err := svc.LookupPeer(ctx, DialogKindUser, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = svc.LookupPeer(ctx, DialogKindChannel, 30)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInputPeer_UnknownKind(t *testing.T) {
	t.Parallel()

	svc := newService(t, filepath.Join(t.TempDir(), "peers.bbolt"))
	t.Cleanup(func() { _ = svc.Close() })

	_, err := svc.InputPeer(context.Background(), DialogKind("folder"), 1)
	require.Error(t, err)
}
