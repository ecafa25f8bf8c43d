package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/infra/telegram/peersmgr"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	dialogPages   []tg.MessagesDialogsClass
	dialogReqs    []*tg.MessagesGetDialogsRequest
	topics        *tg.MessagesForumTopics
	topicsErr     error
	topicReqs     []*tg.MessagesGetForumTopicsRequest
	scheduled     tg.MessagesMessagesClass
	scheduledErr  error
	scheduledReqs []*tg.MessagesGetScheduledHistoryRequest
	sendErr       error
	sendReqs      []*tg.MessagesSendMessageRequest
}

func (f *fakeRPC) MessagesGetDialogs(_ context.Context, req *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error) {
	f.dialogReqs = append(f.dialogReqs, req)
	if len(f.dialogPages) == 0 {
		return &tg.MessagesDialogsSlice{}, nil
	}
	page := f.dialogPages[0]
	f.dialogPages = f.dialogPages[1:]
	return page, nil
}

func (f *fakeRPC) MessagesGetForumTopics(_ context.Context, req *tg.MessagesGetForumTopicsRequest) (*tg.MessagesForumTopics, error) {
	f.topicReqs = append(f.topicReqs, req)
	return f.topics, f.topicsErr
}

func (f *fakeRPC) MessagesGetScheduledHistory(_ context.Context, req *tg.MessagesGetScheduledHistoryRequest) (tg.MessagesMessagesClass, error) {
	f.scheduledReqs = append(f.scheduledReqs, req)
	return f.scheduled, f.scheduledErr
}

func (f *fakeRPC) MessagesSendMessage(_ context.Context, req *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	f.sendReqs = append(f.sendReqs, req)
	return &tg.Updates{}, f.sendErr
}

type fakePeers struct {
	users []tg.UserClass
	chats []tg.ChatClass
	err   error
}

func (p *fakePeers) Remember(_ context.Context, users []tg.UserClass, chats []tg.ChatClass) error {
	p.users = append(p.users, users...)
	p.chats = append(p.chats, chats...)
	return nil
}

func (p *fakePeers) InputPeer(context.Context, peersmgr.DialogKind, int64) (tg.InputPeerClass, error) {
	return nil, p.err
}

func newTestGateway(api rpc, peers PeerResolver) *Gateway {
	g := newGateway(api, peers)
	g.pageDelayMin, g.pageDelayMax = 0, 0
	g.randomID = func() (int64, error) { return 777, nil }
	return g
}

var (
	forumChannel = chats.Dialog{Name: "Forum", Kind: chats.KindChannel, ID: 30, AccessHash: 3030, Forum: true}
	alice        = chats.Dialog{Name: "Alice", Kind: chats.KindUser, ID: 10, AccessHash: 1010}
)

func TestDialogs_PaginatesAndMaps(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{dialogPages: []tg.MessagesDialogsClass{
		&tg.MessagesDialogsSlice{
			Count: 5,
			Dialogs: []tg.DialogClass{
				&tg.Dialog{Peer: &tg.PeerUser{UserID: 10}, TopMessage: 100},
				&tg.DialogFolder{Peer: &tg.PeerChannel{ChannelID: 99}, TopMessage: 90},
				&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 30}, TopMessage: 80},
			},
			Messages: []tg.MessageClass{
				&tg.Message{ID: 100, Date: 1_700_000_100},
				&tg.Message{ID: 80, Date: 1_700_000_080},
			},
			Users: []tg.UserClass{&tg.User{ID: 10, AccessHash: 1010, FirstName: "Alice"}},
			Chats: []tg.ChatClass{&tg.Channel{ID: 30, AccessHash: 3030, Title: "Forum", Forum: true}},
		},
		&tg.MessagesDialogsSlice{
			Count: 5,
			Dialogs: []tg.DialogClass{
				&tg.Dialog{Peer: &tg.PeerChat{ChatID: 20}, TopMessage: 70},
				&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 30}, TopMessage: 80},
			},
			Chats: []tg.ChatClass{&tg.Chat{ID: 20, Title: "Group"}},
		},
	}}
	peers := &fakePeers{}
	g := newTestGateway(api, peers)
	g.pageLimit = 3

	got, err := g.Dialogs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []chats.Dialog{
		alice,
		forumChannel,
		{Name: "Group", Kind: chats.KindChat, ID: 20},
	}, got)

	require.Len(t, api.dialogReqs, 2)
	second := api.dialogReqs[1]
	assert.Equal(t, 80, second.OffsetID)
	assert.Equal(t, 1_700_000_080, second.OffsetDate)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 30, AccessHash: 3030}, second.OffsetPeer)

	assert.Len(t, peers.users, 1)
	assert.Len(t, peers.chats, 2)
}

func TestDialogs_Error(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{dialogPages: []tg.MessagesDialogsClass{nil}}
	_, err := newTestGateway(api, nil).Dialogs(context.Background())
	require.Error(t, err)
}

func TestUserName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ann Lee", userName(&tg.User{FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, "ann", userName(&tg.User{Username: "ann"}))
	assert.Equal(t, "Deleted Account", userName(&tg.User{Deleted: true}))
	assert.Equal(t, "user 5", userName(&tg.User{ID: 5}))
}

func TestTopics_SkipsDeleted(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{topics: &tg.MessagesForumTopics{Topics: []tg.ForumTopicClass{
		&tg.ForumTopic{ID: 1, Title: "General"},
		&tg.ForumTopicDeleted{ID: 2},
		&tg.ForumTopic{ID: 7, Title: "News"},
	}}}
	// Кэш пиров промахивается: InputPeer собирается из полей диалога.
	g := newTestGateway(api, &fakePeers{err: errors.New("miss")})

	offset := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	got, err := g.Topics(context.Background(), forumChannel, offset, 100)
	require.NoError(t, err)
	assert.Equal(t, []chats.Topic{{ID: 1, Title: "General"}, {ID: 7, Title: "News"}}, got)

	require.Len(t, api.topicReqs, 1)
	req := api.topicReqs[0]
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 30, AccessHash: 3030}, req.Peer)
	assert.Equal(t, int(offset.Unix()), req.OffsetDate)
	assert.Equal(t, 100, req.Limit)
}

func TestTopics_NotAChannel(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{}
	_, err := newTestGateway(api, nil).Topics(context.Background(), alice, time.Now(), 100)
	require.Error(t, err)
	assert.Empty(t, api.topicReqs)
}

func TestCountScheduled(t *testing.T) {
	t.Parallel()

	three := []tg.MessageClass{&tg.Message{ID: 1}, &tg.Message{ID: 2}, &tg.Message{ID: 3}}
	tests := []struct {
		name string
		resp tg.MessagesMessagesClass
		want int
	}{
		{name: "messages", resp: &tg.MessagesMessages{Messages: three}, want: 3},
		{name: "slice", resp: &tg.MessagesMessagesSlice{Count: 50, Messages: three}, want: 3},
		{name: "channel", resp: &tg.MessagesChannelMessages{Messages: three[:1]}, want: 1},
		{name: "not modified", resp: &tg.MessagesMessagesNotModified{Count: 9}, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeRPC{scheduled: tt.resp}
			n, err := newTestGateway(api, nil).CountScheduled(context.Background(), chats.Destination{Dialog: alice})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, &tg.InputPeerUser{UserID: 10, AccessHash: 1010}, api.scheduledReqs[0].Peer)
		})
	}
}

func TestCountScheduled_Error(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{scheduledErr: errors.New("CHAT_ADMIN_REQUIRED")}
	_, err := newTestGateway(api, nil).CountScheduled(context.Background(), chats.Destination{Dialog: alice})
	require.Error(t, err)
}

func TestSendScheduled(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

	api := &fakeRPC{}
	g := newTestGateway(api, nil)
	require.NoError(t, g.SendScheduled(context.Background(), chats.Destination{Dialog: alice}, "hi", at))

	require.Len(t, api.sendReqs, 1)
	req := api.sendReqs[0]
	assert.Equal(t, "hi", req.Message)
	assert.Equal(t, int64(777), req.RandomID)
	date, ok := req.GetScheduleDate()
	require.True(t, ok)
	assert.Equal(t, int(at.Unix()), date)
	assert.Nil(t, req.ReplyTo)

	require.NoError(t, g.SendScheduled(context.Background(), chats.Destination{Dialog: forumChannel, TopicID: 7}, "news", at))
	reply, ok := api.sendReqs[1].ReplyTo.(*tg.InputReplyToMessage)
	require.True(t, ok)
	assert.Equal(t, 7, reply.ReplyToMsgID)
	top, ok := reply.GetTopMsgID()
	require.True(t, ok)
	assert.Equal(t, 7, top)
}

func TestSendScheduled_Error(t *testing.T) {
	t.Parallel()

	api := &fakeRPC{sendErr: errors.New("SCHEDULE_TOO_MUCH")}
	err := newTestGateway(api, nil).SendScheduled(context.Background(), chats.Destination{Dialog: alice}, "x", time.Now())
	require.Error(t, err)
}
