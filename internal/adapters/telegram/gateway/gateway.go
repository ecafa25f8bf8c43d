// Package gateway — платформенный слой планировщика поверх gotd tg.Client.
// Gateway реализует chats.Source (диалоги и темы форума), schedule.ScheduledCounter
// и schedule.Sender (отложенная отправка). Доменные пакеты не видят MTProto-типов.
package gateway

import (
	"context"
	"crypto/rand"
	"time"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/domain/schedule"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/telegram/peersmgr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/crypto"
	"github.com/gotd/td/tg"
)

const (
	defaultPageLimit    = 100
	defaultPageDelayMin = 500 * time.Millisecond
	defaultPageDelayMax = 1500 * time.Millisecond
)

// rpc — методы tg.Client, которыми пользуется Gateway.
type rpc interface {
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	MessagesGetForumTopics(ctx context.Context, request *tg.MessagesGetForumTopicsRequest) (*tg.MessagesForumTopics, error)
	MessagesGetScheduledHistory(ctx context.Context, request *tg.MessagesGetScheduledHistoryRequest) (tg.MessagesMessagesClass, error)
	MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error)
}

// PeerResolver — кэш пиров: запоминает сущности и выдаёт InputPeer.
type PeerResolver interface {
	Remember(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) error
	InputPeer(ctx context.Context, kind peersmgr.DialogKind, id int64) (tg.InputPeerClass, error)
}

// Gateway — адаптер к Telegram API.
type Gateway struct {
	api   rpc
	peers PeerResolver

	pageLimit    int
	pageDelayMin time.Duration
	pageDelayMax time.Duration
	randomID     func() (int64, error)
}

var (
	_ chats.Source              = (*Gateway)(nil)
	_ schedule.ScheduledCounter = (*Gateway)(nil)
	_ schedule.Sender           = (*Gateway)(nil)
)

// New создаёт Gateway. peers может быть nil: тогда InputPeer строится из полей диалога.
func New(api *tg.Client, peers PeerResolver) *Gateway {
	return newGateway(api, peers)
}

func newGateway(api rpc, peers PeerResolver) *Gateway {
	return &Gateway{
		api:          api,
		peers:        peers,
		pageLimit:    defaultPageLimit,
		pageDelayMin: defaultPageDelayMin,
		pageDelayMax: defaultPageDelayMax,
		randomID: func() (int64, error) {
			return crypto.RandInt64(rand.Reader)
		},
	}
}

// inputPeer подбирает InputPeer для диалога: через кэш пиров, иначе по полям диалога.
func (g *Gateway) inputPeer(ctx context.Context, d chats.Dialog) (tg.InputPeerClass, error) {
	if g.peers != nil {
		peer, err := g.peers.InputPeer(ctx, peersmgr.DialogKind(d.Kind), d.ID)
		if err == nil {
			return peer, nil
		}
		logger.Debugf("gateway: peer cache miss for %s %d: %v", d.Kind, d.ID, err)
	}

	switch d.Kind {
	case chats.KindUser:
		return &tg.InputPeerUser{UserID: d.ID, AccessHash: d.AccessHash}, nil
	case chats.KindChat:
		return &tg.InputPeerChat{ChatID: d.ID}, nil
	case chats.KindChannel:
		return &tg.InputPeerChannel{ChannelID: d.ID, AccessHash: d.AccessHash}, nil
	default:
		return nil, errors.Errorf("unsupported dialog kind %q", d.Kind)
	}
}
