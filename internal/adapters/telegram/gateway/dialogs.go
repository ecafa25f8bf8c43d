package gateway

import (
	"context"
	"fmt"
	"strings"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/infra/logger"
	tgruntime "tg-scheduler/internal/infra/telegram/runtime"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

var errDialogsNotModified = errors.New("dialogs not modified")

// Dialogs возвращает все диалоги аккаунта в порядке платформы.
// Папки пропускаются; сущности запоминаются в кэше пиров.
func (g *Gateway) Dialogs(ctx context.Context) ([]chats.Dialog, error) {
	batch, err := g.fetchDialogs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch dialogs")
	}

	if g.peers != nil {
		if err := g.peers.Remember(ctx, batch.Users, batch.Chats); err != nil {
			logger.Warnf("gateway: remember peers: %v", err)
		}
	}

	idx := newEntityIndex(batch)
	out := make([]chats.Dialog, 0, len(batch.Dialogs))
	seen := make(map[string]struct{}, len(batch.Dialogs))
	for _, item := range batch.Dialogs {
		dlg, ok := item.(*tg.Dialog)
		if !ok {
			continue
		}
		d, ok := idx.dialog(dlg.Peer)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s:%d", d.Kind, d.ID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}

	logger.Debugf("gateway: %d dialogs loaded", len(out))
	return out, nil
}

// fetchDialogs постранично выгружает список диалогов через MessagesGetDialogs.
// Пагинация по (offset_date, offset_id, offset_peer); access_hash берутся из уже полученных страниц.
func (g *Gateway) fetchDialogs(ctx context.Context) (*tg.MessagesDialogs, error) {
	result := &tg.MessagesDialogs{}

	offsetDate, offsetID := 0, 0
	var offsetPeer tg.InputPeerClass = &tg.InputPeerEmpty{}

	userHashes := make(map[int64]int64)
	channelHashes := make(map[int64]int64)

	for {
		resp, err := g.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetDate: offsetDate,
			OffsetID:   offsetID,
			OffsetPeer: offsetPeer,
			Limit:      g.pageLimit,
		})
		if err != nil {
			return nil, errors.Wrap(err, "messages.getDialogs")
		}

		batch, complete, err := normalizeDialogsResponse(resp)
		if errors.Is(err, errDialogsNotModified) {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		if len(batch.Dialogs) == 0 {
			break
		}

		result.Dialogs = append(result.Dialogs, batch.Dialogs...)
		result.Messages = append(result.Messages, batch.Messages...)
		result.Chats = append(result.Chats, batch.Chats...)
		result.Users = append(result.Users, batch.Users...)
		collectHashes(batch, userHashes, channelHashes)

		if complete || len(batch.Dialogs) < g.pageLimit {
			break
		}

		var (
			topMessage int
			peer       tg.PeerClass
		)
		switch dlg := batch.Dialogs[len(batch.Dialogs)-1].(type) {
		case *tg.Dialog:
			topMessage, peer = dlg.TopMessage, dlg.Peer
		case *tg.DialogFolder:
			topMessage, peer = dlg.TopMessage, dlg.Peer
		}
		if topMessage != 0 {
			offsetID = topMessage
		}
		if date := messageDate(batch.Messages, topMessage); date != 0 {
			offsetDate = date
		}
		offsetPeer = peerToInput(peer, userHashes, channelHashes)

		if err := tgruntime.WaitRandom(ctx, g.pageDelayMin, g.pageDelayMax); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// normalizeDialogsResponse приводит ответ к MessagesDialogs.
// complete == true, если платформа отдала полный список одной страницей.
func normalizeDialogsResponse(resp tg.MessagesDialogsClass) (*tg.MessagesDialogs, bool, error) {
	switch data := resp.(type) {
	case *tg.MessagesDialogs:
		return data, true, nil
	case *tg.MessagesDialogsSlice:
		return &tg.MessagesDialogs{
			Dialogs:  data.Dialogs,
			Messages: data.Messages,
			Chats:    data.Chats,
			Users:    data.Users,
		}, false, nil
	case *tg.MessagesDialogsNotModified:
		return nil, false, errDialogsNotModified
	default:
		return nil, false, errors.Errorf("unexpected dialogs response: %T", resp)
	}
}

func collectHashes(batch *tg.MessagesDialogs, userHashes, channelHashes map[int64]int64) {
	for _, entity := range batch.Users {
		if user, ok := entity.(*tg.User); ok {
			userHashes[user.ID] = user.AccessHash
		}
	}
	for _, entity := range batch.Chats {
		if channel, ok := entity.(*tg.Channel); ok {
			channelHashes[channel.ID] = channel.AccessHash
		}
	}
}

func messageDate(messages []tg.MessageClass, id int) int {
	for _, msg := range messages {
		switch item := msg.(type) {
		case *tg.Message:
			if item.ID == id {
				return item.Date
			}
		case *tg.MessageService:
			if item.ID == id {
				return item.Date
			}
		}
	}
	return 0
}

func peerToInput(peer tg.PeerClass, userHashes, channelHashes map[int64]int64) tg.InputPeerClass {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return &tg.InputPeerUser{UserID: p.UserID, AccessHash: userHashes[p.UserID]}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ChannelID, AccessHash: channelHashes[p.ChannelID]}
	default:
		return &tg.InputPeerEmpty{}
	}
}

// entityIndex — сущности выгрузки, разложенные по типам.
type entityIndex struct {
	users    map[int64]*tg.User
	chats    map[int64]tg.ChatClass
	channels map[int64]tg.ChatClass
}

func newEntityIndex(batch *tg.MessagesDialogs) entityIndex {
	idx := entityIndex{
		users:    make(map[int64]*tg.User, len(batch.Users)),
		chats:    make(map[int64]tg.ChatClass),
		channels: make(map[int64]tg.ChatClass),
	}
	for _, u := range batch.Users {
		if user, ok := u.(*tg.User); ok {
			idx.users[user.ID] = user
		}
	}
	for _, c := range batch.Chats {
		switch chat := c.(type) {
		case *tg.Chat, *tg.ChatForbidden:
			idx.chats[chat.GetID()] = chat
		case *tg.Channel, *tg.ChannelForbidden:
			idx.channels[chat.GetID()] = chat
		}
	}
	return idx
}

func (idx entityIndex) dialog(peer tg.PeerClass) (chats.Dialog, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		d := chats.Dialog{Kind: chats.KindUser, ID: p.UserID, Name: fmt.Sprintf("user %d", p.UserID)}
		if user, ok := idx.users[p.UserID]; ok {
			d.AccessHash = user.AccessHash
			d.Name = userName(user)
		}
		return d, true
	case *tg.PeerChat:
		d := chats.Dialog{Kind: chats.KindChat, ID: p.ChatID, Name: fmt.Sprintf("chat %d", p.ChatID)}
		switch chat := idx.chats[p.ChatID].(type) {
		case *tg.Chat:
			d.Name = chat.Title
		case *tg.ChatForbidden:
			d.Name = chat.Title
		}
		return d, true
	case *tg.PeerChannel:
		d := chats.Dialog{Kind: chats.KindChannel, ID: p.ChannelID, Name: fmt.Sprintf("channel %d", p.ChannelID)}
		switch channel := idx.channels[p.ChannelID].(type) {
		case *tg.Channel:
			d.Name = channel.Title
			d.AccessHash = channel.AccessHash
			d.Forum = channel.Forum
		case *tg.ChannelForbidden:
			d.Name = channel.Title
			d.AccessHash = channel.AccessHash
		}
		return d, true
	default:
		return chats.Dialog{}, false
	}
}

func userName(u *tg.User) string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	if u.Deleted {
		return "Deleted Account"
	}
	return fmt.Sprintf("user %d", u.ID)
}
