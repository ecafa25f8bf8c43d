package gateway

import (
	"context"
	"time"

	"tg-scheduler/internal/domain/chats"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

// Topics возвращает до limit тем форума, начиная с offsetDate. Удалённые темы пропускаются.
func (g *Gateway) Topics(ctx context.Context, dialog chats.Dialog, offsetDate time.Time, limit int) ([]chats.Topic, error) {
	if dialog.Kind != chats.KindChannel {
		return nil, errors.Errorf("dialog %q is not a channel", dialog.Name)
	}
	peer, err := g.inputPeer(ctx, dialog)
	if err != nil {
		return nil, err
	}

	resp, err := g.api.MessagesGetForumTopics(ctx, &tg.MessagesGetForumTopicsRequest{
		Peer:       peer,
		OffsetDate: int(offsetDate.Unix()),
		Limit:      limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "messages.getForumTopics")
	}

	topics := make([]chats.Topic, 0, len(resp.Topics))
	for _, item := range resp.Topics {
		if topic, ok := item.(*tg.ForumTopic); ok {
			topics = append(topics, chats.Topic{ID: topic.ID, Title: topic.Title})
		}
	}
	return topics, nil
}

// CountScheduled возвращает число отложенных сообщений в чате адресата.
// Потолок платформы действует на весь чат, поэтому тема не учитывается.
func (g *Gateway) CountScheduled(ctx context.Context, dest chats.Destination) (int, error) {
	peer, err := g.inputPeer(ctx, dest.Dialog)
	if err != nil {
		return 0, err
	}

	resp, err := g.api.MessagesGetScheduledHistory(ctx, &tg.MessagesGetScheduledHistoryRequest{Peer: peer})
	if err != nil {
		return 0, errors.Wrap(err, "messages.getScheduledHistory")
	}

	switch r := resp.(type) {
	case *tg.MessagesMessages:
		return len(r.Messages), nil
	case *tg.MessagesMessagesSlice:
		return len(r.Messages), nil
	case *tg.MessagesChannelMessages:
		return len(r.Messages), nil
	case *tg.MessagesMessagesNotModified:
		return r.Count, nil
	default:
		return 0, errors.Errorf("unexpected scheduled history response: %T", resp)
	}
}

// SendScheduled ставит text в отложенную отправку на момент at.
// Для темы форума сообщение привязывается к её корневому сообщению.
func (g *Gateway) SendScheduled(ctx context.Context, dest chats.Destination, text string, at time.Time) error {
	peer, err := g.inputPeer(ctx, dest.Dialog)
	if err != nil {
		return err
	}
	randomID, err := g.randomID()
	if err != nil {
		return errors.Wrap(err, "random id")
	}

	req := &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: randomID,
	}
	req.SetScheduleDate(int(at.Unix()))
	if dest.HasTopic() {
		reply := &tg.InputReplyToMessage{ReplyToMsgID: dest.TopicID}
		reply.SetTopMsgID(dest.TopicID)
		req.SetReplyTo(reply)
	}

	if _, err := g.api.MessagesSendMessage(ctx, req); err != nil {
		return errors.Wrap(err, "messages.sendMessage")
	}
	return nil
}
