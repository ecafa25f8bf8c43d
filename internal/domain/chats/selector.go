package chats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
)

// ErrNoDialogs — аккаунту не видно ни одного диалога.
var ErrNoDialogs = errors.New("no dialogs available")

// Selector проводит пользователя через выбор чата и темы.
type Selector struct {
	src         Source
	in          Prompter
	now         func() time.Time
	topicsLimit int
}

// NewSelector создаёт Selector. now задаёт offset_date для запроса тем,
// topicsLimit — размер страницы тем.
func NewSelector(src Source, in Prompter, now func() time.Time, topicsLimit int) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{src: src, in: in, now: now, topicsLimit: topicsLimit}
}

// Select возвращает выбранного адресата.
//
// ok=false — чат не выбран (не удалось получить диалоги); вызывающий должен
// прервать сценарий. Ошибка возвращается только если прервано чтение ввода.
// Сбой получения тем не фатален: адресат возвращается без темы.
func (s *Selector) Select(ctx context.Context) (Destination, bool, error) {
	dialogs, err := s.src.Dialogs(ctx)
	if err == nil && len(dialogs) == 0 {
		err = ErrNoDialogs
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Destination{}, false, ctxErr
		}
		logger.Errorf("chats: fetch dialogs: %v", err)
		pr.Fail("🚫 Critical error: %v", err)
		return Destination{}, false, nil
	}

	pr.Println()
	pr.Header("🌀 Available chats:")
	for i, d := range dialogs {
		pr.Item(i+1, d.Name)
	}

	idx, err := chooseIndex(ctx, s.in, fmt.Sprintf("\n❔ Choose a chat (1-%d): ", len(dialogs)), len(dialogs))
	if err != nil {
		return Destination{}, false, err
	}
	dest := Destination{Dialog: dialogs[idx]}
	if !dest.Dialog.Forum {
		return dest, true, nil
	}

	topicID, err := s.selectTopic(ctx, dest.Dialog)
	if err != nil {
		return Destination{}, false, err
	}
	dest.TopicID = topicID
	return dest, true, nil
}

// selectTopic возвращает id темы или 0, если темы получить не удалось.
func (s *Selector) selectTopic(ctx context.Context, dialog Dialog) (int, error) {
	topics, err := s.src.Topics(ctx, dialog, s.now(), s.topicsLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		logger.Warnf("chats: fetch topics of %s:%d: %v", dialog.Kind, dialog.ID, err)
		pr.Fail("🚫 Failed to get topics: %v", err)
		return 0, nil
	}
	if len(topics) == 0 {
		logger.Warnf("chats: forum %s:%d has no topics", dialog.Kind, dialog.ID)
		pr.Warn("❕ The forum has no topics, sending without a topic")
		return 0, nil
	}

	pr.Println()
	pr.Header("📚 Available topics:")
	for i, topic := range topics {
		pr.Item(i+1, topic.Title)
	}

	idx, err := chooseIndex(ctx, s.in, fmt.Sprintf("❔ Choose a topic (1-%d): ", len(topics)), len(topics))
	if err != nil {
		return 0, err
	}
	return topics[idx].ID, nil
}

// chooseIndex читает номер из диапазона 1..n, пока ввод не станет корректным.
// Возвращает индекс с нуля.
func chooseIndex(ctx context.Context, in Prompter, prompt string, n int) (int, error) {
	for {
		line, err := in.ReadLine(ctx, pr.Prompt("%s", prompt))
		if err != nil {
			return 0, err
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && choice >= 1 && choice <= n {
			return choice - 1, nil
		}
		pr.Fail("🚫 Invalid choice!")
	}
}
