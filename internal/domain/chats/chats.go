// Package chats — выбор адресата рассылки: диалог и (для форумов) тема.
// Пакет не знает о MTProto: список диалогов и тем приходит через Source,
// ввод пользователя — через Prompter.
package chats

import (
	"context"
	"fmt"
	"time"
)

// Kind — тип сущности диалога.
type Kind string

const (
	KindUser    Kind = "user"
	KindChat    Kind = "chat"
	KindChannel Kind = "channel"
)

// Dialog — диалог, видимый аккаунту.
type Dialog struct {
	Name       string
	Kind       Kind
	ID         int64
	AccessHash int64
	Forum      bool // канал/супергруппа с темами
}

// Topic — тема форума.
type Topic struct {
	ID    int
	Title string
}

// Destination — выбранный адресат. TopicID == 0 означает «без темы».
type Destination struct {
	Dialog  Dialog
	TopicID int
}

// HasTopic сообщает, выбрана ли тема.
func (d Destination) HasTopic() bool {
	return d.TopicID != 0
}

func (d Destination) String() string {
	if d.HasTopic() {
		return fmt.Sprintf("%s (%s:%d, topic %d)", d.Dialog.Name, d.Dialog.Kind, d.Dialog.ID, d.TopicID)
	}
	return fmt.Sprintf("%s (%s:%d)", d.Dialog.Name, d.Dialog.Kind, d.Dialog.ID)
}

// Source — источник диалогов и тем.
type Source interface {
	Dialogs(ctx context.Context) ([]Dialog, error)
	Topics(ctx context.Context, dialog Dialog, offsetDate time.Time, limit int) ([]Topic, error)
}

// Prompter читает одну строку ввода с приглашением.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}
