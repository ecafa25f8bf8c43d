// Package schedule — сбор пачки сообщений и их постановка в отложенную отправку.
//
// Этапы: проверка квоты (Quota), сбор текстов (Collector/Collect), ввод интервала
// (ReadInterval), расчёт времени отправки (Plan) и отправка (Dispatch).
// Квота — это платформенный потолок отложенных сообщений в одном чате за вычетом
// уже запланированных; она никогда не уходит в минус.
package schedule

import (
	"context"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
)

// ScheduledCounter считает уже запланированные сообщения адресата.
type ScheduledCounter interface {
	CountScheduled(ctx context.Context, dest chats.Destination) (int, error)
}

// Quota — потолок отложенных сообщений на чат.
type Quota struct {
	max int
}

// NewQuota создаёт квоту с потолком max.
func NewQuota(max int) Quota {
	if max < 0 {
		max = 0
	}
	return Quota{max: max}
}

// Max возвращает потолок.
func (q Quota) Max() int {
	return q.max
}

// Available возвращает число свободных слотов при scheduled уже занятых.
func (q Quota) Available(scheduled int) int {
	if scheduled < 0 {
		scheduled = 0
	}
	if free := q.max - scheduled; free > 0 {
		return free
	}
	return 0
}

// CountScheduled спрашивает у платформы число запланированных сообщений.
// Ошибка не фатальна: пишется предупреждение и возвращается 0.
func CountScheduled(ctx context.Context, counter ScheduledCounter, dest chats.Destination) int {
	n, err := counter.CountScheduled(ctx, dest)
	if err != nil {
		logger.Warnf("schedule: count scheduled messages for %s: %v", dest, err)
		pr.Warn("⚠ Warning: %v", err)
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}
