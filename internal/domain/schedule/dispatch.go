package schedule

import (
	"context"
	"errors"
	"time"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
	"tg-scheduler/internal/infra/timeutil"

	"go.uber.org/zap"
)

// Entry — одно сообщение с абсолютным временем отправки. Position считается с 1.
type Entry struct {
	Position int
	Text     string
	SendAt   time.Time
}

// Plan раскладывает сообщения по времени: i-е уходит в start + i*interval.
// Время наращивается шагом от предыдущего: произведение i*interval в
// time.Duration может переполниться и уйти в прошлое.
func Plan(start time.Time, interval time.Duration, messages []string) []Entry {
	entries := make([]Entry, 0, len(messages))
	at := start
	for i, text := range messages {
		if i > 0 {
			at = at.Add(interval)
		}
		entries = append(entries, Entry{
			Position: i + 1,
			Text:     text,
			SendAt:   at,
		})
	}
	return entries
}

// Sender ставит одно сообщение в отложенную отправку.
type Sender interface {
	SendScheduled(ctx context.Context, dest chats.Destination, text string, at time.Time) error
}

// Failure — сообщение, которое не удалось запланировать.
type Failure struct {
	Entry Entry
	Err   error
}

// Report — итог отправки пачки.
type Report struct {
	Total     int
	Scheduled int
	Failures  []Failure
}

// Dispatch отправляет записи по порядку. Ошибка одной записи пишется в лог и
// не мешает следующим; уже запланированное не откатывается. Ошибка возвращается
// только при отмене контекста.
func Dispatch(ctx context.Context, sender Sender, dest chats.Destination, entries []Entry) (Report, error) {
	report := Report{Total: len(entries)}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := sender.SendScheduled(ctx, dest, entry.Text, entry.SendAt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.Error("schedule: send failed",
				zap.Int("position", entry.Position),
				zap.Time("send_at", entry.SendAt),
				zap.Error(err),
			)
			pr.Fail("🚫 Failed to schedule message %d: %v", entry.Position, err)
			report.Failures = append(report.Failures, Failure{Entry: entry, Err: err})
			continue
		}

		report.Scheduled++
		pr.Success("✓ Message %d scheduled for %s", entry.Position, timeutil.FormatClock(entry.SendAt))
	}

	return report, nil
}
