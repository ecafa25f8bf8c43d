package app

import (
	"context"
	"time"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/domain/schedule"
	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
)

// destinationPicker выбирает адресата; ok == false — выбрать не удалось.
type destinationPicker interface {
	Select(ctx context.Context) (chats.Destination, bool, error)
}

// Workflow — сценарий после авторизации: адресат, квота, сообщения, интервал, отправка.
// Каждый этап может завершить сценарий досрочно; тогда Run возвращает nil.
// Ошибку Run возвращает только при прерывании ввода или сбое, который нельзя обойти.
type Workflow struct {
	Picker  destinationPicker
	Counter schedule.ScheduledCounter
	Sender  schedule.Sender
	In      schedule.Prompter
	Quota   schedule.Quota
	Now     func() time.Time
}

// Run проходит сценарий от выбора чата до отправки.
func (w *Workflow) Run(ctx context.Context) error {
	dest, ok, err := w.Picker.Select(ctx)
	if err != nil {
		return err
	}
	if !ok {
		pr.Fail("🚫 No chat selected!")
		return nil
	}
	logger.Infof("workflow: destination %s", dest)

	scheduled := schedule.CountScheduled(ctx, w.Counter, dest)
	available := w.Quota.Available(scheduled)
	logger.Debugf("workflow: %d scheduled, %d slots available", scheduled, available)
	if available <= 0 {
		pr.Fail("🚫 Limit of %d scheduled messages reached!", w.Quota.Max())
		return nil
	}

	messages, err := schedule.Collect(ctx, w.In, available)
	if err != nil {
		return err
	}

	interval, err := schedule.ReadInterval(ctx, w.In)
	if err != nil {
		return err
	}

	entries := schedule.Plan(w.Now(), interval, messages)
	if logger.IsDebugEnabled() {
		logger.Debugf("workflow: plan %s", pr.Pf(entries))
	}
	report, err := schedule.Dispatch(ctx, w.Sender, dest, entries)
	if err != nil {
		return err
	}

	logger.Info("workflow: dispatch finished")
	if len(report.Failures) == 0 {
		pr.Success("📦 Scheduled %d of %d messages", report.Scheduled, report.Total)
	} else {
		pr.Warn("📦 Scheduled %d of %d messages", report.Scheduled, report.Total)
	}
	return nil
}
