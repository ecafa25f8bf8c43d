package schedule

import (
	"context"
	"errors"

	"tg-scheduler/internal/infra/logger"
	"tg-scheduler/internal/infra/pr"
)

// Prompter читает одну строку ввода с приглашением.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// Collector накапливает тексты, пока есть свободные слоты.
// Инвариант: len(messages) + slots == начальное число слотов, slots >= 0.
type Collector struct {
	slots    int
	messages []string
}

// NewCollector создаёт Collector с slots свободными слотами.
func NewCollector(slots int) *Collector {
	if slots < 0 {
		slots = 0
	}
	return &Collector{slots: slots, messages: make([]string, 0, slots)}
}

// Add добавляет req.Text до req.Count раз, но не больше оставшихся слотов.
// Возвращает, сколько копий реально добавлено.
func (c *Collector) Add(req Request) int {
	added := 0
	for range req.Count {
		if c.slots <= 0 {
			break
		}
		c.messages = append(c.messages, req.Text)
		c.slots--
		added++
	}
	return added
}

// Remaining возвращает число свободных слотов.
func (c *Collector) Remaining() int { return c.slots }

// Len возвращает число собранных сообщений.
func (c *Collector) Len() int { return len(c.messages) }

// Full сообщает, что слотов не осталось.
func (c *Collector) Full() bool { return c.slots <= 0 }

// Messages возвращает копию собранных текстов в порядке ввода.
func (c *Collector) Messages() []string {
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}

// Collect интерактивно собирает сообщения: до "done" или до исчерпания слотов.
// Некорректный ввод сообщается и не меняет состояние.
func Collect(ctx context.Context, in Prompter, slots int) ([]string, error) {
	c := NewCollector(slots)

	pr.Println()
	pr.Header("📝 Format: text[:count] (example: news:3)")
	pr.Warn("❕ Available slots: %d", c.Remaining())

	for !c.Full() {
		line, err := in.ReadLine(ctx, pr.Prompt("➡ Enter a message or 'done': "))
		if err != nil {
			return nil, err
		}

		req, err := ParseEntry(line)
		switch {
		case errors.Is(err, ErrDone):
			if c.Len() == 0 {
				pr.Fail("🚫 At least one message is required!")
				continue
			}
			return c.Messages(), nil
		case errors.Is(err, ErrInvalidCount):
			pr.Fail("🚫 Invalid count!")
			continue
		case errors.Is(err, ErrEmptyText):
			pr.Fail("🚫 Message text is empty!")
			continue
		case err != nil:
			return nil, err
		}

		added := c.Add(req)
		if added < req.Count {
			logger.Debugf("schedule: requested %d copies, queued %d", req.Count, added)
			pr.Warn("❕ Only %d slot(s) left: queued %d of %d", added, added, req.Count)
		}
		pr.Warn("♻ Slots left: %d", c.Remaining())
	}

	return c.Messages(), nil
}
