package schedule

import (
	"errors"
	"strconv"
	"strings"
)

// doneKeyword завершает ввод сообщений (без учёта регистра).
const doneKeyword = "done"

var (
	// ErrDone — пользователь закончил ввод.
	ErrDone = errors.New("input finished")
	// ErrInvalidCount — после ':' не положительное целое.
	ErrInvalidCount = errors.New("invalid count")
	// ErrEmptyText — пустой текст сообщения.
	ErrEmptyText = errors.New("message text is empty")
)

// Request — разобранная строка ввода: текст и сколько раз его запланировать.
type Request struct {
	Text  string
	Count int
}

// ParseEntry разбирает строку вида "текст" или "текст:количество".
// Разделителем служит первое двоеточие; количество должно быть целым > 0.
func ParseEntry(line string) (Request, error) {
	entry := strings.TrimSpace(line)
	if strings.EqualFold(entry, doneKeyword) {
		return Request{}, ErrDone
	}

	text, countPart, hasCount := strings.Cut(entry, ":")
	text = strings.TrimSpace(text)
	count := 1
	if hasCount {
		n, err := strconv.Atoi(strings.TrimSpace(countPart))
		if err != nil || n <= 0 {
			return Request{}, ErrInvalidCount
		}
		count = n
	}
	if text == "" {
		return Request{}, ErrEmptyText
	}
	return Request{Text: text, Count: count}, nil
}
