package schedule

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"tg-scheduler/internal/infra/pr"
)

// ErrInvalidInterval — интервал не целое число минут больше нуля.
var ErrInvalidInterval = errors.New("invalid interval")

// maxIntervalMinutes — предел, при котором минуты ещё помещаются в time.Duration.
const maxIntervalMinutes = math.MaxInt64 / int64(time.Minute)

// ParseInterval разбирает целое число минут > 0.
func ParseInterval(value string) (time.Duration, error) {
	minutes, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || minutes <= 0 || minutes > maxIntervalMinutes {
		return 0, ErrInvalidInterval
	}
	return time.Duration(minutes) * time.Minute, nil
}

// ReadInterval спрашивает интервал, пока ввод не станет корректным.
func ReadInterval(ctx context.Context, in Prompter) (time.Duration, error) {
	for {
		line, err := in.ReadLine(ctx, pr.Prompt("⏱ Interval between messages (minutes): "))
		if err != nil {
			return 0, err
		}
		interval, err := ParseInterval(line)
		if err == nil {
			return interval, nil
		}
		pr.Fail("🚫 Enter an integer greater than 0!")
	}
}
