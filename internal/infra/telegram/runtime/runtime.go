// Package runtime — паузы между последовательными RPC одной выборки (постраничная
// загрузка диалогов). Длительность случайная в заданном окне, ожидание прерывается
// отменой контекста.
package runtime

import (
	"context"
	"math/rand/v2"
	"time"

	"tg-scheduler/internal/infra/logger"
)

// WaitRandom блокирует на случайный интервал из [lo, hi).
// При lo == hi ждёт ровно lo; при lo <= 0 или hi < lo не ждёт вовсе.
// Возвращает ctx.Err(), если контекст отменён раньше.
func WaitRandom(ctx context.Context, lo, hi time.Duration) error {
	switch {
	case lo <= 0:
		return ctx.Err()
	case hi < lo:
		logger.Errorf("runtime: wait window is inverted (%s > %s)", lo, hi)
		return ctx.Err()
	}

	delay := lo
	if hi > lo {
		delay += time.Duration(rand.Int64N(int64(hi - lo))) // #nosec G404
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
