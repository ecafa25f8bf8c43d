// Package apptime — единая точка получения «текущего времени» приложения.
// Время отправки считается и печатается в таймзоне приложения (APP_TIMEZONE),
// которая выставляется один раз при старте.
package apptime

import (
	"sync"
	"time"
)

var (
	mu  sync.RWMutex
	loc = time.Local
)

// SetLocation задаёт таймзону приложения. Nil возвращает системную.
func SetLocation(l *time.Location) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = time.Local
	}
	loc = l
}

// Location возвращает текущую таймзону приложения.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return loc
}

// Now возвращает текущее время в таймзоне приложения.
func Now() time.Time {
	return time.Now().In(Location())
}
