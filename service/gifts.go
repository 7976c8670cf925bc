package service

import (
	"sync"

	"twitch-notify-relay/model"
)

// GiftLedger считает подарочные подписки, объявленные массовым подарком,
// но ещё не атрибутированные конкретным получателям.
type GiftLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewGiftLedger создаёт пустой счётчик.
func NewGiftLedger() *GiftLedger {
	return &GiftLedger{counts: make(map[string]int)}
}

// Add увеличивает счётчик дарителя на n и возвращает новое значение.
func (l *GiftLedger) Add(gifter model.User, n int) int {
	if n <= 0 {
		return l.Count(gifter)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts[gifter.Key()] += n
	return l.counts[gifter.Key()]
}

// Consume списывает одну подписку дарителя. Возвращает true, если подписка
// уже учтена массовым подарком и отдельная благодарность не нужна.
func (l *GiftLedger) Consume(gifter model.User) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := gifter.Key()
	if l.counts[key] <= 0 {
		return false
	}

	l.counts[key]--
	if l.counts[key] == 0 {
		delete(l.counts, key)
	}
	return true
}

// Count возвращает текущий счётчик дарителя.
func (l *GiftLedger) Count(gifter model.User) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[gifter.Key()]
}

// Outstanding возвращает сумму всех неатрибутированных подписок.
func (l *GiftLedger) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}
