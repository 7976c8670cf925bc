// Package format превращает события чата и модерации в текст ответов и записи лог-канала.
package format

import "fmt"

// BigHostViewers — порог зрителей, начиная с которого хост считается большим.
const BigHostViewers = 50

// CheerMessage благодарит за биты.
func CheerMessage(user string, bits int) string {
	return fmt.Sprintf("PogChamp BITS DONATION!!! PogChamp Thank you so much @%s for the %d bitties! You're too kind! <3", user, bits)
}

// CommunityGiftMessage благодарит за массовый подарок подписок.
func CommunityGiftMessage(gifter string, count int) string {
	return fmt.Sprintf("GIFT SUB HYPE!! Thank you @%s for gifting %d subs to the squadron! <3", gifter, count)
}

// SubGiftMessage благодарит за одиночную подарочную подписку.
func SubGiftMessage(gifter, recipient string) string {
	return fmt.Sprintf("GIFT SUB HYPE!! Thank you %s for gifting a sub to %s <3", gifter, recipient)
}

// NewSubMessage приветствует нового подписчика.
func NewSubMessage(user string) string {
	return fmt.Sprintf("NEW SUB!!! @%s just subscribed! Welcome to the party <3", user)
}

// ResubMessage приветствует продлившего подписку.
func ResubMessage(user string, months int) string {
	return fmt.Sprintf("RESUB!!! Welcome back @%s for %d months <3", user, months)
}

// HostMessage выбирает текст по типу хоста: авто-хост без проверки порога,
// затем большой хост (viewers >= BigHostViewers), иначе обычный.
func HostMessage(host string, viewers int, auto bool) string {
	switch {
	case auto:
		return fmt.Sprintf("Thank you @%s for the auto host! <3", host)
	case viewers >= BigHostViewers:
		return fmt.Sprintf("PogChamp BIG HOST!!! PogChamp @%s just brought %d viewers to the party! Thank you so much! <3", host, viewers)
	default:
		return fmt.Sprintf("Thank you @%s for hosting with %d viewers! <3", host, viewers)
	}
}
