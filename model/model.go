package model

import (
	"strings"
	"time"
)

// User идентифицирует пользователя Twitch: логин служит ключом, DisplayName — для ответов.
type User struct {
	Login       string
	DisplayName string
}

// Name возвращает отображаемое имя, а при его отсутствии — логин.
func (u User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Login
}

// Key нормализует логин для использования в качестве ключа.
func (u User) Key() string {
	return strings.ToLower(strings.TrimSpace(u.Login))
}

// ChatEvent — закрытый вариантный тип событий чата. Реализуется только типами этого пакета.
type ChatEvent interface {
	ChannelName() string
	isChatEvent()
}

// ChatMessage — обычное сообщение чата без бит.
type ChatMessage struct {
	Channel string
	User    User
	Text    string
	SentAt  time.Time
}

// Cheer — сообщение с битами.
type Cheer struct {
	Channel string
	User    User
	Bits    int
	Text    string
}

// CommunityGift — массовый подарок подписок: одно событие на Count получателей.
type CommunityGift struct {
	Channel string
	Gifter  User
	Count   int
}

// SubGift — подарочная подписка конкретному получателю.
type SubGift struct {
	Channel   string
	Gifter    User
	Recipient User
}

// NewSub — первая подписка пользователя.
type NewSub struct {
	Channel string
	User    User
}

// Resub — продление подписки.
type Resub struct {
	Channel string
	User    User
	Months  int
}

// Host — хост или рейд канала.
type Host struct {
	Channel string
	Host    User
	Viewers int
	Auto    bool
}

func (e ChatMessage) ChannelName() string   { return e.Channel }
func (e Cheer) ChannelName() string         { return e.Channel }
func (e CommunityGift) ChannelName() string { return e.Channel }
func (e SubGift) ChannelName() string       { return e.Channel }
func (e NewSub) ChannelName() string        { return e.Channel }
func (e Resub) ChannelName() string         { return e.Channel }
func (e Host) ChannelName() string          { return e.Channel }

func (ChatMessage) isChatEvent()   {}
func (Cheer) isChatEvent()         {}
func (CommunityGift) isChatEvent() {}
func (SubGift) isChatEvent()       {}
func (NewSub) isChatEvent()        {}
func (Resub) isChatEvent()         {}
func (Host) isChatEvent()          {}
