package model

import (
	"strconv"
	"strings"
	"time"
)

// ModAction — вид модераторского действия.
type ModAction string

const (
	ActionTimeout   ModAction = "timeout"
	ActionBan       ModAction = "ban"
	ActionUnban     ModAction = "unban"
	ActionUntimeout ModAction = "untimeout"
	ActionVIP       ModAction = "vip"
)

// ModerationEvent описывает действие модератора в канале.
type ModerationEvent struct {
	Action      ModAction
	Moderator   string
	Target      string
	Broadcaster string
	Args        []string
	Reason      string
	// Duration — длительность таймаута в секундах.
	Duration   int
	OccurredAt time.Time
}

// NewModerationEvent разбирает позиционные аргументы действия:
// timeout — [target, seconds, reason], ban — [target, reason], остальные — [target].
// Для неизвестного действия возвращает ok == false.
func NewModerationEvent(action, userName string, args []string) (ModerationEvent, bool) {
	ev := ModerationEvent{
		Action:    ModAction(strings.ToLower(strings.TrimSpace(action))),
		Moderator: userName,
		Args:      append([]string(nil), args...),
	}

	switch ev.Action {
	case ActionTimeout:
		ev.Target = arg(args, 0)
		ev.Duration, _ = strconv.Atoi(arg(args, 1))
		ev.Reason = arg(args, 2)
	case ActionBan:
		ev.Target = arg(args, 0)
		ev.Reason = arg(args, 1)
	case ActionUnban, ActionUntimeout, ActionVIP:
		ev.Target = arg(args, 0)
	default:
		return ModerationEvent{}, false
	}

	return ev, true
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
