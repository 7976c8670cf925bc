package format

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"twitch-notify-relay/model"
)

// ReasonNotProvided подставляется, когда причина пуста или отсутствует.
const ReasonNotProvided = "Reason not provided."

// DefaultTitle — заголовок записей лог-канала по умолчанию.
const DefaultTitle = "New Chat Event"

// Moderation собирает записи лог-канала для модераторских действий.
type Moderation struct {
	title string
	clock clockwork.Clock
}

// NewModeration создаёт форматтер с заданным заголовком и часами.
func NewModeration(title string, clock clockwork.Clock) *Moderation {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Moderation{title: title, clock: clock}
}

// Entry возвращает запись лог-канала; ok == false для неподдерживаемого действия.
func (m *Moderation) Entry(ev model.ModerationEvent) (model.LogEntry, bool) {
	var (
		label  string
		color  model.Color
		fields []model.LogField
	)

	switch ev.Action {
	case model.ActionTimeout:
		label, color = "Timeout", model.ColorWarning
		fields = []model.LogField{
			{Label: label, Value: fmt.Sprintf("%s was timed out for %d seconds by %s.", ev.Target, ev.Duration, ev.Moderator)},
			{Label: "Reason", Value: reasonOrDefault(ev.Reason)},
		}
	case model.ActionBan:
		label, color = "Ban", model.ColorDanger
		fields = []model.LogField{
			{Label: label, Value: fmt.Sprintf("%s was banned by %s.", ev.Target, ev.Moderator)},
			{Label: "Reason", Value: reasonOrDefault(ev.Reason)},
		}
	case model.ActionUnban:
		label, color = "Unban", model.ColorSuccess
		fields = []model.LogField{
			{Label: label, Value: fmt.Sprintf("%s was un-banned by %s.", ev.Target, ev.Moderator)},
		}
	case model.ActionUntimeout:
		label, color = "Untimeout", model.ColorSuccess
		fields = []model.LogField{
			{Label: label, Value: fmt.Sprintf("%s's timeout was removed by %s.", ev.Target, ev.Moderator)},
		}
	case model.ActionVIP:
		label, color = "VIP", model.ColorVIP
		fields = []model.LogField{
			{Label: label, Value: fmt.Sprintf("%s was granted VIP by %s.", ev.Target, broadcasterName(ev.Broadcaster))},
		}
	default:
		return model.LogEntry{}, false
	}

	return model.LogEntry{
		Title:     m.title + " - " + label,
		Color:     color,
		Timestamp: m.clock.Now().UTC(),
		Fields:    fields,
	}, true
}

// ConsoleLine — однострочное описание действия для журнала процесса.
func ConsoleLine(ev model.ModerationEvent) string {
	switch ev.Action {
	case model.ActionTimeout:
		return fmt.Sprintf("%s was timed out for %d seconds by %s (Reason: %s)", ev.Target, ev.Duration, ev.Moderator, reasonOrDefault(ev.Reason))
	case model.ActionBan:
		return fmt.Sprintf("%s was banned by %s (Reason: %s)", ev.Target, ev.Moderator, reasonOrDefault(ev.Reason))
	case model.ActionUnban:
		return fmt.Sprintf("%s was un-banned by %s.", ev.Target, ev.Moderator)
	case model.ActionUntimeout:
		return fmt.Sprintf("%s's timeout was removed by %s.", ev.Target, ev.Moderator)
	case model.ActionVIP:
		return fmt.Sprintf("%s was granted VIP by %s.", ev.Target, broadcasterName(ev.Broadcaster))
	default:
		return fmt.Sprintf("unsupported moderation action %q by %s", ev.Action, ev.Moderator)
	}
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return ReasonNotProvided
	}
	return reason
}

func broadcasterName(name string) string {
	if name == "" {
		return "the broadcaster"
	}
	return name
}
