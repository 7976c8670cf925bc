package model

import "time"

// Color — цвет записи в лог-канале (RGB).
type Color int

const (
	ColorWarning Color = 0xff9600
	ColorDanger  Color = 0xff0000
	ColorSuccess Color = 0x00ff7f
	ColorVIP     Color = 0xe281aa
)

// LogField — пара «метка / значение» в записи лог-канала.
type LogField struct {
	Label string
	Value string
}

// LogEntry — структурированная запись для лог-канала.
type LogEntry struct {
	Title     string
	Color     Color
	Timestamp time.Time
	Fields    []LogField
}

// Field возвращает значение поля по метке.
func (e LogEntry) Field(label string) (string, bool) {
	for _, f := range e.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}
