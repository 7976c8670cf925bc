package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewModerationEventTimeout(t *testing.T) {
	ev, ok := NewModerationEvent("timeout", "mod1", []string{"alice", "600", "caps"})

	assert.True(t, ok)
	assert.Equal(t, ActionTimeout, ev.Action)
	assert.Equal(t, "alice", ev.Target)
	assert.Equal(t, "mod1", ev.Moderator)
	assert.Equal(t, 600, ev.Duration)
	assert.Equal(t, "caps", ev.Reason)
}

func TestNewModerationEventBanWithoutReason(t *testing.T) {
	ev, ok := NewModerationEvent("ban", "mod1", []string{"alice"})

	assert.True(t, ok)
	assert.Equal(t, "alice", ev.Target)
	assert.Empty(t, ev.Reason)
}

func TestNewModerationEventCopiesArgs(t *testing.T) {
	args := []string{"alice"}
	ev, _ := NewModerationEvent("vip", "broadcaster", args)
	args[0] = "bob"

	assert.Equal(t, []string{"alice"}, ev.Args)
}

func TestNewModerationEventRejectsUnknownAction(t *testing.T) {
	_, ok := NewModerationEvent("slow", "mod1", []string{"30"})
	assert.False(t, ok)
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "Alice", User{Login: "alice", DisplayName: "Alice"}.Name())
	assert.Equal(t, "alice", User{Login: "alice"}.Name())
	assert.Equal(t, "alice", User{Login: " Alice "}.Key())
}
