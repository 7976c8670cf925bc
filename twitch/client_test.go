package twitch

import (
	"testing"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitch-notify-relay/model"
)

func TestFromPrivateMessageCheer(t *testing.T) {
	ev := fromPrivateMessage(twitchirc.PrivateMessage{
		Channel: "#chan",
		User:    twitchirc.User{Name: "viewer", DisplayName: "Viewer"},
		Message: "cheer100 nice",
		Bits:    100,
	})

	assert.Equal(t, model.Cheer{
		Channel: "chan",
		User:    model.User{Login: "viewer", DisplayName: "Viewer"},
		Bits:    100,
		Text:    "cheer100 nice",
	}, ev)
}

func TestFromPrivateMessagePlain(t *testing.T) {
	ev := fromPrivateMessage(twitchirc.PrivateMessage{
		Channel: "chan",
		User:    twitchirc.User{Name: "viewer"},
		Message: "hi",
	})

	msg, ok := ev.(model.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hi", msg.Text)
	assert.False(t, msg.SentAt.IsZero())
}

func TestFromPrivateMessageHost(t *testing.T) {
	cases := []struct {
		text    string
		viewers int
		auto    bool
	}{
		{"Raider is now hosting you for up to 12 viewers.", 12, false},
		{"Raider is now auto hosting you for up to 3 viewers.", 3, true},
		{"Raider is now hosting you.", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			ev := fromPrivateMessage(twitchirc.PrivateMessage{
				Channel: "chan",
				User:    twitchirc.User{Name: "jtv"},
				Message: tc.text,
			})

			host, ok := ev.(model.Host)
			require.True(t, ok)
			assert.Equal(t, "raider", host.Host.Login)
			assert.Equal(t, "Raider", host.Host.Name())
			assert.Equal(t, tc.viewers, host.Viewers)
			assert.Equal(t, tc.auto, host.Auto)
			assert.Equal(t, "chan", host.Channel)
		})
	}
}

func TestFromUserNotice(t *testing.T) {
	gifter := twitchirc.User{Name: "generous", DisplayName: "Generous"}

	cases := []struct {
		name string
		msg  twitchirc.UserNoticeMessage
		want model.ChatEvent
	}{
		{
			name: "sub",
			msg:  twitchirc.UserNoticeMessage{Channel: "chan", User: gifter, MsgID: "sub"},
			want: model.NewSub{Channel: "chan", User: model.User{Login: "generous", DisplayName: "Generous"}},
		},
		{
			name: "resub",
			msg: twitchirc.UserNoticeMessage{Channel: "chan", User: gifter, MsgID: "resub",
				MsgParams: map[string]string{"msg-param-cumulative-months": "14"}},
			want: model.Resub{Channel: "chan", User: model.User{Login: "generous", DisplayName: "Generous"}, Months: 14},
		},
		{
			name: "subgift",
			msg: twitchirc.UserNoticeMessage{Channel: "chan", User: gifter, MsgID: "subgift",
				MsgParams: map[string]string{
					"msg-param-recipient-user-name":    "lucky",
					"msg-param-recipient-display-name": "Lucky",
				}},
			want: model.SubGift{
				Channel:   "chan",
				Gifter:    model.User{Login: "generous", DisplayName: "Generous"},
				Recipient: model.User{Login: "lucky", DisplayName: "Lucky"},
			},
		},
		{
			name: "submysterygift",
			msg: twitchirc.UserNoticeMessage{Channel: "chan", User: gifter, MsgID: "submysterygift",
				MsgParams: map[string]string{"msg-param-mass-gift-count": "5"}},
			want: model.CommunityGift{Channel: "chan", Gifter: model.User{Login: "generous", DisplayName: "Generous"}, Count: 5},
		},
		{
			name: "raid",
			msg: twitchirc.UserNoticeMessage{Channel: "chan", User: gifter, MsgID: "raid",
				MsgParams: map[string]string{
					"msg-param-login":       "raider",
					"msg-param-displayName": "Raider",
					"msg-param-viewerCount": "75",
				}},
			want: model.Host{Channel: "chan", Host: model.User{Login: "raider", DisplayName: "Raider"}, Viewers: 75},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := fromUserNotice(tc.msg)
			require.True(t, ok)
			assert.Equal(t, tc.want, ev)
		})
	}
}

func TestFromUserNoticeIgnoresUnknown(t *testing.T) {
	_, ok := fromUserNotice(twitchirc.UserNoticeMessage{MsgID: "announcement"})
	assert.False(t, ok)
}

func TestIRCToken(t *testing.T) {
	assert.Equal(t, "oauth:abc", ircToken("abc"))
	assert.Equal(t, "oauth:abc", ircToken("oauth:abc"))
}
