package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

const botID = "111"

func TestIsMentioned(t *testing.T) {
	cases := []struct {
		name string
		msg  *discordgo.Message
		want bool
	}{
		{
			name: "mention entity",
			msg: &discordgo.Message{
				Content:  "hey there",
				Mentions: []*discordgo.User{{ID: botID}},
			},
			want: true,
		},
		{
			name: "mention token in content",
			msg:  &discordgo.Message{Content: "<@111> hello"},
			want: true,
		},
		{
			name: "nickname mention token",
			msg:  &discordgo.Message{Content: "<@!111> hello"},
			want: true,
		},
		{
			name: "someone else mentioned",
			msg: &discordgo.Message{
				Content:  "<@222> hello",
				Mentions: []*discordgo.User{{ID: "222"}},
			},
			want: false,
		},
		{
			name: "no mention",
			msg:  &discordgo.Message{Content: "just chatting"},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isMentioned(tc.msg, botID); got != tc.want {
				t.Errorf("isMentioned = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStripBotMention(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<@111> hello", "hello"},
		{"<@!111> hello", "hello"},
		{"hello <@111>", "hello"},
		{"<@111>", ""},
		{"  <@111>   spaced   ", "spaced"},
		{"no mention at all", "no mention at all"},
		{"<@222> keep other mentions", "<@222> keep other mentions"},
	}
	for _, tc := range cases {
		if got := stripBotMention(tc.in, botID); got != tc.want {
			t.Errorf("stripBotMention(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCountImageAttachments(t *testing.T) {
	attachments := []*discordgo.MessageAttachment{
		{ContentType: "image/png"},
		{ContentType: "image/jpeg"},
		{ContentType: "application/pdf"},
		{ContentType: ""},
	}
	if got := countImageAttachments(attachments); got != 2 {
		t.Errorf("countImageAttachments = %d, want 2", got)
	}
	if got := countImageAttachments(nil); got != 0 {
		t.Errorf("countImageAttachments(nil) = %d, want 0", got)
	}
}

func TestAuthorDisplayName(t *testing.T) {
	cases := []struct {
		name string
		msg  *discordgo.MessageCreate
		want string
	}{
		{
			name: "nickname wins",
			msg: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: &discordgo.User{Username: "alice", GlobalName: "Alice G"},
				Member: &discordgo.Member{Nick: "Ali"},
			}},
			want: "Ali",
		},
		{
			name: "global name next",
			msg: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: &discordgo.User{Username: "alice", GlobalName: "Alice G"},
			}},
			want: "Alice G",
		},
		{
			name: "username last",
			msg: &discordgo.MessageCreate{Message: &discordgo.Message{
				Author: &discordgo.User{Username: "alice"},
			}},
			want: "alice",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := authorDisplayName(tc.msg); got != tc.want {
				t.Errorf("authorDisplayName = %q, want %q", got, tc.want)
			}
		})
	}
}
