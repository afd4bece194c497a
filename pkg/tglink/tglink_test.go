package tglink

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"username", "ChannelName", "channelname"},
		{"username with at", "@ChannelName", "channelname"},
		{"public link", "https://t.me/ChannelName", "channelname"},
		{"public link trailing slash", "https://t.me/ChannelName/", "channelname"},
		{"public link with query", "https://t.me/ChannelName?start=abc", "channelname"},
		{"private link keeps case", "https://t.me/+AbCdEf", "https://t.me/+AbCdEf"},
		{"joinchat keeps case", "https://t.me/joinchat/AbCdEf", "https://t.me/joinchat/AbCdEf"},
		{"numeric id", "-1001234567890", "-1001234567890"},
		{"command is invalid", "/start", ""},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tc.in); got != tc.want {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeInviteLink(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"https plus", "https://t.me/+abcDEF123", "abcDEF123"},
		{"http plus", "http://t.me/+abcDEF123", "abcDEF123"},
		{"bare", "t.me/+abcDEF123", "abcDEF123"},
		{"telegram.me", "https://telegram.me/+abcDEF123", "abcDEF123"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeInviteLink(tc.in); got != tc.want {
				t.Errorf("NormalizeInviteLink(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeInviteLink_DifferentSpellingsMatch(t *testing.T) {
	a := NormalizeInviteLink("https://t.me/+abc123")
	b := NormalizeInviteLink("t.me/+abc123")
	if a != b {
		t.Errorf("expected %q == %q", a, b)
	}
}
