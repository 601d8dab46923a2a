package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botdeckhq/botdeck/internal/registry"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantKeyword   string
		wantRemainder string
		wantOK        bool
	}{
		{"keyword with remainder", "/random0 foobar", "random0", "foobar", true},
		{"keyword only", "/random0", "random0", "", true},
		{"multi-word remainder", "/weather paris tomorrow", "weather", "paris tomorrow", true},
		{"leading whitespace", "  /random0 foobar", "random0", "foobar", true},
		{"no prefix", "random0 foobar", "", "", false},
		{"prefix mid-sentence", "hello /random0", "", "", false},
		{"bare prefix", "/ foobar", "", "", false},
		{"empty text", "", "", "", false},
		{"whitespace only", "   \t  ", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyword, remainder, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKeyword, keyword)
			assert.Equal(t, tt.wantRemainder, remainder)
		})
	}
}

type fakeFinder struct {
	bot      registry.Bot
	err      error
	lookups  int
	keyword  string
	clientID string
}

func (f *fakeFinder) FindBotByKeyword(_ context.Context, clientKey, keyword string) (registry.Bot, error) {
	f.lookups++
	f.clientID = clientKey
	f.keyword = keyword
	if f.err != nil {
		return registry.Bot{}, f.err
	}
	return f.bot, nil
}

func TestMatchSkipsRegistryForNonCommands(t *testing.T) {
	finder := &fakeFinder{}
	m := New(nil, finder)

	_, err := m.Match(context.Background(), "1234", "just chatting")
	require.ErrorIs(t, err, ErrNotACommand)
	assert.Zero(t, finder.lookups, "registry must not be consulted for non-commands")
}

func TestMatchResolvesInstalledBot(t *testing.T) {
	bot := registry.Bot{ID: "bot-1", Keyword: "random0"}
	finder := &fakeFinder{bot: bot}
	m := New(nil, finder)

	match, err := m.Match(context.Background(), "1234", "/random0 foobar")
	require.NoError(t, err)
	assert.Equal(t, "bot-1", match.Bot.ID)
	assert.Equal(t, "foobar", match.Remainder)
	assert.Equal(t, "1234", finder.clientID)
	assert.Equal(t, "random0", finder.keyword)
}

func TestMatchPropagatesRegistryOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unknown keyword", registry.ErrBotNotFound},
		{"not installed", registry.ErrBotNotInstalled},
		{"store failure", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeFinder{err: tt.err}
			m := New(nil, finder)
			_, err := m.Match(context.Background(), "1234", "/random0 foobar")
			require.ErrorIs(t, err, tt.err)
		})
	}
}
