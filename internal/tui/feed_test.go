package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

func drain(feed *Feed) []ui.LogLineMsg {
	var out []ui.LogLineMsg
	for {
		select {
		case line := <-feed.Lines():
			out = append(out, line)
		default:
			return out
		}
	}
}

func TestFeed_ForwardsLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	feed := NewFeed()
	log := feed.With(ports.F("task", "git-clone"), ports.F("session", "abc"))

	log.Debug(ctx, "hidden")
	log.Info(ctx, "cloning", ports.F("repo", "git@bitbucket.org:acme/app.git"))
	log.Error(ctx, "failed", ports.Err(errors.New("exit 128")))

	lines := drain(feed)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0].Level)
	assert.Equal(t, "cloning repo=git@bitbucket.org:acme/app.git", lines[0].Text)
	assert.Equal(t, "ERROR", lines[1].Level)
	assert.Contains(t, lines[1].Text, "exit 128")
	assert.NotContains(t, lines[1].Text, "session")
}

func TestFeed_Level(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	feed.SetLevel(ports.LevelDebug)
	assert.Equal(t, ports.LevelDebug, feed.With().Level())

	feed.Debug(context.Background(), "trace")
	assert.Len(t, drain(feed), 1)
}

func TestFeed_DropsWhenFull(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	for i := 0; i < feedBuffer+5; i++ {
		feed.Info(context.Background(), "line")
	}
	assert.Equal(t, 5, feed.Dropped())
	assert.Len(t, drain(feed), feedBuffer)
}

func TestFeed_Close(t *testing.T) {
	t.Parallel()

	feed := NewFeed()
	feed.Close()
	feed.Close()
	feed.Info(context.Background(), "after close")

	_, ok := <-feed.Lines()
	assert.False(t, ok)
	assert.IsType(t, ui.FeedClosedMsg{}, ui.WaitForLine(feed.Lines())())
}
