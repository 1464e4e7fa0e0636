package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

func TestErrorMsg(t *testing.T) {
	t.Parallel()

	msg := ui.NewErrorMsg(errors.New("boom"))
	errMsg, ok := msg.(ui.ErrorMsg)
	assert.True(t, ok)
	assert.Equal(t, "boom", errMsg.Error())
}

func TestWaitForLine(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ui.WaitForLine(nil))

	lines := make(chan ui.LogLineMsg, 1)
	lines <- ui.LogLineMsg{Level: "INFO", Text: "cloning"}
	assert.Equal(t, ui.LogLineMsg{Level: "INFO", Text: "cloning"}, ui.WaitForLine(lines)())

	close(lines)
	assert.Equal(t, ui.FeedClosedMsg{}, ui.WaitForLine(lines)())
}

func TestStyles_WithWidth(t *testing.T) {
	t.Parallel()

	s := ui.DefaultStyles().WithWidth(100)
	assert.Equal(t, 100, s.App.GetWidth())
	assert.Equal(t, 96, s.Panel.GetWidth())

	narrow := ui.DefaultStyles().WithWidth(3)
	assert.Equal(t, 0, narrow.Panel.GetWidth())
}
