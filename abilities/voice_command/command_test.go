package voice_command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	// Scenario transcripts
	c, ok := Match("show tasks please")
	assert.True(t, ok)
	assert.Equal(t, "navigate:tasks", c.Action)

	c, ok = Match("enable dark mode now")
	assert.True(t, ok)
	assert.Equal(t, "toggle:darkMode:on", c.Action)

	_, ok = Match("banana")
	assert.False(t, ok)

	// Alternate keywords
	c, ok = Match("view tasks")
	assert.True(t, ok)
	assert.Equal(t, "navigate:tasks", c.Action)

	c, ok = Match("switch to light mode")
	assert.True(t, ok)
	assert.Equal(t, "toggle:darkMode:off", c.Action)

	c, ok = Match("accessibility settings")
	assert.True(t, ok)
	assert.Equal(t, "navigate:accessibility", c.Action)

	// Keywords are phrases, a lone word out of them doesn't trigger
	_, ok = Match("I completed a task")
	assert.False(t, ok)

	// Matching is case-insensitive
	c, ok = Match("SHOW TASKS")
	assert.True(t, ok)
	assert.Equal(t, "navigate:tasks", c.Action)

	// The earliest command in table order wins
	c, ok = Match("show tasks and messages")
	assert.True(t, ok)
	assert.Equal(t, "navigate:tasks", c.Action)

	// Matching is deterministic
	for idx := 0; idx < 10; idx++ {
		c, ok = Match("show settings for me")
		assert.True(t, ok)
		assert.Equal(t, "navigate:accessibility", c.Action)
	}

	// Help
	c, ok = Match("what can you do")
	assert.True(t, ok)
	assert.Equal(t, HelpAction, c.Action)
}

func TestHelpText(t *testing.T) {
	// The first five canonical keywords are listed
	assert.Equal(t, "You can say: show tasks, show messages, show dashboard, show settings, enable high contrast", helpText())
}
