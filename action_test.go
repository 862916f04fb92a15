package accessvoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	assert.Equal(t, Action{Domain: "navigate", Target: "tasks"}, ParseAction("navigate:tasks"))
	assert.Equal(t, Action{Domain: "toggle", Target: "highContrast", Value: "on"}, ParseAction("toggle:highContrast:on"))
	assert.Equal(t, Action{Domain: "showHelp"}, ParseAction("showHelp"))
	assert.Equal(t, "toggle:darkMode:off", Action{Domain: "toggle", Target: "darkMode", Value: "off"}.String())
	assert.Equal(t, "navigate:tasks", ParseAction("navigate:tasks").String())
}
