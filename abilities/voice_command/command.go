package voice_command

import "strings"

// HelpAction is handled by the interpreter itself instead of being forwarded
// to the host
const HelpAction = "showHelp"

// Command binds trigger keywords to a structured action string
// (domain:target[:value]) and a spoken confirmation
type Command struct {
	Action      string   `json:"action"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// commands is ordered: the first command whose first matching keyword is
// contained in the transcript wins. Matching is case-insensitive substring
// matching, no fuzzing or ranking.
var commands = []Command{
	{Action: "navigate:tasks", Description: "Navigate to tasks page", Keywords: []string{"show tasks", "view tasks", "my tasks"}},
	{Action: "navigate:messages", Description: "Navigate to messages page", Keywords: []string{"show messages", "view messages", "my messages"}},
	{Action: "navigate:dashboard", Description: "Navigate to dashboard", Keywords: []string{"show dashboard", "go home", "dashboard"}},
	{Action: "navigate:accessibility", Description: "Navigate to accessibility settings", Keywords: []string{"show settings", "accessibility settings", "settings"}},
	{Action: "toggle:highContrast:on", Description: "Enable high contrast mode", Keywords: []string{"enable high contrast", "high contrast on"}},
	{Action: "toggle:highContrast:off", Description: "Disable high contrast mode", Keywords: []string{"disable high contrast", "high contrast off"}},
	{Action: "toggle:darkMode:on", Description: "Enable dark mode", Keywords: []string{"enable dark mode", "dark mode on", "dark theme"}},
	{Action: "toggle:darkMode:off", Description: "Enable light mode", Keywords: []string{"disable dark mode", "light mode", "light theme"}},
	{Action: HelpAction, Description: "Show available voice commands", Keywords: []string{"help", "what can you do", "commands"}},
}

// Commands returns the command table in matching order
func Commands() []Command { return commands }

// Match finds the command triggered by a transcript
func Match(transcript string) (c Command, ok bool) {
	t := strings.ToLower(transcript)
	for _, c := range commands {
		for _, k := range c.Keywords {
			if strings.Contains(t, k) {
				return c, true
			}
		}
	}
	return
}

// helpText lists the canonical keyword of the first five commands
func helpText() string {
	var ks []string
	for idx, c := range commands {
		if idx >= 5 {
			break
		}
		ks = append(ks, c.Keywords[0])
	}
	return "You can say: " + strings.Join(ks, ", ")
}
