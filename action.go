package accessvoice

import "strings"

// Action domains
const (
	NavigateActionDomain = "navigate"
	ToggleActionDomain   = "toggle"
)

// Action represents a structured command of the form domain:target[:value].
// It is built by splitting on colons only, nothing more is interpreted here.
type Action struct {
	Domain string
	Target string
	Value  string
}

// ParseAction parses an action string
func ParseAction(s string) (a Action) {
	ps := strings.SplitN(s, ":", 3)
	a.Domain = ps[0]
	if len(ps) > 1 {
		a.Target = ps[1]
	}
	if len(ps) > 2 {
		a.Value = ps[2]
	}
	return
}

// String implements the fmt.Stringer interface
func (a Action) String() string {
	s := a.Domain
	if a.Target != "" {
		s += ":" + a.Target
	}
	if a.Value != "" {
		s += ":" + a.Value
	}
	return s
}
