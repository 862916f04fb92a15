package voice_command

// Guide walks the user through re-enabling microphone access after a
// permission denial
type Guide struct {
	Browsers []BrowserGuide `json:"browsers"`
}

type BrowserGuide struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

var permissionGuide = Guide{
	Browsers: []BrowserGuide{
		{
			Name: "Chrome / Edge",
			Steps: []string{
				"Click the lock icon in the address bar",
				"Set Microphone to Allow",
				"Reload the page",
			},
		},
		{
			Name: "Safari",
			Steps: []string{
				"Open Safari > Settings for This Website",
				"Set Microphone to Allow",
				"Reload the page",
			},
		},
		{
			Name: "Mobile",
			Steps: []string{
				"Open your device settings",
				"Find the browser in the app list",
				"Enable the microphone permission",
				"Return to the app and try again",
			},
		},
	},
}

// PermissionGuide returns the microphone remediation guide
func PermissionGuide() Guide { return permissionGuide }
