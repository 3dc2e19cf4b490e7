// Package platform derives capability hints from a platform descriptor
// string. Detection happens once at startup; the rest of the app only
// sees the resulting Hints value.
package platform

import "strings"

// Hints captures platform policy inputs the controller cares about.
type Hints struct {
	// Handheld selects the reduced capture profile and enables semantic
	// front/back camera toggling.
	Handheld bool
	// SmallRecorderBuffers widens the recorder timeslice on platforms
	// known to mishandle small chunk intervals.
	SmallRecorderBuffers bool
}

var handheldKeywords = []string{
	"android", "iphone", "ipad", "ipod", "mobile",
	"webos", "blackberry", "opera mini", "windows phone", "handheld",
}

var smallBufferKeywords = []string{"iphone", "ipad", "ipod", "ios"}

// Detect matches the descriptor against fixed keyword sets. The
// descriptor is typically a user-agent string or an operator-supplied
// override such as "handheld".
func Detect(descriptor string) Hints {
	normalized := strings.ToLower(descriptor)
	hints := Hints{}
	for _, keyword := range handheldKeywords {
		if strings.Contains(normalized, keyword) {
			hints.Handheld = true
			break
		}
	}
	for _, keyword := range smallBufferKeywords {
		if strings.Contains(normalized, keyword) {
			hints.SmallRecorderBuffers = true
			break
		}
	}
	return hints
}
