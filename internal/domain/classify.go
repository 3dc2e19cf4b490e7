package domain

import "strings"

// CameraType is the facing direction derived from a device label.
type CameraType string

const (
	CameraTypeFront   CameraType = "front"
	CameraTypeBack    CameraType = "back"
	CameraTypeUnknown CameraType = "unknown"
)

var (
	frontKeywords = []string{"front", "user", "facing user", "selfie"}
	backKeywords  = []string{"back", "rear", "environment", "facing environment"}
)

// ClassifyLabel derives a camera facing direction from a device label by
// case-insensitive keyword matching. Labels without a keyword match (for
// example "Integrated Webcam") classify as unknown.
func ClassifyLabel(label string) CameraType {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return CameraTypeUnknown
	}
	for _, keyword := range frontKeywords {
		if strings.Contains(normalized, keyword) {
			return CameraTypeFront
		}
	}
	for _, keyword := range backKeywords {
		if strings.Contains(normalized, keyword) {
			return CameraTypeBack
		}
	}
	return CameraTypeUnknown
}
