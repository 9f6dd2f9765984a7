package store

// Snapshot keys. They match the keys used by existing browser-side libraries
// so exported snapshots stay interchangeable.
const (
	KeyBooks      = "ebookLibrary"
	KeyCategories = "ebookCategories"
	KeyProfile    = "adminProfile"
	KeyTheme      = "theme"
	KeySession    = "currentUser"
)

// Keys lists every snapshot key in display order.
func Keys() []string {
	return []string{KeyBooks, KeyCategories, KeyProfile, KeyTheme, KeySession}
}
