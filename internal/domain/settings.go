package domain

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// UserSettings holds process-wide preferences
type UserSettings struct {
	Theme                Theme  `json:"theme"`
	Currency             string `json:"currency"`
	Language             string `json:"language"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

// DefaultUserSettings returns the settings written on first run
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Theme:                ThemeDark,
		Currency:             "CNY",
		Language:             "zh-CN",
		NotificationsEnabled: true,
	}
}
