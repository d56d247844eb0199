package middleware

import "strings"

// MaskUserID маскирует id пользователя в логах запросов.
func MaskUserID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "***"
}
