// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

const (
	PlaceholderFirstName = "{{first_name}}"
	PlaceholderName      = "{{name}}"
	PlaceholderCompany   = "{{empresa}}"
	PlaceholderTitle     = "{{cargo}}"
)

// PersonalizeMessage fills the profile placeholders of a template. Unknown
// placeholders are left as they are and values are not escaped.
func PersonalizeMessage(template string, p model.ProfileInfo) string {
	message := template
	message = strings.ReplaceAll(message, PlaceholderFirstName, p.FirstName)
	message = strings.ReplaceAll(message, PlaceholderName, p.Name)
	message = strings.ReplaceAll(message, PlaceholderCompany, p.Company)
	message = strings.ReplaceAll(message, PlaceholderTitle, p.Title)
	return message
}

// ShouldConnect applies the campaign filters. Each non-empty filter list
// needs at least one case-insensitive substring match.
func ShouldConnect(p model.ProfileInfo, f model.Filters) bool {
	if len(f.Companies) > 0 && !containsAny(p.Company, f.Companies) {
		return false
	}
	if len(f.Titles) > 0 && !containsAny(p.Title, f.Titles) {
		return false
	}
	return true
}

func containsAny(value string, needles []string) bool {
	value = strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(value, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
