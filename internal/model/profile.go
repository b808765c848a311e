// internal/model/profile.go
package model

import "time"

// ProfileInfo is a lead extracted from a profile card. ID is the slug after /in/
// in the profile URL and is empty when the card has no profile link.
type ProfileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FirstName  string    `json:"firstName"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	ProfileURL string    `json:"profileUrl"`
	Date       time.Time `json:"date"`
}

// CSVHeader lists the exported keys in declaration order.
func (p ProfileInfo) CSVHeader() []string {
	return []string{"id", "name", "firstName", "title", "company", "profileUrl", "date"}
}

func (p ProfileInfo) CSVValues() []string {
	date := ""
	if !p.Date.IsZero() {
		date = p.Date.UTC().Format(time.RFC3339)
	}
	return []string{p.ID, p.Name, p.FirstName, p.Title, p.Company, p.ProfileURL, date}
}
