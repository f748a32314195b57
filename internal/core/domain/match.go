package domain

import (
	"time"
)

// Match is a single sporting event that can be found on the map.
type Match struct {
	ID         int64      `json:"id"`
	League     *string    `json:"league"`
	Sport      string     `json:"sport"`
	HomeTeam   *string    `json:"home_team"`
	AwayTeam   *string    `json:"away_team"`
	EventDate  *time.Time `json:"event_date"`
	EventTime  *time.Time `json:"event_time"`
	Stadium    *string    `json:"stadium"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	DateString *string    `json:"date_string"`
}

// Location returns the match coordinates, or false when either is missing.
func (m *Match) Location() (GeoPoint, bool) {
	if m.Latitude == nil || m.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *m.Latitude, Lng: *m.Longitude}, true
}

// City is a place a user can search for to centre the map.
type City struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ASCIIName   string  `json:"ascii_name"`
	CountryCode string  `json:"country_code,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Population  int64   `json:"population"`
}

// CompletedSections tracks checkout progress for a saved match.
type CompletedSections struct {
	Tickets       bool `json:"tickets"`
	Travel        bool `json:"travel"`
	Accommodation bool `json:"accommodation"`
}

// SavedMatch is a match an owner put on their list, with checkout progress.
type SavedMatch struct {
	OwnerID  string            `json:"owner_id"`
	Match    Match             `json:"match"`
	Sections CompletedSections `json:"completed_sections"`
	SavedAt  time.Time         `json:"saved_at"`
}

// CatalogUpdate announces that the match catalog changed.
type CatalogUpdate struct {
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	Matches    int       `json:"matches"`
	ImportedAt time.Time `json:"imported_at"`
}
