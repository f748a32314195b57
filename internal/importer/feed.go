// Package importer reads match feeds and city lists into domain records.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/pkg/geospatial"
)

// Report counts what a parse kept and skipped.
type Report struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Feed formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DetectFormat picks the feed format from the file extension, falling back
// to sniffing the first non-space byte.
func DetectFormat(path string, head []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	}
	if b := bytes.TrimSpace(head); len(b) > 0 && b[0] == '[' {
		return FormatJSON
	}
	return FormatCSV
}

// LoadMatchesFile parses a match feed from disk.
func LoadMatchesFile(path string) ([]domain.Match, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head, _ := r.Peek(64)
	switch DetectFormat(path, head) {
	case FormatJSON:
		return ParseMatchesJSON(r)
	default:
		return ParseMatchesCSV(r)
	}
}

// LoadCitiesFile parses a cities CSV from disk.
func LoadCitiesFile(path string) ([]domain.City, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open cities: %w", err)
	}
	defer f.Close()
	return ParseCitiesCSV(f)
}

// jsonMatch mirrors the feed shape. Numeric fields may arrive as numbers
// or strings.
type jsonMatch struct {
	ID         any     `json:"id"`
	League     *string `json:"league"`
	Sport      string  `json:"sport"`
	HomeTeam   *string `json:"home_team"`
	AwayTeam   *string `json:"away_team"`
	EventDate  *string `json:"event_date"`
	EventTime  *string `json:"event_time"`
	Stadium    *string `json:"stadium"`
	Latitude   any     `json:"latitude"`
	Longitude  any     `json:"longitude"`
	DateString *string `json:"date_string"`
}

// ParseMatchesJSON reads a JSON array of matches. Records without a usable
// id are skipped; unparsable dates and coordinates become null.
func ParseMatchesJSON(r io.Reader) ([]domain.Match, Report, error) {
	var raw []jsonMatch
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, Report{}, fmt.Errorf("decode matches: %w", err)
	}

	var rep Report
	out := make([]domain.Match, 0, len(raw))
	for _, j := range raw {
		id, err := parseID(j.ID)
		if err != nil {
			rep.Skipped++
			continue
		}
		m := domain.Match{
			ID:         id,
			League:     j.League,
			Sport:      j.Sport,
			HomeTeam:   j.HomeTeam,
			AwayTeam:   j.AwayTeam,
			Stadium:    j.Stadium,
			DateString: j.DateString,
		}
		m.Latitude, m.Longitude = validLocation(optFloat(j.Latitude), optFloat(j.Longitude))
		if j.EventDate != nil {
			m.EventDate = ParseDate(*j.EventDate)
		}
		if j.EventTime != nil {
			m.EventTime = ParseTime(*j.EventTime)
		}
		out = append(out, m)
		rep.Rows++
	}
	return out, rep, nil
}

// ParseMatchesCSV reads a CSV feed with a header row naming the match
// columns. Column order is free; unknown columns are ignored.
func ParseMatchesCSV(r io.Reader) ([]domain.Match, Report, error) {
	rows, idx, err := readCSV(r, []string{"id", "sport"})
	if err != nil {
		return nil, Report{}, err
	}

	var rep Report
	out := make([]domain.Match, 0, len(rows))
	for _, row := range rows {
		cell := cellFunc(row, idx)
		id, err := parseID(cell("id"))
		if err != nil {
			rep.Skipped++
			continue
		}
		m := domain.Match{
			ID:         id,
			League:     optString(cell("league")),
			Sport:      cell("sport"),
			HomeTeam:   optString(cell("home_team")),
			AwayTeam:   optString(cell("away_team")),
			EventDate:  ParseDate(cell("event_date")),
			EventTime:  ParseTime(cell("event_time")),
			Stadium:    optString(cell("stadium")),
			DateString: optString(cell("date_string")),
		}
		m.Latitude, m.Longitude = validLocation(optFloat(cell("latitude")), optFloat(cell("longitude")))
		out = append(out, m)
		rep.Rows++
	}
	return out, rep, nil
}

// ParseCitiesCSV reads id,name,ascii_name,country_code,latitude,longitude,population.
// Rows without an id, a name or valid coordinates are skipped.
func ParseCitiesCSV(r io.Reader) ([]domain.City, Report, error) {
	rows, idx, err := readCSV(r, []string{"id", "name", "latitude", "longitude"})
	if err != nil {
		return nil, Report{}, err
	}

	var rep Report
	out := make([]domain.City, 0, len(rows))
	for _, row := range rows {
		cell := cellFunc(row, idx)
		id, err := parseID(cell("id"))
		lat, latErr := cast.ToFloat64E(cell("latitude"))
		lng, lngErr := cast.ToFloat64E(cell("longitude"))
		if err != nil || latErr != nil || lngErr != nil || cell("name") == "" || !geospatial.ValidPoint(lat, lng) {
			rep.Skipped++
			continue
		}
		c := domain.City{
			ID:          id,
			Name:        cell("name"),
			ASCIIName:   cell("ascii_name"),
			CountryCode: cell("country_code"),
			Latitude:    lat,
			Longitude:   lng,
			Population:  cast.ToInt64(cell("population")),
		}
		if c.ASCIIName == "" {
			c.ASCIIName = c.Name
		}
		out = append(out, c)
		rep.Rows++
	}
	return out, rep, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar day at UTC midnight. Anything else yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return &t
		}
	}
	return nil
}

// ParseTime accepts RFC 3339 (with or without fractional seconds) or
// "YYYY-MM-DD HH:MM:SS" read as UTC. The result is always UTC.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func readCSV(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty csv")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, idx, nil
}

func cellFunc(row []string, idx map[string]int) func(string) string {
	return func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
}

func parseID(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case json.Number:
		return x.Int64()
	case nil:
		return 0, fmt.Errorf("missing id")
	default:
		return cast.ToInt64E(x)
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// validLocation clears both coordinates when either lies outside WGS 84
// ranges. A single missing coordinate is kept as is.
func validLocation(lat, lon *float64) (*float64, *float64) {
	la, lo := 0.0, 0.0
	if lat != nil {
		la = *lat
	}
	if lon != nil {
		lo = *lon
	}
	if !geospatial.ValidPoint(la, lo) {
		return nil, nil
	}
	return lat, lon
}

// optFloat returns nil for blanks, nulls and anything that is not a finite number.
func optFloat(v any) *float64 {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v = s
	}
	if v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
