// Package source locates a spreadsheet tab from a user-supplied link or id
// and downloads its CSV export.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultGID is the tab id of the first sheet in a document.
const DefaultGID = "0"

// publishedPrefix starts every id issued by "Publish to web".
const publishedPrefix = "2PACX-"

// ErrSourceMissing is returned when neither a URL nor an id is supplied.
var ErrSourceMissing = errors.New("source missing: provide url or pub_id")

// UnrecognizedURLError is returned for links that are neither a published
// nor an edit link to a spreadsheet.
type UnrecognizedURLError struct {
	URL string
}

func (e *UnrecognizedURLError) Error() string {
	return fmt.Sprintf("unrecognized sheet url %q: expected /spreadsheets/d/e/<id>/pub or /spreadsheets/d/<id>", e.URL)
}

// Source identifies one tab of a spreadsheet.
type Source struct {
	ID        string
	GID       string
	Published bool // ID is a "Publish to web" id rather than a document id
}

// Resolve turns either a link or an id plus tab id into a Source. The link
// wins when both are given. Two link shapes are understood:
//
//	https://docs.google.com/spreadsheets/d/e/<pub id>/pub?gid=<tab>&output=csv
//	https://docs.google.com/spreadsheets/d/<doc id>/edit#gid=<tab>
//
// The tab id defaults to "0".
func Resolve(rawURL, id, gid string) (Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" {
		return parseURL(rawURL)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, ErrSourceMissing
	}
	return Source{
		ID:        id,
		GID:       orDefaultGID(gid),
		Published: strings.HasPrefix(id, publishedPrefix),
	}, nil
}

func parseURL(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Source{}, &UnrecognizedURLError{URL: raw}
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	i := slices.Index(segs, "spreadsheets")
	if i < 0 {
		return Source{}, &UnrecognizedURLError{URL: raw}
	}
	// Account-scoped links put /u/<n> between spreadsheets and d.
	j := slices.Index(segs[i:], "d")
	if j < 0 || i+j+1 >= len(segs) {
		return Source{}, &UnrecognizedURLError{URL: raw}
	}
	rest := segs[i+j+1:]

	// Published: /spreadsheets/d/e/<id>/pub or /pubhtml
	if rest[0] == "e" {
		if len(rest) < 3 || rest[1] == "" || !strings.HasPrefix(rest[2], "pub") {
			return Source{}, &UnrecognizedURLError{URL: raw}
		}
		return Source{
			ID:        rest[1],
			GID:       orDefaultGID(u.Query().Get("gid")),
			Published: true,
		}, nil
	}

	if rest[0] == "" {
		return Source{}, &UnrecognizedURLError{URL: raw}
	}

	gid := fragmentGID(u.Fragment)
	if gid == "" {
		gid = u.Query().Get("gid")
	}
	return Source{ID: rest[0], GID: orDefaultGID(gid)}, nil
}

// fragmentGID reads gid from a fragment such as "gid=123" or
// "gid=123&range=A1".
func fragmentGID(fragment string) string {
	if fragment == "" {
		return ""
	}
	v, err := url.ParseQuery(fragment)
	if err != nil {
		return ""
	}
	return v.Get("gid")
}

func orDefaultGID(gid string) string {
	gid = strings.TrimSpace(gid)
	if gid == "" {
		return DefaultGID
	}
	return gid
}
