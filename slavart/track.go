package slavart

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const randomPrefixLen = 30

type Performer struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

func (p Performer) String() string {
	return p.Name
}

type Track struct {
	Title     string    `json:"title"`
	ID        int64     `json:"id"`
	ISRC      string    `json:"isrc"`
	Performer Performer `json:"performer"`
}

func (t *Track) Log(e *zerolog.Event) {
	e.
		Int64("id", t.ID).
		Str("title", t.Title).
		Str("isrc", t.ISRC).
		Str("performer", t.Performer.Name)
}

// FileName returns the output file name for t: prefix followed by the underscore joined
// id, isrc, title and performer name, and ext. Path separators in the free-text parts
// are replaced so the result never leaves its directory.
func (t *Track) FileName(prefix, ext string) string {
	parts := []string{
		prefix,
		strconv.FormatInt(t.ID, 10),
		sanitize(t.ISRC),
		sanitize(t.Title),
		sanitize(t.Performer.Name),
	}
	return strings.Join(parts, "_") + "." + strings.TrimPrefix(ext, ".")
}

// RandomPrefix returns a fresh random alphanumeric file name prefix.
func RandomPrefix() string {
	return lo.RandomString(randomPrefixLen, lo.AlphanumericCharset)
}

// TrackFileName names a track known only by its id.
func TrackFileName(prefix string, id int64, ext string) string {
	return prefix + "_" + strconv.FormatInt(id, 10) + "." + strings.TrimPrefix(ext, ".")
}

var pathSeparatorReplacer = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

func sanitize(s string) string {
	return pathSeparatorReplacer.Replace(s)
}

type SearchResult struct {
	Query  string  `json:"query"`
	Tracks []Track `json:"-"`
}

// Len reports the number of selectable tracks.
func (r *SearchResult) Len() int {
	return len(r.Tracks)
}

// At returns the track at 1-based position sel.
func (r *SearchResult) At(sel int) (Track, bool) {
	if sel < 1 || sel > len(r.Tracks) {
		return Track{}, false
	}
	return r.Tracks[sel-1], true
}
