package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Article struct {
	ID          int       `json:"id"`
	Slug        string    `json:"slug,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	PublishedAt Timestamp `json:"published_at"`
	SmallImage  []Image   `json:"small_image"`
	MediumImage []Image   `json:"medium_image"`
}

type Image struct {
	ID       int    `json:"id"`
	Mime     string `json:"mime,omitempty"`
	FileName string `json:"file_name,omitempty"`
	URL      string `json:"url"`
}

// Thumbnail returns the first usable image URL, preferring the medium variant.
func (a Article) Thumbnail() string {
	for _, set := range [][]Image{a.MediumImage, a.SmallImage} {
		for _, img := range set {
			if img.URL != "" {
				return img.URL
			}
		}
	}
	return ""
}

// Timestamp accepts both RFC 3339 and the "2006-01-02 15:04:05" form the
// article source emits.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// ArticlePage is one page of articles plus the collection total reported by the source.
type ArticlePage struct {
	Articles []Article `json:"data"`
	Total    int       `json:"total"`
}

// SortKey orders articles by publish date.
type SortKey int

const (
	SortDescending SortKey = iota
	SortAscending
)

const SortField = "published_at"

// Param renders the signed field name the remote expects: "-published_at" for descending.
func (k SortKey) Param() string {
	if k == SortAscending {
		return SortField
	}
	return "-" + SortField
}

func (k SortKey) String() string {
	if k == SortAscending {
		return "asc"
	}
	return "desc"
}

func (k SortKey) Valid() bool {
	return k == SortDescending || k == SortAscending
}

func (k SortKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SortKey) UnmarshalText(b []byte) error {
	parsed, err := ParseSortKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "desc", "-" + SortField, "newest":
		return SortDescending, nil
	case "asc", SortField, "oldest":
		return SortAscending, nil
	}
	return 0, fmt.Errorf("unknown sort %q. Valid sorts: asc, desc", s)
}

// ArticleQuery is the tuple that identifies one remote page request.
type ArticleQuery struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Sort     SortKey `json:"sort"`
}

func (q ArticleQuery) String() string {
	return fmt.Sprintf("p%d:s%d:sort%s", q.Page, q.PageSize, q.Sort)
}
