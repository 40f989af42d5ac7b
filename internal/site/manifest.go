package site

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapview/internal/views"
)

// Manifest lists the pages of a build.
type Manifest struct {
	BuildID     string    `json:"build_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Pages       []*Page   `json:"pages"`
	Stats       Stats     `json:"stats"`
}

// Page is one rendered view.
type Page struct {
	Path   string `json:"path"`
	View   string `json:"view"`
	Title  string `json:"title,omitempty"`
	Output string `json:"output"`

	view *views.View
}

// Stats summarizes a build.
type Stats struct {
	PageCount     int `json:"page_count"`
	MarkdownCount int `json:"markdown_count"`
	SkippedCount  int `json:"skipped_count"`
	Bytes         int `json:"bytes"`
}

func newManifest(now time.Time, pages []*Page, skipped, size int) *Manifest {
	sorted := make([]*Page, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var markdown int
	for _, p := range sorted {
		if p.view != nil && p.view.IsMarkdown {
			markdown++
		}
	}

	return &Manifest{
		BuildID:     uuid.New().String(),
		GeneratedAt: now.UTC(),
		Pages:       sorted,
		Stats: Stats{
			PageCount:     len(sorted),
			MarkdownCount: markdown,
			SkippedCount:  skipped,
			Bytes:         size,
		},
	}
}
