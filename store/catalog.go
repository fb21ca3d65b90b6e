package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/query"
)

// FileCatalog loads the assessment catalog from a JSON file. The file holds
// either a bare array of assessments or an object with an "assessments" key.
// Records are normalized at load time: IDs are slugged from the URL when
// absent, categories and keywords are inferred from name+description when the
// source omits them. File order is preserved.
type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

func (f *FileCatalog) LoadCatalog(ctx context.Context) ([]*core.Assessment, error) {
	if f.path == "" {
		return nil, core.NewCatalogUnavailableError("catalog path not configured", nil)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, core.NewCatalogUnavailableError(fmt.Sprintf("read catalog %s", f.path), err)
	}
	items, err := ParseCatalog(data)
	if err != nil {
		return nil, core.NewCatalogUnavailableError(fmt.Sprintf("parse catalog %s", f.path), err)
	}
	return items, nil
}

// ParseCatalog decodes and normalizes raw catalog JSON.
func ParseCatalog(data []byte) ([]*core.Assessment, error) {
	raws, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	items := make([]*core.Assessment, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, r := range raws {
		a, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if prev, ok := seen[a.ID]; ok {
			return nil, fmt.Errorf("record %d: duplicate id %q (first at record %d)", i, a.ID, prev)
		}
		seen[a.ID] = i
		items = append(items, a)
	}
	return items, nil
}

func decodeRaw(data []byte) ([]rawAssessment, error) {
	var raws []rawAssessment
	if err := json.Unmarshal(data, &raws); err == nil {
		return raws, nil
	}
	var wrapped struct {
		Assessments []rawAssessment `json:"assessments"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if wrapped.Assessments == nil {
		return nil, fmt.Errorf("decode catalog: no assessment array found")
	}
	return wrapped.Assessments, nil
}

// rawAssessment tolerates the field variants seen in scraped catalog dumps:
// "assessment_name" for name, durations as strings ("20 minutes", "Untimed"),
// support flags as Yes/No strings.
type rawAssessment struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	AssessmentName  string       `json:"assessment_name"`
	URL             string       `json:"url"`
	Description     string       `json:"description"`
	TestType        flexTestType `json:"test_type"`
	Duration        flexDuration `json:"duration"`
	RemoteSupport   flexBool     `json:"remote_support"`
	AdaptiveSupport flexBool     `json:"adaptive_support"`
	Keywords        []string     `json:"keywords"`
}

func (r rawAssessment) normalize() (*core.Assessment, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = strings.TrimSpace(r.AssessmentName)
	}
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}
	url := strings.TrimSpace(r.URL)
	if url == "" {
		return nil, fmt.Errorf("missing url for %q", name)
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = IDFromURL(url)
	}
	if id == "" {
		id = Slug(name)
	}
	if id == "" {
		return nil, fmt.Errorf("cannot derive id for %q", name)
	}

	a := &core.Assessment{
		ID:              id,
		Name:            name,
		URL:             url,
		Description:     strings.TrimSpace(r.Description),
		Duration:        int(r.Duration),
		RemoteSupport:   bool(r.RemoteSupport),
		AdaptiveSupport: bool(r.AdaptiveSupport),
	}

	if t := core.TestType(r.TestType); t.Valid() {
		a.Category = t
	} else {
		a.Category = query.InferItemCategory(a.Name + " " + a.Description)
	}

	a.Keywords = normalizeKeywords(r.Keywords)
	if len(a.Keywords) == 0 {
		a.Keywords = query.ExtractKeywords(a.Name+" "+a.Description, 20)
	}
	return a, nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Slug lowercases s and collapses runs of non-alphanumerics into single
// hyphens. "Java 8 (New)" becomes "java-8-new".
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// IDFromURL derives the canonical assessment ID from a catalog URL: the slug
// of its last path segment. Labeled datasets keyed by URL resolve to the
// same IDs the ingester assigns.
func IDFromURL(rawURL string) string {
	return Slug(lastPathSegment(rawURL))
}

func lastPathSegment(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		url = url[i+1:]
	}
	return url
}

// flexTestType accepts both the single-letter codes and spelled-out labels.
type flexTestType string

func (t *flexTestType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := core.ParseTestType(s); err == nil {
		*t = flexTestType(parsed)
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cognitive", "knowledge and skills":
		*t = flexTestType(core.TestTypeKnowledge)
	case "behaviour", "behavior", "personality and behaviour":
		*t = flexTestType(core.TestTypePersonality)
	default:
		*t = "" // left for inference
	}
	return nil
}

// flexDuration accepts minutes as a JSON number or as strings like
// "20 minutes", "45 mins", "1 hour". Unparseable values decode as 0 (unknown).
type flexDuration int

func (d *flexDuration) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			n = 0
		}
		*d = flexDuration(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = flexDuration(parseMinutes(s))
	return nil
}

func parseMinutes(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	if strings.Contains(s, "hour") {
		n *= 60
	}
	return n
}

// flexBool accepts JSON booleans and the Yes/No strings used by the catalog
// source. Anything else decodes as false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

var _ core.CatalogStore = (*FileCatalog)(nil)
