package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[-\s]+`)
)

// slugify lowercases s, drops non word characters and joins words with "-"
func slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	slug := strings.ToLower(b.String())
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(strings.TrimSpace(slug), "-")
	return strings.Trim(slug, "-_")
}

// slugRegistry hands out slugs that are unique among the ones it has seen
type slugRegistry struct {
	used map[string]struct{}
}

func newSlugRegistry(models []*model.RiskModel) *slugRegistry {
	reg := &slugRegistry{used: make(map[string]struct{})}
	for _, rm := range models {
		for _, f := range rm.Fields {
			reg.used[f.Slug] = struct{}{}
		}
	}
	return reg
}

func (r *slugRegistry) generate(name string) string {
	origin := slugify(name)
	if origin == "" {
		origin = "field"
	}
	if len(origin) > model.FieldMaxLength {
		origin = origin[:model.FieldMaxLength]
	}

	slug := origin
	for count := 1; r.exists(slug); count++ {
		suffix := "-" + strconv.Itoa(count)
		base := origin
		if len(base)+len(suffix) > model.FieldMaxLength {
			base = base[:model.FieldMaxLength-len(suffix)]
		}
		slug = base + suffix
	}

	r.used[slug] = struct{}{}
	return slug
}

func (r *slugRegistry) exists(slug string) bool {
	_, ok := r.used[slug]
	return ok
}
