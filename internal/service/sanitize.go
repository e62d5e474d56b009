package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	tagRe             = regexp.MustCompile(`<[^>]*>`)
	octetRe           = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	entityRe          = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	usernameInvalidRe = regexp.MustCompile(`[^a-zA-Z0-9 _.\-@]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
	slugInvalidRe     = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphensRe = regexp.MustCompile(`-+`)
	emailWhitespaceRe = regexp.MustCompile(`\s`)
)

// sanitizeUsername turns a display name into a login name.
// "José <b>García</b>" -> "Jose Garcia".
func sanitizeUsername(name string) string {
	s := tagRe.ReplaceAllString(name, "")
	s = removeAccents(s)
	s = octetRe.ReplaceAllString(s, "")
	s = entityRe.ReplaceAllString(s, "")
	s = usernameInvalidRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// slugify derives a term slug from its name.
// "Breaking News" -> "breaking-news".
func slugify(name string) string {
	s := strings.ToLower(removeAccents(name))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	s = multipleHyphensRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func normalizeEmail(raw string) string {
	return strings.ToLower(emailWhitespaceRe.ReplaceAllString(raw, ""))
}

// removeAccents decomposes the string and drops everything outside ASCII.
func removeAccents(s string) string {
	s = norm.NFKD.String(s)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}
