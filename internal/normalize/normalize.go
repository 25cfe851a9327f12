package normalize

import (
	"strings"
	"unicode"
)

// Key canonicalizes a raw entity name into a comparison key: parenthetical
// segments removed, fullwidth Latin/digits folded to halfwidth, everything
// that is not a letter or digit stripped, then case-folded. An empty key
// means the name carried no usable signal; callers must never merge on it.
func Key(raw string) string {
	cleaned := dropParentheticals(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		r = foldFullwidth(r)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Parentheticals returns the contents of parenthetical segments, e.g.
// "Unicharm (尤妮佳)" yields ["尤妮佳"]. These are candidate aliases, not
// discarded text.
func Parentheticals(raw string) []string {
	var out []string
	for _, open := range []struct{ o, c rune }{{'(', ')'}, {'（', '）'}} {
		rest := raw
		for {
			i := strings.IndexRune(rest, open.o)
			if i < 0 {
				break
			}
			rest = rest[i+len(string(open.o)):]
			j := strings.IndexRune(rest, open.c)
			if j < 0 {
				break
			}
			if inner := strings.TrimSpace(rest[:j]); inner != "" {
				out = append(out, inner)
			}
			rest = rest[j+len(string(open.c)):]
		}
	}
	return out
}

func dropParentheticals(s string) string {
	s = dropBetween(s, '(', ')')
	return dropBetween(s, '（', '）')
}

func dropBetween(s string, open, close rune) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == open:
			depth++
		case r == close && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldFullwidth maps fullwidth ASCII forms (ＡＢＣ, １２３) to their
// halfwidth equivalents so mixed-width extractions compare equal.
func foldFullwidth(r rune) rune {
	if r >= 0xFF01 && r <= 0xFF5E {
		return r - 0xFEE0
	}
	if r == 0x3000 {
		return ' '
	}
	return r
}

// HasLatin reports whether s contains at least one Latin letter.
func HasLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// HasChinese reports whether s contains at least one Han character.
func HasChinese(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// EnglishPart extracts the Latin-script run of a mixed label, e.g.
// "Huggies 好奇" -> "Huggies".
func EnglishPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '\'' || r == '&' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ChinesePart extracts the Han-script run of a mixed label.
func ChinesePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var englishSuffixes = map[string]struct{}{
	"auto": {}, "automotive": {}, "group": {}, "inc": {}, "ltd": {},
	"co": {}, "company": {}, "corp": {}, "holdings": {}, "limited": {},
}

var chineseSuffixes = []string{"有限责任公司", "有限公司", "集团", "公司", "汽车", "控股"}

// StripBrandSuffix removes trailing corporate suffixes so "Ford Motor
// Company" and "Ford" resolve to the same alias group. Chinese suffixes are
// stripped before English ones to handle mixed labels.
func StripBrandSuffix(name string) string {
	value := strings.TrimSpace(name)
	if value == "" {
		return ""
	}
	for _, suffix := range chineseSuffixes {
		if strings.HasSuffix(value, suffix) {
			value = strings.TrimSpace(strings.TrimSuffix(value, suffix))
			break
		}
	}
	parts := strings.Fields(strings.ReplaceAll(value, ".", " "))
	for len(parts) > 0 {
		last := strings.ToLower(parts[len(parts)-1])
		if _, ok := englishSuffixes[last]; !ok {
			break
		}
		parts = parts[:len(parts)-1]
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
