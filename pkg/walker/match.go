package walker

import (
	"regexp"
	"strings"
)

// pattern is a shell-style exclusion pattern. As in Python's fnmatch,
// '*' also matches path separators, so "tests/*" covers nested files.
type pattern struct {
	raw string
	re  *regexp.Regexp
}

func compilePattern(raw string) *pattern {
	re, err := regexp.Compile(translate(raw))
	if err != nil {
		return &pattern{raw: raw}
	}

	return &pattern{raw: raw, re: re}
}

func (p *pattern) match(name string) bool {
	if p.re == nil {
		return name == p.raw
	}

	return p.re.MatchString(name)
}

// translate converts a glob into an anchored regular expression.
func translate(glob string) string {
	var sb strings.Builder

	sb.WriteString("^")

	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				sb.WriteString(`\[`)

				continue
			}

			sb.WriteString(charClass(runes[i+1 : end]))

			i = end
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteString("$")

	return sb.String()
}

// classEnd returns the index of the ']' closing the class opened at start, or -1.
func classEnd(runes []rune, start int) int {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}

	if j < len(runes) && runes[j] == ']' {
		j++
	}

	for ; j < len(runes); j++ {
		if runes[j] == ']' {
			return j
		}
	}

	return -1
}

func charClass(body []rune) string {
	var sb strings.Builder

	sb.WriteString("[")

	for i, r := range body {
		switch {
		case i == 0 && r == '!':
			sb.WriteString("^")
		case r == '\\' || r == '^' || r == '[':
			sb.WriteString(`\`)
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteString("]")

	return sb.String()
}
