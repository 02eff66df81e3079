package svg

import (
	"bytes"
	"errors"
	"regexp"
)

var ErrNotSVG = errors.New("not an svg document")

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<\s*script[\s>].*?<\s*/\s*script\s*>`),
	regexp.MustCompile(`(?is)<\s*foreignObject[\s>].*?<\s*/\s*foreignObject\s*>`),
	regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`),
	regexp.MustCompile(`(?is)\s(xlink:)?href\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`),
}

// Sanitize strips scripts, embedded HTML, event handlers and javascript: links.
func Sanitize(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, ErrNotSVG
	}

	clean := input
	for _, pattern := range unsafePatterns {
		clean = pattern.ReplaceAll(clean, nil)
	}
	return clean, nil
}
