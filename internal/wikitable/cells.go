package wikitable

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadTemplate is returned when a cell holds a different template than
// the one the caller expects.
var ErrBadTemplate = errors.New("unexpected template")

// Template names used in cells.
const (
	TemplateItem = "Item"
	TemplateIcon = "Icon"
)

// NotApplicable is the wiki's marker for an empty cell.
const NotApplicable = "N/A"

var countedEntry = regexp.MustCompile(`^\s*(\d+)\s*x\s+(.*)`)

// SplitTemplate splits "{{Name|arg}}" into ("Name", "arg"). Anything else,
// including a template without arguments, comes back as ("", val).
// The value is trimmed first and arg keeps any further "|".
func SplitTemplate(val string) (name, arg string) {
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "{{") && strings.HasSuffix(val, "}}") && strings.Contains(val, "|") {
		inner := strings.TrimSpace(val[2 : len(val)-2])
		if name, arg, ok := strings.Cut(inner, "|"); ok {
			return name, arg
		}
	}
	return "", val
}

// StripTemplate returns the template argument, or val itself.
func StripTemplate(val string) string {
	_, arg := SplitTemplate(val)
	return arg
}

// StripItemTemplate returns X from "{{Item|X}}".
func StripItemTemplate(val string) (string, error) {
	return stripNamed(val, TemplateItem)
}

// StripIconTemplate returns X from "{{Icon|X}}".
func StripIconTemplate(val string) (string, error) {
	return stripNamed(val, TemplateIcon)
}

func stripNamed(val, want string) (string, error) {
	name, arg := SplitTemplate(val)
	if name != want {
		return "", fmt.Errorf("%w: want {{%s|...}}, got %q", ErrBadTemplate, want, strings.TrimSpace(val))
	}
	return arg, nil
}

// IsNotApplicable reports whether a cell is empty or starts with "N/A".
func IsNotApplicable(val string) bool {
	val = strings.TrimSpace(val)
	return val == "" || strings.HasPrefix(val, NotApplicable)
}

// CountedName is one "<N>x {{Item|name}}" entry.
type CountedName struct {
	Name     string
	Quantity int
}

// ParseCountedList parses "+"-joined entries of the form "<N>x {{Item|X}}"
// or a bare "{{Item|X}}" (quantity 1). Empty and "N/A" cells yield no
// entries.
func ParseCountedList(val string) ([]CountedName, error) {
	if IsNotApplicable(val) {
		return nil, nil
	}
	var out []CountedName
	for _, part := range strings.Split(strings.TrimSpace(val), "+") {
		part = strings.TrimSpace(part)
		qty, tmpl := 1, part
		if m := countedEntry.FindStringSubmatch(part); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("quantity %q: %w", m[1], err)
			}
			qty, tmpl = n, strings.TrimSpace(m[2])
		}
		name, err := StripItemTemplate(tmpl)
		if err != nil {
			return nil, err
		}
		out = append(out, CountedName{Name: name, Quantity: qty})
	}
	return out, nil
}
