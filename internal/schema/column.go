package schema

import "strconv"

type selectorKind uint8

const (
	selectorNone selectorKind = iota
	selectorIndex
	selectorTitle
)

// Selector picks which header field plays a special role (x axis or
// epoch). The zero value selects nothing and never matches.
type Selector struct {
	kind  selectorKind
	index int
	title string
}

// ByIndex selects the header field at the given 0-based position.
func ByIndex(i int) Selector {
	return Selector{kind: selectorIndex, index: i}
}

// ByTitle selects the header field whose text equals title exactly.
func ByTitle(title string) Selector {
	return Selector{kind: selectorTitle, title: title}
}

// ParseSelector reads a selector from a command line argument: an
// unsigned integer selects by position, anything else by exact title.
// An empty argument selects nothing.
func ParseSelector(arg string) Selector {
	if arg == "" {
		return Selector{}
	}
	if i, err := strconv.Atoi(arg); err == nil && i >= 0 {
		return ByIndex(i)
	}
	return ByTitle(arg)
}

// IsSet reports whether the selector selects anything at all.
func (s Selector) IsSet() bool {
	return s.kind != selectorNone
}

// Matches reports whether a header field with this title and position
// satisfies the selector. Titles compare exact and case sensitive.
func (s Selector) Matches(title string, index int) bool {
	switch s.kind {
	case selectorIndex:
		return index == s.index
	case selectorTitle:
		return title == s.title
	default:
		return false
	}
}

func (s Selector) String() string {
	switch s.kind {
	case selectorIndex:
		return "#" + strconv.Itoa(s.index)
	case selectorTitle:
		return s.title
	default:
		return "none"
	}
}
