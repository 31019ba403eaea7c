package policy

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// CompiledPattern is a single command-pattern ready to test against a
// candidate command string. Patterns carrying no "#" compile to nothing
// more than themselves and are compared by byte equality; this is the
// overwhelmingly common case and skipping regexp for it keeps the
// decision path fast.
type CompiledPattern struct {
	Raw   string
	re    *regexp.Regexp
	plain bool
}

func (p *CompiledPattern) Match(cmd string) bool {
	if p.plain {
		return cmd == p.Raw
	}
	return p.re.MatchString(cmd)
}

// digitRunGroup renders the regex fragment standing in for a run of k
// consecutive "#" characters under the given style. A single "#" also
// matches itself literally, so an administrator can still pin an exact
// digit string by writing it out with no "#" in the pattern at all, or
// mix both inside one run's alternation.
func digitRunGroup(k int, style Style) string {
	switch style {
	case StyleHexdigits:
		if k == 1 {
			return `(?:#|[0-9a-fA-F]+)`
		}
		return fmt.Sprintf(`[#0-9a-fA-F]{%d}`, k)
	case StyleDigits:
		if k == 1 {
			return `(?:#|[0-9]+)`
		}
		return fmt.Sprintf(`[#0-9]{%d}`, k)
	default: // StyleExact
		return strings.Repeat("#", k)
	}
}

// compile turns pattern text into a CompiledPattern. Every character
// that is not part of a "#" run is escaped with regexp.QuoteMeta, which
// is a no-op on alphanumerics, underscore and slash and correctly
// escapes everything regex-special.
func compile(pattern string, style Style) (*CompiledPattern, error) {
	if !strings.ContainsRune(pattern, '#') {
		return &CompiledPattern{Raw: pattern, plain: true}, nil
	}

	var sb strings.Builder
	sb.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		if runes[i] == '#' {
			j := i
			for j < len(runes) && runes[j] == '#' {
				j++
			}
			sb.WriteString(digitRunGroup(j-i, style))
			i = j
			continue
		}
		sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		i++
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", ErrInvalidPattern, pattern, err)
	}
	return &CompiledPattern{Raw: pattern, re: re}, nil
}

// Cache memoizes pattern compilation. It is an explicit object rather
// than package-level state so a process can hold independent caches
// (one per loaded policy generation) without one invalidating another.
type Cache struct {
	mu sync.RWMutex
	m  map[cacheKey]*CompiledPattern
}

type cacheKey struct {
	pattern string
	style   Style
}

func NewCache() *Cache {
	return &Cache{m: make(map[cacheKey]*CompiledPattern)}
}

func (c *Cache) Get(pattern string, style Style) (*CompiledPattern, error) {
	key := cacheKey{pattern, style}

	c.mu.RLock()
	cp, ok := c.m[key]
	c.mu.RUnlock()
	if ok {
		return cp, nil
	}

	cp, err := compile(pattern, style)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.m[key] = cp
	c.mu.Unlock()
	return cp, nil
}

// PatternSet is the set of command-pattern texts attached to one
// principal+label key, stored verbatim in authoring order.
type PatternSet struct {
	Patterns []string
}

func (s *PatternSet) Add(pattern string) {
	s.Patterns = append(s.Patterns, pattern)
}

// Matches reports whether cmd is matched by any pattern in the set,
// either by direct literal presence or by a "#"-bearing pattern whose
// compiled form matches the whole command.
func (s *PatternSet) Matches(cmd string, style Style, cache *Cache) (bool, error) {
	for _, raw := range s.Patterns {
		cp, err := cache.Get(raw, style)
		if err != nil {
			return false, err
		}
		if cp.Match(cmd) {
			return true, nil
		}
	}
	return false, nil
}
