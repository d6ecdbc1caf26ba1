package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Sanitize keeps letters, digits, spaces, hyphens, underscores and periods.
// Inner spaces stay as they are; leading and trailing ones are trimmed.
// Returns "" when nothing survives.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " ")
	// a name made only of dots would resolve to . or ..
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}

// PrefixWidth is the zero-padded ordinal width for a collection of n items
func PrefixWidth(n int) int {
	w := len(strconv.Itoa(n))
	if w < 3 {
		return 3
	}
	return w
}

// OutputNamer hands out unique, filesystem-safe output templates for one run.
// Extensions are left to the engine, which appends them after postprocessing.
type OutputNamer struct {
	dir   string
	total int // collection size, 0 for a single item
	mu    sync.Mutex
	used  map[string]bool
}

// NewOutputNamer creates a namer writing into dir
func NewOutputNamer(dir string, total int) *OutputNamer {
	return &OutputNamer{
		dir:   dir,
		total: total,
		used:  make(map[string]bool),
	}
}

// Template returns the absolute output path without extension for an item
func (n *OutputNamer) Template(title, itemID string, position int) string {
	base := Sanitize(title)
	if base == "" {
		base = Sanitize(itemID)
	}
	if base == "" {
		base = "media"
	}
	if n.total > 0 && position > 0 {
		base = fmt.Sprintf("%0*d_%s", PrefixWidth(n.total), position, base)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	name := base
	key := strings.ToLower(name)
	if n.used[key] {
		if id := Sanitize(itemID); id != "" {
			name = base + "-" + id
		}
		key = strings.ToLower(name)
		for i := 2; n.used[key]; i++ {
			name = fmt.Sprintf("%s-%d", base, i)
			key = strings.ToLower(name)
		}
	}
	n.used[key] = true

	return filepath.Join(n.dir, name)
}
