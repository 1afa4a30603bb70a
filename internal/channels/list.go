package channels

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/chrisedwards/discord-archive/internal/discord"
)

var (
	// ErrNotNumber is returned when the operator input is not an integer.
	ErrNotNumber = errors.New("not a number")
	// ErrOutOfRange is returned when an index does not map to an entry.
	ErrOutOfRange = errors.New("index out of range")
)

// NoCategory is the header shown above uncategorised channels.
const NoCategory = "No Category"

// Sort orders chats by category position, then by their own position.
// Entries with equal keys keep their original relative order.
func Sort(chats []discord.Chat) {
	slices.SortStableFunc(chats, func(a, b discord.Chat) int {
		ac, ap := discord.SortKey(a)
		bc, bp := discord.SortKey(b)
		if c := cmp.Compare(ac, bc); c != 0 {
			return c
		}
		return cmp.Compare(ap, bp)
	})
}

// Entry is one selectable line of a List.
type Entry struct {
	Index int // 1-based selection index
	Chat  discord.Chat
}

// Group is a run of consecutive entries sharing a category.
type Group struct {
	Category *discord.Category // nil for uncategorised entries
	Entries  []Entry
}

// Title returns the category name or NoCategory.
func (g Group) Title() string {
	if g.Category == nil {
		return NoCategory
	}
	return g.Category.Name
}

// Section is a titled block of groups, one per guild in merged lists.
type Section struct {
	Title  string
	Groups []Group
}

// List is a flat, 1-indexed selection list that is displayed grouped by
// section and category. At most one direct-message entry may precede the
// sections.
type List struct {
	entries  []discord.Chat
	direct   *Entry
	sections []Section
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// AddDirect reserves the next index for a direct-message conversation. It
// must be called before any section is added.
func (l *List) AddDirect(dm *discord.DMChannel) {
	if l.direct != nil || len(l.entries) > 0 {
		panic("channels: direct entry must be the first and only one")
	}
	l.entries = append(l.entries, dm)
	l.direct = &Entry{Index: len(l.entries), Chat: dm}
}

// AddSection sorts a copy of chats and appends them under a section title.
// A new group starts whenever the category changes from the previous entry,
// including the transitions into and out of "no category". Empty input adds
// nothing.
func (l *List) AddSection(title string, chats []discord.Chat) {
	if len(chats) == 0 {
		return
	}
	sorted := slices.Clone(chats)
	Sort(sorted)

	sec := Section{Title: title}
	var prev string
	for i, c := range sorted {
		cat := discord.CategoryOf(c)
		id := categoryID(cat)
		if i == 0 || id != prev {
			sec.Groups = append(sec.Groups, Group{Category: cat})
			prev = id
		}
		l.entries = append(l.entries, c)
		g := &sec.Groups[len(sec.Groups)-1]
		g.Entries = append(g.Entries, Entry{Index: len(l.entries), Chat: c})
	}
	l.sections = append(l.sections, sec)
}

func categoryID(c *discord.Category) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Len returns the number of selectable entries.
func (l *List) Len() int {
	return len(l.entries)
}

// At returns the entry at 1-based index i.
func (l *List) At(i int) (discord.Chat, bool) {
	if i < 1 || i > len(l.entries) {
		return nil, false
	}
	return l.entries[i-1], true
}

// Direct returns the direct-message entry, if any.
func (l *List) Direct() *Entry {
	return l.direct
}

// Sections returns the display grouping.
func (l *List) Sections() []Section {
	return l.sections
}

// Resolve maps operator input to exactly one entry or returns an error.
func (l *List) Resolve(input string) (discord.Chat, error) {
	i, err := ParseIndex(input, l.Len())
	if err != nil {
		return nil, err
	}
	c, _ := l.At(i)
	return c, nil
}

// ParseIndex parses a 1-based index into a list of n entries. Surrounding
// white space is ignored; anything but decimal digits is rejected.
func ParseIndex(input string, n int) (int, error) {
	input = strings.TrimSpace(input)
	if !isDigits(input) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, input)
	}
	i, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, input)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("%w: %d (1-%d)", ErrOutOfRange, i, n)
	}
	return i, nil
}

// ParseIndexList parses comma-separated indices into a list of n entries.
// Tokens that are not all digits and indices outside 1..n are discarded,
// duplicates are dropped and input order is kept. The result may be empty.
func ParseIndexList(input string, n int) []int {
	var (
		out  []int
		seen = make(map[int]bool)
	)
	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if !isDigits(tok) {
			continue
		}
		i, err := strconv.Atoi(tok)
		if err != nil || i < 1 || i > n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

func isDigits(s string) bool {
	return s != "" && strings.TrimLeft(s, "0123456789") == ""
}
