package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/entities"
)

// Limits bounds the number of players a game type accepts
type Limits struct {
	Min uint8
	Max uint8
}

// Entry describes one supported game type
type Entry struct {
	Type    entities.GameType
	Name    string
	Aliases []string
	Limits  Limits
	Markers []entities.Marker // assigned to slots in join order
}

var (
	colorMarkers = []entities.Marker{"red", "blue", "green", "yellow"}
	noughtsCross = []entities.Marker{"O", "X"}
)

// DefaultEntries is the built-in game table
func DefaultEntries() []Entry {
	return []Entry{
		{
			Type:    entities.GameTypeLudo,
			Name:    "ludo",
			Limits:  Limits{Min: 2, Max: 4},
			Markers: colorMarkers,
		},
		{
			Type:    entities.GameTypeTicTacToe,
			Name:    "ttt",
			Aliases: []string{"tictactoe", "tic-tac-toe"},
			Limits:  Limits{Min: 2, Max: 2},
			Markers: noughtsCross,
		},
		{
			Type:    entities.GameTypeSnakesAndLadders,
			Name:    "s&l",
			Aliases: []string{"snakes", "snakes-and-ladders", "snakesandladders"},
			Limits:  Limits{Min: 2, Max: 4},
			Markers: colorMarkers,
		},
	}
}

// Catalog maps game types to their limits and marker sequences
type Catalog struct {
	entries map[entities.GameType]Entry
	names   map[string]entities.GameType
	mu      sync.RWMutex
}

// New creates a catalog holding the given entries
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[entities.GameType]Entry),
		names:   make(map[string]entities.GameType),
	}
	for _, e := range entries {
		if err := c.Register(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns a catalog with the built-in game table
func Default() *Catalog {
	c, err := New(DefaultEntries()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds a game type to the catalog
func (c *Catalog) Register(e Entry) error {
	if e.Limits.Min < 1 || e.Limits.Min > e.Limits.Max || e.Limits.Max > entities.MaxSlots {
		return types.NewGameError(types.ErrInvalidArgument,
			fmt.Sprintf("Game %s has invalid player limits %d..%d", e.Name, e.Limits.Min, e.Limits.Max))
	}
	for _, m := range e.Markers {
		if len(m) > entities.MaxMarkerLen {
			return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("Marker %q is too long", m))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[e.Type]; exists {
		return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("Game type %d is already registered", e.Type))
	}

	c.entries[e.Type] = e
	for _, name := range append([]string{e.Name}, e.Aliases...) {
		if name != "" {
			c.names[strings.ToLower(name)] = e.Type
		}
	}
	return nil
}

// Limits returns the player-count bounds for t
func (c *Catalog) Limits(t entities.GameType) (Limits, error) {
	e, err := c.entry(t)
	if err != nil {
		return Limits{}, err
	}
	return e.Limits, nil
}

// MarkerForSlot returns the marker for a zero-based slot, or the neutral
// marker when the type has no marker for that slot.
func (c *Catalog) MarkerForSlot(t entities.GameType, slot int) entities.Marker {
	e, err := c.entry(t)
	if err != nil || slot < 0 || slot >= len(e.Markers) {
		return ""
	}
	return e.Markers[slot]
}

// ValidatePlayerCount reports whether n lies within the type's limits
func (c *Catalog) ValidatePlayerCount(t entities.GameType, n uint8) bool {
	limits, err := c.Limits(t)
	if err != nil {
		return false
	}
	return n >= limits.Min && n <= limits.Max
}

// ParseGameType accepts a numeric id or a registered name
func (c *Catalog) ParseGameType(s string) (entities.GameType, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		t := entities.GameType(n)
		if _, err := c.entry(t); err != nil {
			return 0, err
		}
		return t, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.names[s]
	if !ok {
		return 0, invalidGameType(s)
	}
	return t, nil
}

// Name returns the display name of t
func (c *Catalog) Name(t entities.GameType) string {
	e, err := c.entry(t)
	if err != nil {
		return strconv.Itoa(int(t))
	}
	return e.Name
}

// Entries returns every registered entry ordered by type id
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (c *Catalog) entry(t entities.GameType) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[t]
	if !ok {
		return Entry{}, invalidGameType(strconv.Itoa(int(t)))
	}
	return e, nil
}

func invalidGameType(s string) error {
	return types.NewGameError(types.ErrInvalidGameType, fmt.Sprintf("Invalid game type: %s", s))
}
