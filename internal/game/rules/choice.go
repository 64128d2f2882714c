package rules

import (
	"sort"
	"strconv"
	"strings"
)

// PendingChoice is an outstanding request for input from one player.
// It is produced by a paused resolver and answered with a selection of
// entries from Options.
type PendingChoice struct {
	Player     string   `json:"player"`     // who must answer
	Controller string   `json:"controller"` // whose card is resolving
	Card       string   `json:"card"`
	Stage      string   `json:"stage"`
	From       Zone     `json:"from"`
	Prompt     string   `json:"prompt,omitempty"`
	Options    []string `json:"options"`
	Min        int      `json:"min"`
	Max        int      `json:"max"`
	Metadata   Metadata `json:"metadata,omitempty"`
	Source     string   `json:"source,omitempty"` // ID of the card play being resolved
}

// Clone returns a deep copy of the choice.
func (c *PendingChoice) Clone() *PendingChoice {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Options = append([]string(nil), c.Options...)
	cp.Metadata = c.Metadata.Clone()
	return &cp
}

// Metadata carries string-encoded values between resolver stages.
// Lists are comma separated; card names and player IDs never contain commas.
type Metadata map[string]string

// Metadata keys shared across resolvers.
const (
	MetaMaxCost   = "max_cost"
	MetaRemaining = "remaining"
	MetaCount     = "count"
	MetaCard      = "card"
)

// Clone returns a copy of the metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	cp := make(Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// With returns a copy of m with key set to value.
func (m Metadata) With(key, value string) Metadata {
	cp := m.Clone()
	if cp == nil {
		cp = make(Metadata)
	}
	cp[key] = value
	return cp
}

// WithInt returns a copy of m with key set to n.
func (m Metadata) WithInt(key string, n int) Metadata {
	return m.With(key, strconv.Itoa(n))
}

// WithList returns a copy of m with key set to the joined list.
func (m Metadata) WithList(key string, values []string) Metadata {
	return m.With(key, strings.Join(values, ","))
}

// Int reads key as an integer; missing or malformed values read as zero.
func (m Metadata) Int(key string) int {
	n, err := strconv.Atoi(m[key])
	if err != nil {
		return 0
	}
	return n
}

// List reads key as a list. A missing key or empty value is an empty list.
func (m Metadata) List(key string) []string {
	raw := m[key]
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
