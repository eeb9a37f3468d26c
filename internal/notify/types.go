// Package notify merges admin-authored notifications with notifications
// derived from a user's word usage. Everything here is pure; callers own I/O.
package notify

import "time"

// Type is the severity shown by the dashboard.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Well-known ids of synthetic notifications. Dismissals are keyed by these
// strings, so a dismissed tier stays dismissed for good.
const (
	WelcomeID       = "welcome"
	UsageCriticalID = "usage-critical"
	UsageWarningID  = "usage-warning"
)

// IsSynthetic reports whether id names a derived notification.
func IsSynthetic(id string) bool {
	switch id {
	case WelcomeID, UsageCriticalID, UsageWarningID:
		return true
	}
	return false
}

// Profile carries the usage counters of one user. Nil counters read as 0.
type Profile struct {
	WordsUsed  *int
	WordsLimit *int
}

func (p Profile) Used() int {
	if p.WordsUsed == nil {
		return 0
	}
	return *p.WordsUsed
}

func (p Profile) Limit() int {
	if p.WordsLimit == nil {
		return 0
	}
	return *p.WordsLimit
}

// UsageRatio returns used/limit. ok is false when the limit is unset or not
// positive, in which case no usage-tier notification is derived.
func (p Profile) UsageRatio() (ratio float64, ok bool) {
	limit := p.Limit()
	if limit <= 0 {
		return 0, false
	}
	return float64(p.Used()) / float64(limit), true
}

// Persisted is an admin-authored notification as read from storage.
type Persisted struct {
	ID        string
	Type      Type
	Title     string
	Message   string
	IsActive  bool
	CreatedAt time.Time
}

type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Item is one entry of the rendered list.
type Item struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Synthetic bool      `json:"synthetic"`
	Action    *Action   `json:"action,omitempty"`
}

// DismissedSet holds the notification ids a user has dismissed.
type DismissedSet map[string]struct{}

func NewDismissedSet(ids ...string) DismissedSet {
	s := make(DismissedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s DismissedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s DismissedSet) Add(id string) { s[id] = struct{}{} }

// ReadSet holds ids marked read in the current process. It is never stored.
type ReadSet map[string]struct{}

func (s ReadSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
