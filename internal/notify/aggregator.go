package notify

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Thresholds configures the usage tiers and the fixed ages given to
// synthetic notifications so they interleave with persisted ones.
type Thresholds struct {
	Warning     float64
	Critical    float64
	WelcomeAge  time.Duration
	CriticalAge time.Duration
	WarningAge  time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:     0.75,
		Critical:    0.90,
		WelcomeAge:  5 * time.Minute,
		CriticalAge: 30 * time.Minute,
		WarningAge:  60 * time.Minute,
	}
}

type Aggregator struct {
	thresholds Thresholds
	upgradeURL string
}

func NewAggregator(t Thresholds, upgradeURL string) *Aggregator {
	return &Aggregator{thresholds: t, upgradeURL: upgradeURL}
}

// Aggregate builds the ordered list shown to one user at now. persisted is
// expected to hold active rows only; inactive ones are dropped regardless.
// The result is newest first.
func (a *Aggregator) Aggregate(p Profile, dismissed DismissedSet, persisted []Persisted, now time.Time) []Item {
	return merge(a.synthetic(p, dismissed, now), dismissed, persisted)
}

// AggregatePersisted is Aggregate for a user whose profile is unavailable:
// only persisted notifications are considered.
func (a *Aggregator) AggregatePersisted(dismissed DismissedSet, persisted []Persisted) []Item {
	return merge(nil, dismissed, persisted)
}

func merge(items []Item, dismissed DismissedSet, persisted []Persisted) []Item {
	if items == nil {
		items = make([]Item, 0, len(persisted))
	}
	for _, n := range persisted {
		if !n.IsActive || dismissed.Has(n.ID) {
			continue
		}
		items = append(items, Item{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.CreatedAt,
		})
	}
	slices.SortStableFunc(items, func(x, y Item) int {
		return y.Timestamp.Compare(x.Timestamp)
	})
	return items
}

func (a *Aggregator) synthetic(p Profile, dismissed DismissedSet, now time.Time) []Item {
	var out []Item
	used, limit := p.Used(), p.Limit()

	if used == 0 && !dismissed.Has(WelcomeID) {
		msg := "Pick a generator and create your first piece of content."
		if limit > 0 {
			msg = fmt.Sprintf("Pick a generator and create your first piece of content. You have %d words this month.", limit)
		}
		out = append(out, Item{
			ID:        WelcomeID,
			Type:      TypeSuccess,
			Title:     "Welcome to copyforge",
			Message:   msg,
			Timestamp: now.Add(-a.thresholds.WelcomeAge),
			Synthetic: true,
		})
	}

	ratio, ok := p.UsageRatio()
	if !ok {
		return out
	}
	pct := int(math.Round(ratio * 100))
	remaining := max(limit-used, 0)

	// Only one tier is ever emitted: above the critical line the warning tier
	// stays hidden even when critical itself has been dismissed.
	switch {
	case ratio >= a.thresholds.Critical:
		if dismissed.Has(UsageCriticalID) {
			break
		}
		out = append(out, Item{
			ID:        UsageCriticalID,
			Type:      TypeError,
			Title:     "Word limit almost reached",
			Message:   fmt.Sprintf("You've used %d%% of your monthly words (%d left). Upgrade to keep generating.", pct, remaining),
			Timestamp: now.Add(-a.thresholds.CriticalAge),
			Synthetic: true,
			Action:    a.upgradeAction(),
		})
	case ratio >= a.thresholds.Warning:
		if dismissed.Has(UsageWarningID) {
			break
		}
		out = append(out, Item{
			ID:        UsageWarningID,
			Type:      TypeWarning,
			Title:     "Approaching your word limit",
			Message:   fmt.Sprintf("You've used %d%% of your monthly words. %d words remain.", pct, remaining),
			Timestamp: now.Add(-a.thresholds.WarningAge),
			Synthetic: true,
			Action:    a.upgradeAction(),
		})
	}
	return out
}

func (a *Aggregator) upgradeAction() *Action {
	if a.upgradeURL == "" {
		return nil
	}
	return &Action{Label: "Upgrade plan", URL: a.upgradeURL}
}

// UnreadCount counts items not marked read in this process.
func UnreadCount(items []Item, read ReadSet) int {
	n := 0
	for _, it := range items {
		if !read.Has(it.ID) {
			n++
		}
	}
	return n
}

// IDs returns the ids of items in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
