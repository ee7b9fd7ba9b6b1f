package application

import "time"

// ActivityTier classifies how often a user is polled, based on how recently
// they contributed. Recently active users are polled more often so new work
// is announced while it is still fresh.
type ActivityTier int

const (
	TierHot    ActivityTier = iota // contributed within the last hour
	TierActive                     // within the last day
	TierWarm                       // within the last week
	TierStale                      // longer ago, or never
)

// tierPolicy is indexed by ActivityTier.
var tierPolicy = [...]struct {
	name     string
	within   time.Duration // upper bound of time since the last contribution
	interval time.Duration
}{
	TierHot:    {"hot", time.Hour, 15 * time.Minute},
	TierActive: {"active", 24 * time.Hour, time.Hour},
	TierWarm:   {"warm", 7 * 24 * time.Hour, 3 * time.Hour},
	TierStale:  {"stale", 0, 6 * time.Hour},
}

func (t ActivityTier) valid() bool {
	return t >= 0 && int(t) < len(tierPolicy)
}

func (t ActivityTier) String() string {
	if !t.valid() {
		return "unknown"
	}
	return tierPolicy[t].name
}

// tierInterval returns the polling interval of a tier. Unknown tiers poll at
// the active rate.
func tierInterval(tier ActivityTier) time.Duration {
	if !tier.valid() {
		return tierPolicy[TierActive].interval
	}
	return tierPolicy[tier].interval
}

// classifyActivity picks the first tier whose window contains the time since
// the last contribution. Users with no stored contribution are stale.
func classifyActivity(lastContribution, now time.Time) ActivityTier {
	if lastContribution.IsZero() {
		return TierStale
	}
	since := now.Sub(lastContribution)
	for tier := TierHot; tier < TierStale; tier++ {
		if since < tierPolicy[tier].within {
			return tier
		}
	}
	return TierStale
}

// pollInterval returns the tier interval, never shorter than floor.
func pollInterval(tier ActivityTier, floor time.Duration) time.Duration {
	return max(tierInterval(tier), floor)
}

// userSchedule is the polling state of one user on one source.
type userSchedule struct {
	tier       ActivityTier
	nextPollAt time.Time
	lastPolled time.Time
}

// ScheduleInfo is an exported view of a user's polling schedule on one
// source.
type ScheduleInfo struct {
	Source     string
	UserID     int64
	Tier       ActivityTier
	NextPollAt time.Time
	LastPolled time.Time
}
