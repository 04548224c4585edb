package companion

// Mood is the companion's presentation mood, derived purely from the
// badge poll's unread counter.
type Mood int

const (
	MoodIdle Mood = iota
	MoodExcited
)

func (m Mood) String() string {
	if m == MoodExcited {
		return "excited"
	}
	return "idle"
}

// DeriveMood maps an unread count onto a mood.
func DeriveMood(unread int) Mood {
	if unread > 0 {
		return MoodExcited
	}
	return MoodIdle
}

// BadgeObserver tracks the counter across poll boundaries. Bounces are
// triggered only by changes observed between polls, not by continuous
// re-evaluation of the same value.
type BadgeObserver struct {
	prev int
}

// Observe records a freshly polled counter and reports the derived mood
// and whether a bounce should trigger.
func (o *BadgeObserver) Observe(count int) (Mood, bool) {
	changed := count != o.prev
	o.prev = count
	return DeriveMood(count), changed && count > 0
}
