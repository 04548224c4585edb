package companion

import "testing"

func TestDeriveMood(t *testing.T) {
	if DeriveMood(0) != MoodIdle {
		t.Fatalf("DeriveMood(0) = %v, want idle", DeriveMood(0))
	}
	if DeriveMood(1) != MoodExcited {
		t.Fatalf("DeriveMood(1) = %v, want excited", DeriveMood(1))
	}
}

func TestBounceOnlyOnChange(t *testing.T) {
	var obs BadgeObserver

	mood, bounce := obs.Observe(2)
	if mood != MoodExcited || !bounce {
		t.Fatalf("first nonzero observation: mood=%v bounce=%v", mood, bounce)
	}

	// Same value at the next poll boundary: no new bounce even though
	// unread work still exists.
	mood, bounce = obs.Observe(2)
	if mood != MoodExcited || bounce {
		t.Fatalf("unchanged observation: mood=%v bounce=%v", mood, bounce)
	}

	// A change to another nonzero value bounces again.
	if _, bounce = obs.Observe(5); !bounce {
		t.Fatalf("changed observation did not bounce")
	}

	// Dropping to zero never bounces.
	mood, bounce = obs.Observe(0)
	if mood != MoodIdle || bounce {
		t.Fatalf("zero observation: mood=%v bounce=%v", mood, bounce)
	}

	// Rising from zero bounces again.
	if _, bounce = obs.Observe(1); !bounce {
		t.Fatalf("rise from zero did not bounce")
	}
}
