package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLookup(t *testing.T) {
	hits := testutil.ToFloat64(LookupsTotal.WithLabelValues("get_user", "hit"))
	misses := testutil.ToFloat64(LookupsTotal.WithLabelValues("get_user", "miss"))

	Lookup("get_user", true)
	Lookup("get_user", false)
	Lookup("get_user", false)

	if got := testutil.ToFloat64(LookupsTotal.WithLabelValues("get_user", "hit")); got != hits+1 {
		t.Fatalf("hit counter: got %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(LookupsTotal.WithLabelValues("get_user", "miss")); got != misses+2 {
		t.Fatalf("miss counter: got %v, want %v", got, misses+2)
	}
}

func TestMutation(t *testing.T) {
	applied := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_role", "applied"))
	noop := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_role", "noop"))

	Mutation("add_role", true)
	Mutation("add_role", false)

	if got := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_role", "applied")); got != applied+1 {
		t.Fatalf("applied counter: got %v, want %v", got, applied+1)
	}
	if got := testutil.ToFloat64(MutationsTotal.WithLabelValues("add_role", "noop")); got != noop+1 {
		t.Fatalf("noop counter: got %v, want %v", got, noop+1)
	}
}
