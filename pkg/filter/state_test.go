package filter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agroscope/agroscope/pkg/filter"
)

func TestStateIsImmutable(t *testing.T) {
	base := filter.NewState().With("bu", "India")
	next := base.With("season", "Winter")

	if _, ok := base.Get("season"); ok {
		t.Error("With mutated the receiver")
	}
	if sel, ok := next.Get("season"); !ok || sel.Value != "Winter" {
		t.Errorf("next season = %+v, %v", sel, ok)
	}

	cleared := next.Without("bu")
	if _, ok := next.Get("bu"); !ok {
		t.Error("Without mutated the receiver")
	}
	if cleared.Len() != 1 {
		t.Errorf("cleared.Len() = %d, want 1", cleared.Len())
	}
}

func TestStateDistinguishesUnsetFromAny(t *testing.T) {
	s := filter.NewState().WithAny("season")

	sel, ok := s.Get("season")
	if !ok || !sel.Any {
		t.Errorf("season = %+v, %v; want wildcard", sel, ok)
	}
	if _, ok := s.Get("region"); ok {
		t.Error("region should be unset")
	}
}

func TestStateFromValues(t *testing.T) {
	s := filter.StateFromValues(map[string]string{
		"bu":     "India",
		"season": filter.Wildcard,
		"region": "",
	})

	want := map[string]string{"bu": "India", "season": "*"}
	if diff := cmp.Diff(want, s.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bu", "season"}, s.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}
