package template

import (
	"slices"
	"testing"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

func TestNormalize_MergesSubscriber(t *testing.T) {
	tmpl := MobileAll("B")
	got := Normalize(tmpl, [][]string{{"A", "B"}})

	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want canonical %q", got.SubscriberID(), "A")
	}
	if !slices.Equal(got.MatchSubscriberIDs(), []string{"A", "B"}) {
		t.Errorf("MatchSubscriberIDs() = %v, want [A B]", got.MatchSubscriberIDs())
	}

	// The normalized template still matches the original alias.
	ident := netident.Identity{
		Type:         netident.TypeMobile,
		SubscriberID: "B",
		Metered:      true,
		SubType:      rat.TypeLTE,
	}
	if !got.Matches(ident) {
		t.Error("normalized template should match the merged alias identity")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	groups := [][]string{{"A", "B"}, {"C", "D", "E"}}

	tests := []struct {
		name string
		tmpl Template
	}{
		{"member_of_first_group", MobileAll("B")},
		{"member_of_second_group", MobileAll("E")},
		{"not_merged", MobileAll("Z")},
		{"no_subscriber", WifiWildcard()},
		{"carrier", CarrierMetered("D")},
		{"wifi_keyed", Wifi("CarrierHotspot", "A")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			once := Normalize(tc.tmpl, groups)
			twice := Normalize(once, groups)
			if !once.Equal(twice) {
				t.Errorf("normalize is not idempotent:\n once=%s\n twice=%s", once, twice)
			}
			if !slices.Equal(once.MatchSubscriberIDs(), twice.MatchSubscriberIDs()) {
				t.Errorf("match sets diverge: %v vs %v",
					once.MatchSubscriberIDs(), twice.MatchSubscriberIDs())
			}
		})
	}
}

func TestNormalize_NoSubscriberUnchanged(t *testing.T) {
	tmpl := Wifi("MyNetwork", "")
	got := Normalize(tmpl, [][]string{{"A", "B"}})
	if !got.Equal(tmpl) {
		t.Errorf("template without subscriber should be unchanged, got %s", got)
	}
}

func TestNormalize_SubscriberNotInAnyGroup(t *testing.T) {
	tmpl := MobileAll("Z")
	got := Normalize(tmpl, [][]string{{"A", "B"}, {"C", "D"}})
	if !got.Equal(tmpl) {
		t.Errorf("unmerged subscriber should be unchanged, got %s", got)
	}
	if !slices.Equal(got.MatchSubscriberIDs(), tmpl.MatchSubscriberIDs()) {
		t.Errorf("match set should be unchanged, got %v", got.MatchSubscriberIDs())
	}
}

func TestNormalize_FirstGroupWins(t *testing.T) {
	// Overlapping groups should not happen, but scanning order decides
	// deterministically if they do.
	got := Normalize(MobileAll("B"), [][]string{{"A", "B"}, {"B", "C"}})
	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want first group's canonical %q", got.SubscriberID(), "A")
	}
}

func TestNormalize_EmptyGroupSkipped(t *testing.T) {
	got := Normalize(MobileAll("B"), [][]string{{}, {"A", "B"}})
	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want %q", got.SubscriberID(), "A")
	}
}

func TestNormalize_CanonicalMemberStaysCanonical(t *testing.T) {
	tmpl := MobileAll("A")
	got := Normalize(tmpl, [][]string{{"A", "B"}})
	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want %q", got.SubscriberID(), "A")
	}
	if !got.Equal(tmpl) {
		t.Error("normalizing the canonical member should preserve the key")
	}
}

func TestNormalizeGroup(t *testing.T) {
	got := NormalizeGroup(CarrierMetered("B"), []string{"A", "B"})
	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want %q", got.SubscriberID(), "A")
	}
	if got.MatchRule() != MatchCarrier {
		t.Errorf("MatchRule() = %s, want carrier", got.MatchRule())
	}
}

func TestNormalize_PreservesRuleAndSSID(t *testing.T) {
	tmpl := Wifi("CarrierHotspot", "B")
	got := Normalize(tmpl, [][]string{{"A", "B"}})

	if got.MatchRule() != MatchWifi {
		t.Errorf("MatchRule() = %s, want wifi", got.MatchRule())
	}
	if got.SSID() != "CarrierHotspot" {
		t.Errorf("SSID() = %q, want preserved", got.SSID())
	}
	if got.SubscriberID() != "A" {
		t.Errorf("SubscriberID() = %q, want %q", got.SubscriberID(), "A")
	}
}
