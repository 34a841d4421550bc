package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

func TestNewFull_KnownRules(t *testing.T) {
	rules := []MatchRule{
		MatchMobile, MatchWifi, MatchEthernet, MatchMobileWildcard,
		MatchWifiWildcard, MatchBluetooth, MatchProxy, MatchCarrier,
	}
	for _, rule := range rules {
		t.Run(rule.String(), func(t *testing.T) {
			tmpl, err := NewFull(rule, "310260000000001", []string{"310260000000001"}, "",
				netident.TriStateAll, netident.TriStateAll, netident.TriStateAll,
				rat.TypeAll, OEMManagedAll, SubscriberIDMatchExact)
			if err != nil {
				t.Fatalf("NewFull(%s) error = %v", rule, err)
			}
			if tmpl.MatchRule() != rule {
				t.Errorf("MatchRule() = %s, want %s", tmpl.MatchRule(), rule)
			}
		})
	}
}

func TestNewFull_UnknownRule(t *testing.T) {
	for _, rule := range []MatchRule{0, 2, 3, 11, -1, 99} {
		_, err := NewFull(rule, "", nil, "",
			netident.TriStateAll, netident.TriStateAll, netident.TriStateAll,
			rat.TypeAll, OEMManagedAll, SubscriberIDMatchExact)
		if !errors.Is(err, ErrInvalidMatchRule) {
			t.Errorf("NewFull(rule=%d) error = %v, want ErrInvalidMatchRule", rule, err)
		}
	}
}

func TestNewFull_SubscriberAgnosticMobileRejected(t *testing.T) {
	for _, rule := range []MatchRule{MatchMobile, MatchCarrier} {
		t.Run(rule.String(), func(t *testing.T) {
			_, err := NewFull(rule, "310260000000001", []string{"310260000000001"}, "",
				netident.TriStateAll, netident.TriStateAll, netident.TriStateAll,
				rat.TypeAll, OEMManagedAll, SubscriberIDMatchAll)
			if !errors.Is(err, ErrInvalidSubscriberIDMatchRule) {
				t.Errorf("error = %v, want ErrInvalidSubscriberIDMatchRule", err)
			}

			// The same rule with an exact match succeeds.
			if _, err := NewFull(rule, "310260000000001", []string{"310260000000001"}, "",
				netident.TriStateAll, netident.TriStateAll, netident.TriStateAll,
				rat.TypeAll, OEMManagedAll, SubscriberIDMatchExact); err != nil {
				t.Errorf("exact-match construction error = %v", err)
			}
		})
	}
}

func TestNew_LegacyMeteredDefaults(t *testing.T) {
	tests := []struct {
		rule MatchRule
		want netident.TriState
	}{
		{MatchMobile, netident.TriStateYes},
		{MatchMobileWildcard, netident.TriStateYes},
		{MatchWifi, netident.TriStateAll},
		{MatchEthernet, netident.TriStateAll},
		{MatchBluetooth, netident.TriStateAll},
	}
	for _, tc := range tests {
		t.Run(tc.rule.String(), func(t *testing.T) {
			tmpl, err := New(tc.rule, "310260000000001", "")
			if err != nil {
				t.Fatalf("New(%s) error = %v", tc.rule, err)
			}
			if tmpl.Meteredness() != tc.want {
				t.Errorf("Meteredness() = %s, want %s", tmpl.Meteredness(), tc.want)
			}
		})
	}
}

func TestIsPersistable(t *testing.T) {
	carrierNoSub, err := NewFull(MatchCarrier, "", nil, "",
		netident.TriStateYes, netident.TriStateAll, netident.TriStateAll,
		rat.TypeAll, OEMManagedAll, SubscriberIDMatchExact)
	if err != nil {
		t.Fatalf("carrier without subscriber: %v", err)
	}

	tests := []struct {
		name string
		tmpl Template
		want bool
	}{
		{"mobile_wildcard", MobileWildcard(), false},
		{"wifi_wildcard", WifiWildcard(), false},
		{"mobile_all", MobileAll("310260000000001"), true},
		{"carrier_with_subscriber", CarrierMetered("310260000000001"), true},
		{"carrier_without_subscriber", carrierNoSub, false},
		{"wifi_nothing_pinned", Wifi(SSIDAll, ""), false},
		{"wifi_ssid_pinned", Wifi("SSID", ""), true},
		{"wifi_subscriber_pinned", Wifi(SSIDAll, "310260000000001"), true},
		{"ethernet", Ethernet(), true},
		{"bluetooth", Bluetooth(), true},
		{"proxy", Proxy(), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tmpl.IsPersistable(); got != tc.want {
				t.Errorf("IsPersistable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsMatchRuleMobile(t *testing.T) {
	if !MobileAll("310260000000001").IsMatchRuleMobile() {
		t.Error("MobileAll should be a mobile rule")
	}
	if !MobileWildcard().IsMatchRuleMobile() {
		t.Error("MobileWildcard should be a mobile rule")
	}
	if Wifi("SSID", "").IsMatchRuleMobile() {
		t.Error("Wifi should not be a mobile rule")
	}
	if CarrierMetered("310260000000001").IsMatchRuleMobile() {
		t.Error("Carrier should not be a mobile rule")
	}
}

func TestEqual_IgnoresMatchSet(t *testing.T) {
	a := MobileAll("A")
	b := NormalizeGroup(MobileAll("A"), []string{"A", "B"})

	// Same canonical subscriber, different match sets: still equal.
	if !a.Equal(b) {
		t.Errorf("templates with identical keys should be equal:\n a=%s\n b=%s", a, b)
	}
	if a.Key() != b.Key() {
		t.Error("keys should be identical regardless of match set")
	}

	c := MobileAll("C")
	if a.Equal(c) {
		t.Error("templates with different subscribers should not be equal")
	}
}

func TestKey_UsableAsMapKey(t *testing.T) {
	buckets := map[Key]int{}
	buckets[MobileAll("A").Key()] += 10
	buckets[NormalizeGroup(MobileAll("A"), []string{"A", "B"}).Key()] += 5

	if len(buckets) != 1 {
		t.Fatalf("expected the normalized template to land in the same bucket, got %d buckets", len(buckets))
	}
	if buckets[MobileAll("A").Key()] != 15 {
		t.Errorf("bucket total = %d, want 15", buckets[MobileAll("A").Key()])
	}
}

func TestMatchSubscriberIDs_ReturnsCopy(t *testing.T) {
	tmpl := NormalizeGroup(MobileAll("A"), []string{"A", "B"})
	ids := tmpl.MatchSubscriberIDs()
	ids[0] = "mutated"

	if got := tmpl.MatchSubscriberIDs(); got[0] != "A" {
		t.Errorf("template match set mutated through accessor copy: %v", got)
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	orig := MobileWithRATType("310260000000001", rat.TypeLTE, netident.TriStateYes)

	got, err := FromFields(orig.Fields())
	if err != nil {
		t.Fatalf("FromFields() error = %v", err)
	}
	if !got.Equal(orig) {
		t.Errorf("round trip changed template:\n orig=%s\n got=%s", orig, got)
	}

	// Rebuilding applies construction validation.
	bad := orig.Fields()
	bad.MatchRule = 42
	if _, err := FromFields(bad); !errors.Is(err, ErrInvalidMatchRule) {
		t.Errorf("FromFields with bad rule error = %v, want ErrInvalidMatchRule", err)
	}
	agnostic := orig.Fields()
	agnostic.SubscriberIDMatchRule = int(SubscriberIDMatchAll)
	if _, err := FromFields(agnostic); !errors.Is(err, ErrInvalidSubscriberIDMatchRule) {
		t.Errorf("FromFields with agnostic mobile error = %v, want ErrInvalidSubscriberIDMatchRule", err)
	}
}

func TestString_ScrubsSubscriberIDs(t *testing.T) {
	s := MobileAll("310260000000001").String()
	if want := "310260..."; !strings.Contains(s, want) {
		t.Errorf("String() = %q, want scrubbed id %q", s, want)
	}
	if strings.Contains(s, "310260000000001") {
		t.Errorf("String() leaks full subscriber id: %q", s)
	}
}
