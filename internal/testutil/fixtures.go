// Package testutil provides shared fixtures for NetMeter tests.
package testutil

import (
	"testing"

	"github.com/HerbHall/netmeter/internal/store"
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

// NewStore returns an in-memory SQLite store, closed on test cleanup.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewMobileIdentity returns a metered mobile network identity with
// sensible defaults. Override individual fields via options.
func NewMobileIdentity(opts ...func(*netident.Identity)) netident.Identity {
	id := netident.Identity{
		Type:           netident.TypeMobile,
		SubscriberID:   "310260000000000",
		Metered:        true,
		DefaultNetwork: true,
		SubType:        rat.TypeLTE,
	}
	for _, opt := range opts {
		opt(&id)
	}
	return id
}

// NewWifiIdentity returns an unmetered wifi network identity with
// sensible defaults. Override individual fields via options.
func NewWifiIdentity(opts ...func(*netident.Identity)) netident.Identity {
	id := netident.Identity{
		Type:           netident.TypeWifi,
		SSID:           "test-network",
		DefaultNetwork: true,
	}
	for _, opt := range opts {
		opt(&id)
	}
	return id
}

// WithSubscriber sets the identity's subscriber ID.
func WithSubscriber(id string) func(*netident.Identity) {
	return func(n *netident.Identity) { n.SubscriberID = id }
}

// WithSSID sets the identity's network SSID.
func WithSSID(ssid string) func(*netident.Identity) {
	return func(n *netident.Identity) { n.SSID = ssid }
}

// WithSubType sets the identity's radio access technology.
func WithSubType(c rat.Code) func(*netident.Identity) {
	return func(n *netident.Identity) { n.SubType = c }
}

// WithMetered sets the identity's meteredness.
func WithMetered(metered bool) func(*netident.Identity) {
	return func(n *netident.Identity) { n.Metered = metered }
}

// WithRoaming sets the identity's roaming flag.
func WithRoaming(roaming bool) func(*netident.Identity) {
	return func(n *netident.Identity) { n.Roaming = roaming }
}

// WithOEM sets the identity's OEM management flags.
func WithOEM(oem netident.OEMManaged) func(*netident.Identity) {
	return func(n *netident.Identity) { n.OEMManaged = oem }
}
