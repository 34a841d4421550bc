package netident

import "strings"

// SanitizeSSID normalizes an SSID for comparison. Wi-Fi stacks report a
// UTF-8 SSID wrapped in double quotes and a non-UTF-8 SSID as an unquoted
// hex string; stored filters may carry either form. Sanitization strips
// one pair of surrounding double quotes and leaves everything else alone,
// which mirrors the supplicant-side convention the identities are built
// from.
func SanitizeSSID(ssid string) string {
	if len(ssid) >= 2 && strings.HasPrefix(ssid, `"`) && strings.HasSuffix(ssid, `"`) {
		return ssid[1 : len(ssid)-1]
	}
	return ssid
}
