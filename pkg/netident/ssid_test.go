package netident

import "testing"

func TestSanitizeSSID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted_utf8", `"MyNetwork"`, "MyNetwork"},
		{"unquoted_passthrough", "MyNetwork", "MyNetwork"},
		{"hex_ssid_passthrough", "0a1b2c3d", "0a1b2c3d"},
		{"empty", "", ""},
		{"single_quote_char", `"`, `"`},
		{"leading_quote_only", `"MyNetwork`, `"MyNetwork`},
		{"trailing_quote_only", `MyNetwork"`, `MyNetwork"`},
		{"inner_quotes_kept", `"My "quoted" net"`, `My "quoted" net`},
		{"empty_quoted", `""`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSSID(tc.in); got != tc.want {
				t.Errorf("SanitizeSSID(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
