package rat

import "testing"

func TestCollapse(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want Code
	}{
		{"gprs_to_gsm", TypeGPRS, TypeGSM},
		{"edge_to_gsm", TypeEDGE, TypeGSM},
		{"gsm_to_gsm", TypeGSM, TypeGSM},
		{"iden_to_gsm", TypeIDEN, TypeGSM},
		{"cdma_to_gsm", TypeCDMA, TypeGSM},
		{"1xrtt_to_gsm", Type1xRTT, TypeGSM},
		{"umts_to_umts", TypeUMTS, TypeUMTS},
		{"hsdpa_to_umts", TypeHSDPA, TypeUMTS},
		{"hsupa_to_umts", TypeHSUPA, TypeUMTS},
		{"hspa_to_umts", TypeHSPA, TypeUMTS},
		{"hspap_to_umts", TypeHSPAP, TypeUMTS},
		{"evdo_0_to_umts", TypeEVDO0, TypeUMTS},
		{"evdo_a_to_umts", TypeEVDOA, TypeUMTS},
		{"evdo_b_to_umts", TypeEVDOB, TypeUMTS},
		{"ehrpd_to_umts", TypeEHRPD, TypeUMTS},
		{"td_scdma_to_umts", TypeTDSCDMA, TypeUMTS},
		{"lte_to_lte", TypeLTE, TypeLTE},
		{"iwlan_to_lte", TypeIWLAN, TypeLTE},
		{"nr_to_nr", TypeNR, TypeNR},
		{"5g_nsa_to_itself", Type5GNSA, Type5GNSA},
		{"unknown_to_unknown", TypeUnknown, TypeUnknown},
		{"unmapped_code_to_unknown", Code(19), TypeUnknown},
		{"future_code_to_unknown", Code(99), TypeUnknown},
		{"negative_code_to_unknown", Code(-7), TypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Collapse(tc.code); got != tc.want {
				t.Errorf("Collapse(%d) = %d, want %d", tc.code, got, tc.want)
			}
		})
	}
}

func TestAllCollapsed(t *testing.T) {
	got := AllCollapsed()

	want := map[Code]bool{
		TypeGSM:     true,
		TypeUMTS:    true,
		TypeLTE:     true,
		TypeNR:      true,
		Type5GNSA:   true,
		TypeUnknown: true,
	}

	if len(got) != len(want) {
		t.Fatalf("AllCollapsed() returned %d classes, want %d: %v", len(got), len(want), got)
	}
	seen := make(map[Code]bool)
	for _, c := range got {
		if seen[c] {
			t.Errorf("AllCollapsed() contains duplicate class %d", c)
		}
		seen[c] = true
		if !want[c] {
			t.Errorf("AllCollapsed() contains unexpected class %d", c)
		}
	}
	// The virtual and unknown classes must always be present.
	if !seen[Type5GNSA] {
		t.Error("AllCollapsed() missing virtual 5G NSA class")
	}
	if !seen[TypeUnknown] {
		t.Error("AllCollapsed() missing unknown class")
	}
}

func TestCollapseIsClosedUnderAllCollapsed(t *testing.T) {
	classes := make(map[Code]bool)
	for _, c := range AllCollapsed() {
		classes[c] = true
	}
	// Every collapse result over the full reportable code set plus the
	// virtual code must land in the enumerated class set.
	probe := append([]Code{Type5GNSA, TypeUnknown, Code(42), Code(-3)}, allCodes...)
	for _, code := range probe {
		if !classes[Collapse(code)] {
			t.Errorf("Collapse(%d) = %d not in AllCollapsed()", code, Collapse(code))
		}
	}
}
