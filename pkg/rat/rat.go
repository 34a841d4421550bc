// Package rat provides radio access technology (RAT) codes and the
// collapse table that groups fine-grained codes into representative
// generation classes for accounting purposes.
package rat

// Code is a radio access technology code. The concrete values mirror the
// 3GPP-derived network type table used by telephony stacks so that codes
// received from external radio layers can be used directly.
type Code int

// Fine-grained RAT codes, as reported by the radio layer.
const (
	TypeUnknown Code = 0
	TypeGPRS    Code = 1
	TypeEDGE    Code = 2
	TypeUMTS    Code = 3
	TypeCDMA    Code = 4
	TypeEVDO0   Code = 5
	TypeEVDOA   Code = 6
	Type1xRTT   Code = 7
	TypeHSDPA   Code = 8
	TypeHSUPA   Code = 9
	TypeHSPA    Code = 10
	TypeIDEN    Code = 11
	TypeEVDOB   Code = 12
	TypeLTE     Code = 13
	TypeEHRPD   Code = 14
	TypeHSPAP   Code = 15
	TypeGSM     Code = 16
	TypeTDSCDMA Code = 17
	TypeIWLAN   Code = 18
	TypeNR      Code = 20
)

// TypeAll is the wildcard filter value meaning "any RAT". It sits outside
// the radio layer's code space.
const TypeAll Code = -1

// Type5GNSA is a virtual RAT code for 5G NSA (Non Stand Alone) mode, where
// the primary cell is still LTE and the network allocates a secondary 5G
// cell. The radio layer reports LTE in that state, so this code is never
// emitted by it and must not collide with any real code.
const Type5GNSA Code = -2

// allCodes is the closed set of codes the radio layer can report.
var allCodes = []Code{
	TypeGPRS, TypeEDGE, TypeUMTS, TypeCDMA, TypeEVDO0, TypeEVDOA,
	Type1xRTT, TypeHSDPA, TypeHSUPA, TypeHSPA, TypeIDEN, TypeEVDOB,
	TypeLTE, TypeEHRPD, TypeHSPAP, TypeGSM, TypeTDSCDMA, TypeIWLAN,
	TypeNR,
}

// Collapse maps a fine-grained RAT code to a representative class per
// radio generation. Unknown codes collapse to TypeUnknown; Collapse is
// total over all inputs and never fails.
func Collapse(code Code) Code {
	switch code {
	case TypeGPRS, TypeGSM, TypeEDGE, TypeIDEN, TypeCDMA, Type1xRTT:
		return TypeGSM
	case TypeEVDO0, TypeEVDOA, TypeEVDOB, TypeEHRPD, TypeUMTS,
		TypeHSDPA, TypeHSUPA, TypeHSPA, TypeHSPAP, TypeTDSCDMA:
		return TypeUMTS
	case TypeLTE, TypeIWLAN:
		return TypeLTE
	case TypeNR:
		return TypeNR
	case Type5GNSA:
		return Type5GNSA
	default:
		return TypeUnknown
	}
}

// AllCollapsed returns every class Collapse can produce. The result always
// contains TypeUnknown and the virtual Type5GNSA class, even though the
// radio layer never reports either.
func AllCollapsed() []Code {
	seen := make(map[Code]bool)
	var out []Code
	add := func(c Code) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, code := range allCodes {
		add(Collapse(code))
	}
	add(Collapse(Type5GNSA))
	add(TypeUnknown)
	return out
}

// String returns a short name for the code, for logs and API output.
func (c Code) String() string {
	switch c {
	case TypeAll:
		return "all"
	case Type5GNSA:
		return "5g_nsa"
	case TypeUnknown:
		return "unknown"
	case TypeGPRS:
		return "gprs"
	case TypeEDGE:
		return "edge"
	case TypeUMTS:
		return "umts"
	case TypeCDMA:
		return "cdma"
	case TypeEVDO0:
		return "evdo_0"
	case TypeEVDOA:
		return "evdo_a"
	case Type1xRTT:
		return "1xrtt"
	case TypeHSDPA:
		return "hsdpa"
	case TypeHSUPA:
		return "hsupa"
	case TypeHSPA:
		return "hspa"
	case TypeIDEN:
		return "iden"
	case TypeEVDOB:
		return "evdo_b"
	case TypeLTE:
		return "lte"
	case TypeEHRPD:
		return "ehrpd"
	case TypeHSPAP:
		return "hspap"
	case TypeGSM:
		return "gsm"
	case TypeTDSCDMA:
		return "td_scdma"
	case TypeIWLAN:
		return "iwlan"
	case TypeNR:
		return "nr"
	default:
		return "unknown"
	}
}
