package peach

import (
	"strings"

	"github.com/yourorg/payment-gateway/internal/domain"
)

// Result-code classification. Peach reports a dotted result code on every
// transaction; the four buckets below are disjoint and each maps to one
// canonical status. A code in none of the buckets classifies as pending:
// never claim success or failure on a code we do not recognize.

var successCodes = codeSet(
	"000.000.000",
	"000.000.100",
	"000.100.110",
	"000.100.111",
	"000.100.112",
	"000.300.000",
	"000.300.100",
	"000.600.000",
)

var pendingCodes = codeSet(
	"000.200.000",
	"000.200.100",
	"000.200.101",
	"000.200.102",
	"000.200.200",
	"100.400.500",
	"800.400.500",
	"800.400.501",
	"800.400.502",
)

var rejectedCodes = codeSet(
	"000.400.010",
	"000.400.020",
	"000.400.030",
	"000.400.040",
	"000.400.050",
	"000.400.100",
	"100.100.101",
	"100.100.303",
	"100.396.101",
	"800.100.151",
	"800.100.152",
	"800.100.153",
	"800.100.157",
	"800.100.162",
	"800.100.165",
	"800.100.168",
	"800.100.170",
)

var systemErrorCodes = codeSet(
	"600.200.100",
	"800.500.110",
	"900.100.100",
	"900.100.200",
	"900.100.201",
	"900.100.202",
	"900.100.203",
	"900.100.300",
	"900.100.400",
	"900.200.100",
	"999.999.999",
)

func codeSet(codes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// classifyResultCode maps a Peach result code to the canonical status.
func classifyResultCode(code string) domain.PaymentStatus {
	switch {
	case contains(successCodes, code):
		return domain.StatusCompleted
	case contains(pendingCodes, code):
		return domain.StatusPending
	case contains(rejectedCodes, code):
		return domain.StatusFailed
	case contains(systemErrorCodes, code):
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}

func contains(set map[string]struct{}, code string) bool {
	_, ok := set[code]
	return ok
}

// methodForBrand maps a gateway-reported payment brand back to a canonical
// method by case-insensitive substring match. Card is the safe default:
// an unrecognized brand is far more likely a new card scheme than a new
// payment rail.
func methodForBrand(brand string) domain.PaymentMethod {
	b := strings.ToLower(brand)
	switch {
	case strings.Contains(b, "eft"), strings.Contains(b, "bank"):
		return domain.MethodEFT
	case strings.Contains(b, "wallet"), strings.Contains(b, "paypal"):
		return domain.MethodMobileWallet
	default:
		return domain.MethodCard
	}
}

// Transaction-type codes per canonical method. DB is an immediate charge
// and the fallback for anything unrecognized.
var transactionTypes = map[domain.PaymentMethod]string{
	domain.MethodCard:         "DB",
	domain.MethodMobileWallet: "DB",
	domain.MethodCrypto:       "DB",
	domain.MethodEFT:          "DD",
	domain.MethodBankTransfer: "DD",
}

func transactionType(method domain.PaymentMethod) string {
	if t, ok := transactionTypes[method]; ok {
		return t
	}
	return "DB"
}
