package auth

// TierEntitlements lists the market data surface a tier can reach. Access is
// plain set membership keyed by tier, no per-user overrides exist.
type TierEntitlements struct {
	Symbols    []string
	Timeframes []string
}

// FreeSymbols is the market data surface every account gets.
var FreeSymbols = []string{
	"BTCUSD",
	"EURUSD",
	"USDJPY",
	"US30",
	"XAUUSD",
}

// ProExclusiveSymbols are only reachable on the paid tier.
var ProExclusiveSymbols = []string{
	"AUDJPY",
	"AUDUSD",
	"ETHUSD",
	"GBPJPY",
	"GBPUSD",
	"NDX100",
	"NZDUSD",
	"USDCAD",
	"USDCHF",
	"XAGUSD",
}

// FreeTimeframes are the chart resolutions every account gets.
var FreeTimeframes = []string{"H1", "H4", "D1"}

// ProExclusiveTimeframes are only reachable on the paid tier.
var ProExclusiveTimeframes = []string{"M5", "M15", "M30", "H2", "H8", "H12"}

// DefaultTierEntitlements builds the shipped entitlement tables. PRO is a
// strict superset of FREE.
func DefaultTierEntitlements() map[Tier]TierEntitlements {
	proSymbols := make([]string, 0, len(FreeSymbols)+len(ProExclusiveSymbols))
	proSymbols = append(proSymbols, FreeSymbols...)
	proSymbols = append(proSymbols, ProExclusiveSymbols...)

	proTimeframes := make([]string, 0, len(FreeTimeframes)+len(ProExclusiveTimeframes))
	proTimeframes = append(proTimeframes, FreeTimeframes...)
	proTimeframes = append(proTimeframes, ProExclusiveTimeframes...)

	return map[Tier]TierEntitlements{
		TierFree: {
			Symbols:    append([]string{}, FreeSymbols...),
			Timeframes: append([]string{}, FreeTimeframes...),
		},
		TierPro: {
			Symbols:    proSymbols,
			Timeframes: proTimeframes,
		},
	}
}
