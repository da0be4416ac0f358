package checkout

import (
	"github.com/shopspring/decimal"
)

// currencyExponents lists the ISO 4217 currencies whose minor unit is not the
// default two decimal places.
var currencyExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0,
	"KMF": 0, "KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0,
	"VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// minorUnits converts a decimal amount into the gateway's minor-unit integer
// representation for the given ISO 4217 alpha code.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	exponent := int32(2)
	if e, ok := currencyExponents[currency]; ok {
		exponent = e
	}
	return amount.Shift(exponent).Round(0).IntPart()
}
