package enums

// Currency is the ISO code carried on audit trail rows. The platform
// currently settles exclusively in Omani rial.
type Currency string

const CurrencyOMR Currency = "OMR"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
