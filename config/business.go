package config

func DefaultCurrency() string {
	return stringFromEnv("DEFAULT_CURRENCY", "THB")
}

// PhoneRegion is the region used to parse phone numbers without a country prefix.
func PhoneRegion() string {
	return stringFromEnv("PHONE_REGION", "TH")
}

func DebitNotePrefix() string {
	return stringFromEnv("DEBIT_NOTE_PREFIX", "HIF")
}

func Timezone() string {
	return stringFromEnv("TIMEZONE", "Asia/Bangkok")
}
