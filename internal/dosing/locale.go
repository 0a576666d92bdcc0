package dosing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Locale selects the language of advisory text. Numeric results never depend
// on it.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleDutch   Locale = "nl"
)

// DefaultLocale is used when no supported locale can be matched.
const DefaultLocale = LocaleEnglish

var (
	supportedTags = []language.Tag{language.English, language.Dutch}
	localeMatcher = language.NewMatcher(supportedTags)
	messages      = newCatalog()
)

// Locales lists the supported locales.
func Locales() []Locale {
	return []Locale{LocaleEnglish, LocaleDutch}
}

// ParseLocale matches a BCP 47 tag or an Accept-Language header value against
// the supported locales, falling back to fallback when nothing matches.
func ParseLocale(s string, fallback Locale) Locale {
	if loc, ok := LookupLocale(s); ok {
		return loc
	}
	return fallback.orDefault()
}

// LookupLocale is like ParseLocale but reports whether a supported locale
// matched instead of falling back.
func LookupLocale(s string) (Locale, bool) {
	if s == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return localeFromTag(supportedTags[idx]), true
}

func localeFromTag(tag language.Tag) Locale {
	if tag == language.Dutch {
		return LocaleDutch
	}
	return LocaleEnglish
}

func (l Locale) orDefault() Locale {
	switch l {
	case LocaleEnglish, LocaleDutch:
		return l
	default:
		return DefaultLocale
	}
}

func (l Locale) tag() language.Tag {
	if l == LocaleDutch {
		return language.Dutch
	}
	return language.English
}

// printer returns a message printer bound to the dosing catalog.
func (l Locale) printer() *message.Printer {
	return message.NewPrinter(l.orDefault().tag(), message.Catalog(messages))
}

// Message keys. The English text doubles as the key.
const (
	msgDoseInOneGo = "Dose in one go"
	msgSplitDose   = "%s g now + %s g in 12–24 h"

	msgVolumeRequired = "Volume must be > 0"
	msgPurityRange    = "KHCO₃ purity must be between %s and %s"

	msgAmmoniaDetected  = "Ammonia detected: perform a partial water change."
	msgNitriteDetected  = "Nitrite detected: perform a partial water change."
	msgDetoxifierDose   = "Dose %s mL of ammonia/nitrite detoxifier."
	msgBioBoosterDose   = "Dose %s mL of biological filtration booster."
	msgVolumeForDose    = "Enter the tank volume to calculate the emergency dose."
	msgNitrateHigh      = "Nitrate is high (%s ppm): perform a water change."
	msgGHLow            = "GH is low (%s °dGH): consider a GH booster."
	msgKHLow            = "KH is low (%s °dKH): consider KHCO₃."
	msgAllParametersOK  = "All parameters are within safe ranges."
	msgLabelDose        = "%s g %s"
	msgLabelGoldFull    = "%s g %s (full dose)"
	msgLabelGoldHalf    = "%s g %s (half dose)"
	msgLabelNotRequired = "No %s required"

	msgCSVParameter = "Parameter"
	msgCSVDose      = "Dose (g)"
	msgCSVSplit     = "Split Dose Info"

	msgProductKHCO3            = "KHCO₃"
	msgProductEquilibrium      = "Equilibrium"
	msgProductNeutralRegulator = "Neutral Regulator"
	msgProductAcidBuffer       = "Acid Buffer"
	msgProductGoldBuffer       = "Gold Buffer"
)

var dutch = map[string]string{
	msgDoseInOneGo:      "In één keer doseren",
	msgSplitDose:        "%s g nu + %s g over 12–24 uur",
	msgVolumeRequired:   "Volume moet > 0 zijn",
	msgPurityRange:      "Zuiverheid van KHCO₃ moet tussen %s en %s liggen",
	msgAmmoniaDetected:  "Ammoniak gemeten: ververs een deel van het water.",
	msgNitriteDetected:  "Nitriet gemeten: ververs een deel van het water.",
	msgDetoxifierDose:   "Doseer %s mL ammoniak/nitriet-neutralisator.",
	msgBioBoosterDose:   "Doseer %s mL bacteriestarter voor het filter.",
	msgVolumeForDose:    "Vul het aquariumvolume in om de noodgift te berekenen.",
	msgNitrateHigh:      "Nitraat is hoog (%s ppm): ververs water.",
	msgGHLow:            "GH is laag (%s °dGH): overweeg een GH-verhoger.",
	msgKHLow:            "KH is laag (%s °dKH): overweeg KHCO₃.",
	msgAllParametersOK:  "Alle waarden zijn in orde.",
	msgLabelDose:        "%s g %s",
	msgLabelGoldFull:    "%s g %s (volle dosis)",
	msgLabelGoldHalf:    "%s g %s (halve dosis)",
	msgLabelNotRequired: "Geen %s nodig",
	msgCSVParameter:     "Parameter",
	msgCSVDose:          "Dosis (g)",
	msgCSVSplit:         "Verdeeld doseren",
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range dutch {
		if err := b.SetString(language.Dutch, key, text); err != nil {
			panic(err)
		}
	}
	return b
}
