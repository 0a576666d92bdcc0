package dosing

// ProductName returns the localized display name of a product.
func ProductName(p Product, loc Locale) string {
	pr := loc.printer()
	switch p {
	case ProductKHCO3:
		return pr.Sprintf(msgProductKHCO3)
	case ProductEquilibrium:
		return pr.Sprintf(msgProductEquilibrium)
	case ProductNeutralRegulator:
		return pr.Sprintf(msgProductNeutralRegulator)
	case ProductAcidBuffer:
		return pr.Sprintf(msgProductAcidBuffer)
	case ProductGoldBuffer:
		return pr.Sprintf(msgProductGoldBuffer)
	default:
		return string(p)
	}
}

// Label renders the display label of one product dose, for example
// "2.05 g KHCO₃", "No Acid Buffer required" or "6.00 g Gold Buffer (full dose)".
func Label(r *Result, p Product, loc Locale) string {
	pr := loc.printer()
	name := ProductName(p, loc)
	if r == nil || !r.Required(p) {
		return pr.Sprintf(msgLabelNotRequired, name)
	}
	grams := FormatGrams(r.Dose(p))
	if p == ProductGoldBuffer {
		if r.GoldBufferFullDose {
			return pr.Sprintf(msgLabelGoldFull, grams, name)
		}
		return pr.Sprintf(msgLabelGoldHalf, grams, name)
	}
	return pr.Sprintf(msgLabelDose, grams, name)
}
