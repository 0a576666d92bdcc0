package dosing

// Status is the classification of a single test-kit parameter.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// Parameter identifies a monitored test-kit parameter.
type Parameter string

const (
	ParameterAmmonia Parameter = "ammonia"
	ParameterNitrite Parameter = "nitrite"
	ParameterNitrate Parameter = "nitrate"
	ParameterGH      Parameter = "gh"
	ParameterKH      Parameter = "kh"
)

// TestKitReadings are raw test-kit values in ppm. A nil reading was not
// entered and is treated like 0.
type TestKitReadings struct {
	Ammonia *float64
	Nitrite *float64
	Nitrate *float64
	GH      *float64
	KH      *float64
}

// ParameterStatus is the classification of one parameter. DegreeValue is set
// for GH and KH only.
type ParameterStatus struct {
	Status      Status
	DegreeValue *float64
}

// Classification is the result of classifying a set of readings.
type Classification struct {
	Ammonia ParameterStatus
	Nitrite ParameterStatus
	Nitrate ParameterStatus
	GH      ParameterStatus
	KH      ParameterStatus

	// EmergencyDoses holds computed emergency volumes in mL, keyed by product.
	EmergencyDoses map[Product]float64

	// Recommendations is never empty.
	Recommendations []string
}

// Classify classifies test-kit readings and derives recommendations. It does
// not require a valid volume: with litres <= 0 the emergency dose
// recommendations ask for the volume instead.
func (c *Calculator) Classify(r TestKitReadings, litres float64, loc Locale) Classification {
	p := loc.printer()
	out := Classification{
		Ammonia:        ParameterStatus{Status: StatusGood},
		Nitrite:        ParameterStatus{Status: StatusGood},
		Nitrate:        ParameterStatus{Status: StatusGood},
		EmergencyDoses: make(map[Product]float64),
	}
	volumeKnown := litres > 0

	if value(r.Ammonia) > 0 {
		out.Ammonia.Status = StatusWarning
		out.Recommendations = append(out.Recommendations, p.Sprintf(msgAmmoniaDetected))
		if volumeKnown {
			ml := c.DetoxifierML(litres)
			out.EmergencyDoses[ProductDetoxifier] = ml
			out.Recommendations = append(out.Recommendations, p.Sprintf(msgDetoxifierDose, FormatGrams(ml)))
		} else {
			out.Recommendations = append(out.Recommendations, p.Sprintf(msgVolumeForDose))
		}
	}

	if value(r.Nitrite) > 0 {
		out.Nitrite.Status = StatusWarning
		out.Recommendations = append(out.Recommendations, p.Sprintf(msgNitriteDetected))
		if volumeKnown {
			ml := c.BioBoosterML(litres)
			out.EmergencyDoses[ProductBioBooster] = ml
			out.Recommendations = append(out.Recommendations, p.Sprintf(msgBioBoosterDose, FormatGrams(ml)))
		} else {
			out.Recommendations = append(out.Recommendations, p.Sprintf(msgVolumeForDose))
		}
	}

	if nitrate := value(r.Nitrate); nitrate > c.coef.NitrateWarningPPM {
		out.Nitrate.Status = StatusWarning
		out.Recommendations = append(out.Recommendations, p.Sprintf(msgNitrateHigh, FormatGrams(nitrate)))
	}

	gh := PPMToDegrees(value(r.GH), c.coef)
	out.GH = ParameterStatus{Status: StatusInfo, DegreeValue: &gh}
	if gh > 0 && gh < c.coef.LowHardnessDegrees {
		out.Recommendations = append(out.Recommendations, p.Sprintf(msgGHLow, FormatGrams(gh)))
	}

	kh := PPMToDegrees(value(r.KH), c.coef)
	out.KH = ParameterStatus{Status: StatusInfo, DegreeValue: &kh}
	if kh > 0 && kh < c.coef.LowHardnessDegrees {
		out.Recommendations = append(out.Recommendations, p.Sprintf(msgKHLow, FormatGrams(kh)))
	}

	if len(out.Recommendations) == 0 {
		out.Recommendations = []string{p.Sprintf(msgAllParametersOK)}
	}
	return out
}

// Statuses returns the per-parameter statuses keyed by parameter.
func (c Classification) Statuses() map[Parameter]ParameterStatus {
	return map[Parameter]ParameterStatus{
		ParameterAmmonia: c.Ammonia,
		ParameterNitrite: c.Nitrite,
		ParameterNitrate: c.Nitrate,
		ParameterGH:      c.GH,
		ParameterKH:      c.KH,
	}
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
