package dosing

import "math"

// Request is one snapshot of the calculator inputs. KH values are in dKH, GH
// in dGH; the optional test-kit readings are in ppm.
type Request struct {
	Volume float64
	Unit   Unit

	KHCurrent float64
	KHTarget  float64
	KHPurity  float64

	GHCurrent float64
	GHTarget  float64

	PHCurrent float64
	PHTarget  float64
	NRKH      float64

	AcidCurrentKH float64
	AcidTargetKH  float64

	PHGoldCurrent float64
	PHGoldTarget  float64

	Readings TestKitReadings

	Locale Locale
}

// DefaultRequest returns the inputs the calculator form starts with.
func DefaultRequest() Request {
	return Request{
		Volume:        100,
		Unit:          UnitLitres,
		KHCurrent:     2,
		KHTarget:      4,
		KHPurity:      0.99,
		GHCurrent:     4,
		GHTarget:      6,
		PHCurrent:     7.5,
		PHTarget:      7,
		NRKH:          4,
		AcidCurrentKH: 6,
		AcidTargetKH:  4,
		PHGoldCurrent: 6.8,
		PHGoldTarget:  7.2,
		Locale:        DefaultLocale,
	}
}

// Normalize replaces NaN and infinite values with 0 so the formulas never see
// non-finite input.
func Normalize(r Request) Request {
	for _, f := range []*float64{
		&r.Volume,
		&r.KHCurrent, &r.KHTarget, &r.KHPurity,
		&r.GHCurrent, &r.GHTarget,
		&r.PHCurrent, &r.PHTarget, &r.NRKH,
		&r.AcidCurrentKH, &r.AcidTargetKH,
		&r.PHGoldCurrent, &r.PHGoldTarget,
	} {
		*f = finite(*f)
	}
	r.Readings = TestKitReadings{
		Ammonia: finitePtr(r.Readings.Ammonia),
		Nitrite: finitePtr(r.Readings.Nitrite),
		Nitrate: finitePtr(r.Readings.Nitrate),
		GH:      finitePtr(r.Readings.GH),
		KH:      finitePtr(r.Readings.KH),
	}
	r.Locale = r.Locale.orDefault()
	return r
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := finite(*v)
	return &f
}
