package models

import "github.com/aquadose/aquadose/internal/calibration"

// CalibrationProfileList is the response of GET /v1/admin/calibrations.
type CalibrationProfileList struct {
	ActiveVersion string                 `json:"activeVersion"`
	Items         []*calibration.Profile `json:"items"`
}

// CalibrationImportResult is the response of a YAML profile import.
type CalibrationImportResult struct {
	Imported []string `json:"imported"`
}
