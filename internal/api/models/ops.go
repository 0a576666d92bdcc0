package models

import "github.com/aquadose/aquadose/internal/dosing"

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status                 HealthStatus            `json:"status"`
	Time                   Timestamp               `json:"time"`
	CalibrationVersion     string                  `json:"calibrationVersion"`
	Subsystems             []SubsystemStatus       `json:"subsystems"`
	Dependencies           []DependencyStatus      `json:"dependencies"`
	SelfCheck              *dosing.SelfCheckReport `json:"selfCheck,omitempty"`
	ActiveDegradationFlags []string                `json:"activeDegradationFlags,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// DependencyStatus represents the status of a backing store guarded by a
// circuit breaker.
type DependencyStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
