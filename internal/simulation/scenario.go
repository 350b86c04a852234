// internal/simulation/scenario.go

package simulation

import "ElephantWatchAPI/internal/models"

// HealthCheckGateway is the gateway forced offline by the health-check scenario.
const HealthCheckGateway = "Node-4"

// Outcome is the fixed state a scenario mode resolves to.
type Outcome struct {
	Pos     models.Position
	Threat  models.ThreatLevel
	Status  string
	Devices []models.Device
	LogLine string
}

var (
	basePos     = models.Position{Lat: 12.876, Lng: 101.815}
	breachPos   = models.Position{Lat: 12.880, Lng: 101.820}
	criticalPos = models.Position{Lat: 12.885, Lng: 101.825}
)

const (
	StatusSafe        = "Safe - Wildlife in Forest"
	StatusBreach      = "WARNING - Buffer Zone Breach"
	StatusCritical    = "CRITICAL - Community Entry Imminent"
	StatusHealthCheck = "SYSTEM CHECK - Gateway " + HealthCheckGateway + " Offline"
)

var seedDevices = []models.Device{
	{ID: "S-20", Type: models.DeviceVibrationSensor, Status: models.DeviceOnline, Battery: 85, Coordinates: models.Position{Lat: 12.874, Lng: 101.814}, LastActive: "1 min ago", LocationName: "Zone 2"},
	{ID: "S-21", Type: models.DeviceVibrationSensor, Status: models.DeviceOnline, Battery: 92, Coordinates: models.Position{Lat: 12.878, Lng: 101.818}, LastActive: "2 mins ago", LocationName: "Zone 2"},
	{ID: "CCTV-04", Type: models.DeviceCamera, Status: models.DeviceOnline, Battery: 100, Coordinates: models.Position{Lat: 12.882, Lng: 101.822}, LastActive: "Live", LocationName: "Zone 3"},
	{ID: "Node-4", Type: models.DeviceGateway, Status: models.DeviceOnline, Battery: 15, Coordinates: models.Position{Lat: 12.872, Lng: 101.812}, LastActive: "5 mins ago", LocationName: "Zone 1"},
	{ID: "S-22", Type: models.DeviceVibrationSensor, Status: models.DeviceOnline, Battery: 77, Coordinates: models.Position{Lat: 12.875, Lng: 101.819}, LastActive: "1 min ago", LocationName: "Zone 2"},
	{ID: "CCTV-05", Type: models.DeviceCamera, Status: models.DeviceOnline, Battery: 100, Coordinates: models.Position{Lat: 12.884, Lng: 101.824}, LastActive: "Live", LocationName: "Zone 3"},
	{ID: "GW-01", Type: models.DeviceGateway, Status: models.DeviceOnline, Battery: 98, Coordinates: models.Position{Lat: 12.873, Lng: 101.813}, LastActive: "30 secs ago", LocationName: "Zone 1"},
	{ID: "GW-02", Type: models.DeviceGateway, Status: models.DeviceOnline, Battery: 99, Coordinates: models.Position{Lat: 12.886, Lng: 101.826}, LastActive: "45 secs ago", LocationName: "Zone 3"},
}

// SeedDevices returns a fresh copy of the initial fleet.
func SeedDevices() []models.Device {
	out := make([]models.Device, len(seedDevices))
	copy(out, seedDevices)
	return out
}

// Transition resolves a mode to its outcome. It has no side effects and
// reports false for modes outside the table.
func Transition(mode models.ScenarioMode) (Outcome, bool) {
	switch mode {
	case models.ModeNormal:
		return Outcome{
			Pos:     basePos,
			Threat:  models.ThreatLow,
			Status:  StatusSafe,
			Devices: SeedDevices(),
			LogLine: "[INFO] Normal operations resumed. Subject inside forest.",
		}, true

	case models.ModeBufferBreach:
		return Outcome{
			Pos:     breachPos,
			Threat:  models.ThreatMedium,
			Status:  StatusBreach,
			Devices: SeedDevices(),
			LogLine: "[WARN] Vibration sensor S-21 detected movement in buffer zone.",
		}, true

	case models.ModeCriticalThreat:
		return Outcome{
			Pos:     criticalPos,
			Threat:  models.ThreatHigh,
			Status:  StatusCritical,
			Devices: SeedDevices(),
			LogLine: "[ALERT] CCTV-04 confirmed elephant near community boundary.",
		}, true

	case models.ModeHealthCheck:
		devices := SeedDevices()
		for i := range devices {
			if devices[i].ID == HealthCheckGateway {
				devices[i].Status = models.DeviceOffline
				devices[i].Battery = 0
			}
		}
		return Outcome{
			Pos:     basePos,
			Threat:  models.ThreatLow,
			Status:  StatusHealthCheck,
			Devices: devices,
			LogLine: "[ALARM] Gateway " + HealthCheckGateway + " stopped responding. Battery depleted.",
		}, true
	}

	return Outcome{}, false
}
