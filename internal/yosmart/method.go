package yosmart

import (
	"log"
	"strings"
)

// knownDeviceTypes lists the vendor device types with a dedicated state-query
// method. The vendor convention is "<Type>.getState"; new types are additions
// to this list, not logic changes.
var knownDeviceTypes = []string{
	"Hub",
	"SpeakerHub",
	"THSensor",
	"DoorSensor",
	"LeakSensor",
	"MotionSensor",
	"VibrationSensor",
	"Outlet",
	"MultiOutlet",
	"Switch",
	"Dimmer",
	"Manipulator",
	"GarageDoor",
	"Siren",
	"SmartRemoter",
	"COSmokeAlarm",
	"Thermostat",
	"Lock",
	"Finger",
	"Sprinkler",
	"WaterDepthSensor",
	"WaterMeterController",
	"PowerFailureAlarm",
}

var stateMethodTable = func() map[string]string {
	t := make(map[string]string, len(knownDeviceTypes))
	for _, dt := range knownDeviceTypes {
		t[dt] = dt
	}
	return t
}()

// StateMethod resolves a device type to the vendor's state-query method name.
// Lookup order: exact table match, case-insensitive match, then the raw type
// verbatim as a best effort. The remote API rejects a wrong method itself, so
// the fallback only logs a warning rather than failing.
func StateMethod(deviceType string) string {
	if dt, ok := stateMethodTable[deviceType]; ok {
		return dt + ".getState"
	}
	for _, dt := range knownDeviceTypes {
		if strings.EqualFold(dt, deviceType) {
			return dt + ".getState"
		}
	}
	log.Printf("Warning: unknown device type %q, using it verbatim for state query", deviceType)
	return deviceType + ".getState"
}
