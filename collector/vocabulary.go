package collector

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// knownTypes is the message vocabulary used to sanity-check configured
// overrides. It is not a filter: unknown types are still ingested.
var knownTypes = []string{
	"ACTUATOR_CONTROL_TARGET", "ACTUATOR_OUTPUT_STATUS", "ADSB_VEHICLE",
	"ALTITUDE", "ATTITUDE", "ATTITUDE_QUATERNION", "ATTITUDE_TARGET",
	"AUTOPILOT_VERSION", "BATTERY_STATUS", "CAMERA_IMAGE_CAPTURED",
	"COLLISION", "COMMAND_ACK", "COMMAND_CANCEL", "COMMAND_INT",
	"COMMAND_LONG", "DISTANCE_SENSOR", "ESC_INFO", "ESC_STATUS",
	"ESTIMATOR_STATUS", "EXTENDED_SYS_STATE", "GIMBAL_DEVICE_ATTITUDE_STATUS",
	"GLOBAL_POSITION_INT", "GPS2_RAW", "GPS_GLOBAL_ORIGIN", "GPS_RAW_INT",
	"GPS_STATUS", "HEARTBEAT", "HIGHRES_IMU", "HIL_ACTUATOR_CONTROLS",
	"HOME_POSITION", "LANDING_TARGET", "LINK_NODE_STATUS",
	"LOCAL_POSITION_NED", "MANUAL_CONTROL", "MISSION_ACK",
	"MISSION_CLEAR_ALL", "MISSION_COUNT", "MISSION_CURRENT", "MISSION_ITEM",
	"MISSION_ITEM_INT", "MISSION_ITEM_REACHED", "MISSION_REQUEST",
	"MISSION_REQUEST_INT", "MISSION_REQUEST_LIST",
	"MISSION_REQUEST_PARTIAL_LIST", "MISSION_SET_CURRENT",
	"MISSION_WRITE_PARTIAL_LIST", "NAV_CONTROLLER_OUTPUT", "ODOMETRY",
	"OPTICAL_FLOW", "PARAM_EXT_SET", "PARAM_REQUEST_LIST",
	"PARAM_REQUEST_READ", "PARAM_SET", "PARAM_VALUE", "PING",
	"POSITION_TARGET_GLOBAL_INT", "POSITION_TARGET_LOCAL_NED",
	"RADIO_STATUS", "RAW_IMU", "RC_CHANNELS", "RC_CHANNELS_OVERRIDE",
	"RC_CHANNELS_RAW", "SAFETY_SET_ALLOWED_AREA", "SCALED_IMU",
	"SCALED_IMU2", "SCALED_PRESSURE", "SERVO_OUTPUT_RAW",
	"SET_ATTITUDE_TARGET", "SET_GPS_GLOBAL_ORIGIN", "SET_HOME_POSITION",
	"SET_MODE", "SET_POSITION_TARGET_GLOBAL_INT",
	"SET_POSITION_TARGET_LOCAL_NED", "STATUSTEXT", "SYSTEM_TIME",
	"SYS_STATUS", "TIMESYNC", "UTM_GLOBAL_POSITION", "VFR_HUD",
	"VIBRATION", "WIND_COV",
}

var knownSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(knownTypes))
	for _, name := range knownTypes {
		m[name] = struct{}{}
	}
	return m
}()

// IsKnownType reports whether name is in the built-in vocabulary.
func IsKnownType(name string) bool {
	_, ok := knownSet[name]
	return ok
}

// Suggest returns up to max known type names closest to name by edit
// distance, nearest first. Names further than a third of the input length
// are not suggested.
func Suggest(name string, max int) []string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || max <= 0 {
		return nil
	}
	limit := len(name)/3 + 1
	type candidate struct {
		name string
		dist int
	}
	var found []candidate
	for _, known := range knownTypes {
		d := levenshtein.ComputeDistance(name, known)
		if d <= limit {
			found = append(found, candidate{name: known, dist: d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })
	if len(found) > max {
		found = found[:max]
	}
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.name
	}
	return out
}
