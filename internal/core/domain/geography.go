package domain

// Zone is one of the five macro regions used to classify cross-state routes.
type Zone string

const (
	ZoneNorth   Zone = "NORTH"
	ZoneSouth   Zone = "SOUTH"
	ZoneEast    Zone = "EAST"
	ZoneWest    Zone = "WEST"
	ZoneCentral Zone = "CENTRAL"
)

// pincodePrefixState maps the first two pincode digits to a state. Pincodes
// with an unmapped prefix default to Maharashtra.
var pincodePrefixState = map[string]string{
	"11": "Delhi",
	"12": "Haryana", "13": "Haryana",
	"14": "Punjab", "15": "Punjab", "16": "Punjab",
	"17": "Himachal Pradesh",
	"18": "Jammu & Kashmir", "19": "Jammu & Kashmir",
	"20": "Uttar Pradesh", "21": "Uttar Pradesh", "22": "Uttar Pradesh",
	"23": "Uttar Pradesh", "24": "Uttar Pradesh", "25": "Uttar Pradesh",
	"26": "Uttar Pradesh", "27": "Uttar Pradesh", "28": "Uttar Pradesh",
	"30": "Rajasthan", "31": "Rajasthan", "32": "Rajasthan", "33": "Rajasthan", "34": "Rajasthan",
	"36": "Gujarat", "37": "Gujarat", "38": "Gujarat", "39": "Gujarat",
	"40": "Maharashtra", "41": "Maharashtra", "42": "Maharashtra", "43": "Maharashtra", "44": "Maharashtra",
	"45": "Madhya Pradesh", "46": "Madhya Pradesh", "47": "Madhya Pradesh", "48": "Madhya Pradesh",
	"49": "Chhattisgarh",
	"50": "Telangana",
	"51": "Andhra Pradesh", "52": "Andhra Pradesh", "53": "Andhra Pradesh",
	"56": "Karnataka", "57": "Karnataka", "58": "Karnataka", "59": "Karnataka",
	"60": "Tamil Nadu", "61": "Tamil Nadu", "62": "Tamil Nadu", "63": "Tamil Nadu", "64": "Tamil Nadu",
	"67": "Kerala", "68": "Kerala", "69": "Kerala",
	"70": "West Bengal", "71": "West Bengal", "72": "West Bengal", "73": "West Bengal", "74": "West Bengal",
	"75": "Odisha", "76": "Odisha", "77": "Odisha",
	"78": "Assam",
	"79": "Arunachal Pradesh",
	"80": "Bihar", "81": "Bihar", "82": "Bihar", "83": "Jharkhand", "84": "Bihar", "85": "Bihar",
}

// stateZone assigns each state to a macro zone. Unmapped states default to
// CENTRAL.
var stateZone = map[string]Zone{
	"Delhi":             ZoneNorth,
	"Haryana":           ZoneNorth,
	"Punjab":            ZoneNorth,
	"Himachal Pradesh":  ZoneNorth,
	"Jammu & Kashmir":   ZoneNorth,
	"Uttar Pradesh":     ZoneNorth,
	"Rajasthan":         ZoneNorth,
	"Maharashtra":       ZoneWest,
	"Gujarat":           ZoneWest,
	"Goa":               ZoneWest,
	"Telangana":         ZoneSouth,
	"Andhra Pradesh":    ZoneSouth,
	"Karnataka":         ZoneSouth,
	"Tamil Nadu":        ZoneSouth,
	"Kerala":            ZoneSouth,
	"West Bengal":       ZoneEast,
	"Odisha":            ZoneEast,
	"Assam":             ZoneEast,
	"Arunachal Pradesh": ZoneEast,
	"Bihar":             ZoneEast,
	"Jharkhand":         ZoneEast,
	"Madhya Pradesh":    ZoneCentral,
	"Chhattisgarh":      ZoneCentral,
}

const defaultState = "Maharashtra"

// StateForPincode infers the state from the first two pincode digits.
func StateForPincode(pincode string) string {
	if len(pincode) < 2 {
		return defaultState
	}
	if state, ok := pincodePrefixState[pincode[:2]]; ok {
		return state
	}
	return defaultState
}

// ZoneForState returns the macro zone for a state.
func ZoneForState(state string) Zone {
	if zone, ok := stateZone[state]; ok {
		return zone
	}
	return ZoneCentral
}

// ClassifyRoute derives the route type for an origin/destination pair:
// LOCAL when both pincodes resolve to the same state, ZONAL when they share
// a zone, NATIONAL otherwise.
func ClassifyRoute(originPincode, destinationPincode string) RouteType {
	originState := StateForPincode(originPincode)
	destState := StateForPincode(destinationPincode)
	if originState == destState {
		return RouteLocal
	}
	if ZoneForState(originState) == ZoneForState(destState) {
		return RouteZonal
	}
	return RouteNational
}

// RegionPrefix returns the 3-digit region prefix used for coarse historical
// matching. Short pincodes are returned unchanged.
func RegionPrefix(pincode string) string {
	if len(pincode) < 3 {
		return pincode
	}
	return pincode[:3]
}
