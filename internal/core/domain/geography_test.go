package domain

import "testing"

func TestStateForPincode(t *testing.T) {
	cases := []struct {
		pincode string
		want    string
	}{
		{"400093", "Maharashtra"},
		{"110001", "Delhi"},
		{"560001", "Karnataka"},
		{"700001", "West Bengal"},
		{"999999", "Maharashtra"}, // unmapped prefix falls back
		{"4", "Maharashtra"},      // too short to classify
	}
	for _, tc := range cases {
		if got := StateForPincode(tc.pincode); got != tc.want {
			t.Errorf("StateForPincode(%q) = %q, want %q", tc.pincode, got, tc.want)
		}
	}
}

func TestZoneForState(t *testing.T) {
	if got := ZoneForState("Delhi"); got != ZoneNorth {
		t.Errorf("Delhi zone = %q, want NORTH", got)
	}
	if got := ZoneForState("Atlantis"); got != ZoneCentral {
		t.Errorf("unknown state zone = %q, want CENTRAL", got)
	}
}

func TestClassifyRoute(t *testing.T) {
	cases := []struct {
		name        string
		origin      string
		destination string
		want        RouteType
	}{
		{"same state", "400093", "400001", RouteLocal},
		{"same state different city", "400093", "411001", RouteLocal},
		{"same zone different state", "110001", "201001", RouteZonal}, // Delhi → UP, both NORTH
		{"cross zone", "400093", "110001", RouteNational},             // Maharashtra → Delhi
		{"south internal", "560001", "600001", RouteZonal},            // Karnataka → Tamil Nadu
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyRoute(tc.origin, tc.destination); got != tc.want {
				t.Errorf("ClassifyRoute(%q, %q) = %q, want %q", tc.origin, tc.destination, got, tc.want)
			}
		})
	}
}

func TestRegionPrefix(t *testing.T) {
	if got := RegionPrefix("400093"); got != "400" {
		t.Errorf("RegionPrefix(400093) = %q, want 400", got)
	}
	if got := RegionPrefix("40"); got != "40" {
		t.Errorf("RegionPrefix(40) = %q, want unchanged", got)
	}
}
