package protocol

import (
	"fmt"
	"strings"

	"github.com/mrsinham/radtech/internal/util"
)

// Region is an anatomical region and projection key.
type Region string

const (
	SkullAP      Region = "skull-ap"
	SkullLat     Region = "skull-lat"
	FaceSinuses  Region = "face-sinuses"
	FaceNoseLat  Region = "face-nose-lat"
	FaceOrbits   Region = "face-orbits"
	FaceMandible Region = "face-mandible"
	Cavum        Region = "cavum"

	Chest       Region = "chest"
	ChestLat    Region = "chest-lat"
	ChestAP     Region = "chest-ap"
	RibsAP      Region = "ribs-ap"
	RibsLat     Region = "ribs-lat"
	RibsOblique Region = "ribs-oblique"

	ShoulderAP   Region = "shoulder-ap"
	ShoulderAx   Region = "shoulder-ax"
	ShoulderY    Region = "shoulder-y"
	ShoulderLat  Region = "shoulder-lat"
	HumerusAP    Region = "humerus-ap"
	HumerusLat   Region = "humerus-lat"
	ElbowAP      Region = "elbow-ap"
	ElbowLat     Region = "elbow-lat"
	ForearmAP    Region = "forearm-ap"
	ForearmLat   Region = "forearm-lat"
	WristPA      Region = "wrist-pa"
	WristLat     Region = "wrist-lat"
	WristOblique Region = "wrist-oblique"
	HandPA       Region = "hand-pa"
	HandLat      Region = "hand-lat"
	HandOblique  Region = "hand-oblique"
	FingerAP     Region = "finger-ap"
	FingerLat    Region = "finger-lat"

	AbdomenAP      Region = "abdomen-ap"
	AbdomenLat     Region = "abdomen-lat"
	AbdomenOblique Region = "abdomen-oblique"
	PelvisAP       Region = "pelvis-ap"
	PelvisLat      Region = "pelvis-lat"
	PelvisOblique  Region = "pelvis-oblique"
	HipAP          Region = "hip-ap"
	HipLat         Region = "hip-lat"

	FemurAP     Region = "femur-ap"
	FemurLat    Region = "femur-lat"
	KneeAP      Region = "knee-ap"
	KneeLat     Region = "knee-lat"
	LegAP       Region = "leg-ap"
	LegLat      Region = "leg-lat"
	AnkleAP     Region = "ankle-ap"
	AnkleLat    Region = "ankle-lat"
	FootAP      Region = "foot-ap"
	FootLat     Region = "foot-lat"
	FootOblique Region = "foot-oblique"
	Calcaneus   Region = "calcaneus"
)

// RegionGroup is the general body area a projection belongs to.
type RegionGroup string

const (
	GroupHead          RegionGroup = "head"
	GroupTorso         RegionGroup = "torso"
	GroupUpperLimb     RegionGroup = "upper-limb"
	GroupAbdomenPelvis RegionGroup = "abdomen-pelvis"
	GroupLowerLimb     RegionGroup = "lower-limb"
)

var groupRegions = map[RegionGroup][]Region{
	GroupHead:  {SkullAP, SkullLat, FaceSinuses, FaceNoseLat, FaceOrbits, FaceMandible, Cavum},
	GroupTorso: {Chest, ChestLat, ChestAP, RibsAP, RibsLat, RibsOblique},
	GroupUpperLimb: {
		ShoulderAP, ShoulderAx, ShoulderY, ShoulderLat, HumerusAP, HumerusLat,
		ElbowAP, ElbowLat, ForearmAP, ForearmLat, WristPA, WristLat, WristOblique,
		HandPA, HandLat, HandOblique, FingerAP, FingerLat,
	},
	GroupAbdomenPelvis: {AbdomenAP, AbdomenLat, AbdomenOblique, PelvisAP, PelvisLat, PelvisOblique, HipAP, HipLat},
	GroupLowerLimb: {
		FemurAP, FemurLat, KneeAP, KneeLat, LegAP, LegLat,
		AnkleAP, AnkleLat, FootAP, FootLat, FootOblique, Calcaneus,
	},
}

// AllRegionGroups returns the groups in display order.
func AllRegionGroups() []RegionGroup {
	return []RegionGroup{GroupHead, GroupTorso, GroupUpperLimb, GroupAbdomenPelvis, GroupLowerLimb}
}

// Regions returns the projections of the group in display order.
func (g RegionGroup) Regions() []Region {
	return append([]Region(nil), groupRegions[g]...)
}

// First returns the projection selected when the group is picked.
func (g RegionGroup) First() Region {
	regions := groupRegions[g]
	if len(regions) == 0 {
		return Chest
	}
	return regions[0]
}

// IsValid reports whether g is a known group.
func (g RegionGroup) IsValid() bool {
	_, ok := groupRegions[g]
	return ok
}

func (g RegionGroup) String() string {
	return string(g)
}

// Label returns a human readable name.
func (g RegionGroup) Label() string {
	switch g {
	case GroupHead:
		return "Head and face"
	case GroupTorso:
		return "Chest and ribs"
	case GroupUpperLimb:
		return "Upper limb"
	case GroupAbdomenPelvis:
		return "Abdomen and pelvis"
	case GroupLowerLimb:
		return "Lower limb"
	default:
		return string(g)
	}
}

// ParseRegionGroup parses a group key.
func ParseRegionGroup(s string) (RegionGroup, error) {
	g := RegionGroup(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("invalid region group: %s (valid: %s)", s, joinKeys(AllRegionGroups()))
	}
	return g, nil
}

// AllRegions returns every region, grouped and in display order.
func AllRegions() []Region {
	var all []Region
	for _, g := range AllRegionGroups() {
		all = append(all, groupRegions[g]...)
	}
	return all
}

// GroupOf returns the group containing r. Unknown regions belong to the torso
// group, matching the chest fallback row.
func GroupOf(r Region) RegionGroup {
	for _, g := range AllRegionGroups() {
		for _, candidate := range groupRegions[g] {
			if candidate == r {
				return g
			}
		}
	}
	return GroupTorso
}

// IsValid reports whether r is a known region.
func (r Region) IsValid() bool {
	for _, g := range AllRegionGroups() {
		for _, candidate := range groupRegions[g] {
			if candidate == r {
				return true
			}
		}
	}
	return false
}

func (r Region) String() string {
	return string(r)
}

// ViewPosition returns the DICOM view position implied by the projection
// suffix, or "" when the projection has no standard code.
func (r Region) ViewPosition() string {
	key := string(r)
	switch {
	case r == Chest:
		return "PA"
	case strings.HasSuffix(key, "-ap"):
		return "AP"
	case strings.HasSuffix(key, "-pa"):
		return "PA"
	case strings.HasSuffix(key, "-lat"):
		return "LL"
	default:
		return ""
	}
}

// ParseRegion parses a region key. Unknown keys return an error carrying the
// closest known key when one is near enough.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r, nil
	}
	if suggestion := SuggestRegion(s); suggestion != "" {
		return "", fmt.Errorf("unknown region %q, did you mean %q?", s, suggestion)
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// SuggestRegion returns the known region closest to input, or "".
func SuggestRegion(input string) Region {
	keys := make([]string, 0, len(AllRegions()))
	for _, r := range AllRegions() {
		keys = append(keys, string(r))
	}
	return Region(util.ClosestMatch(strings.ToLower(strings.TrimSpace(input)), keys, 4))
}
