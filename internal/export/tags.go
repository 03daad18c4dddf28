package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/radtech/internal/util"
)

// TagInfo describes a DICOM tag the export lets users override.
type TagInfo struct {
	Name string
	Tag  tag.Tag
}

// tagRegistry maps lowercase tag names to their TagInfo.
var tagRegistry = map[string]TagInfo{
	// Patient
	"patientname":      {Name: "PatientName", Tag: tag.PatientName},
	"patientid":        {Name: "PatientID", Tag: tag.PatientID},
	"patientbirthdate": {Name: "PatientBirthDate", Tag: tag.PatientBirthDate},
	"patientsex":       {Name: "PatientSex", Tag: tag.PatientSex},

	// Study
	"studydescription":       {Name: "StudyDescription", Tag: tag.StudyDescription},
	"institutionname":        {Name: "InstitutionName", Tag: tag.InstitutionName},
	"referringphysicianname": {Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName},
	"operatorsname":          {Name: "OperatorsName", Tag: tag.OperatorsName},
	"accessionnumber":        {Name: "AccessionNumber", Tag: tag.AccessionNumber},
	"stationname":            {Name: "StationName", Tag: tag.StationName},

	// Order
	"requestedprocedurepriority": {Name: "RequestedProcedurePriority", Tag: tag.RequestedProcedurePriority},

	// Series
	"seriesdescription":     {Name: "SeriesDescription", Tag: tag.SeriesDescription},
	"protocolname":          {Name: "ProtocolName", Tag: tag.ProtocolName},
	"bodypartexamined":      {Name: "BodyPartExamined", Tag: tag.BodyPartExamined},
	"manufacturer":          {Name: "Manufacturer", Tag: tag.Manufacturer},
	"manufacturermodelname": {Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName},

	// Image
	"imagecomments": {Name: "ImageComments", Tag: tag.ImageComments},
	"viewposition":  {Name: "ViewPosition", Tag: tag.ViewPosition},
}

// TagNames lists the overridable tag names, sorted.
func TagNames() []string {
	names := make([]string, 0, len(tagRegistry))
	for _, info := range tagRegistry {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// GetTagByName returns TagInfo for a given tag name.
// The lookup is case-insensitive. Unknown names get a "did you mean"
// suggestion when one is close enough.
func GetTagByName(name string) (TagInfo, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if info, ok := tagRegistry[normalizedName]; ok {
		return info, nil
	}

	keys := make([]string, 0, len(tagRegistry))
	for k := range tagRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if key := util.ClosestMatch(normalizedName, keys, 5); key != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, tagRegistry[key].Name)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// ParsedTags holds user tag overrides keyed by canonical tag name.
type ParsedTags map[string]string

// Get returns the override for a tag name, if any.
func (p ParsedTags) Get(name string) (string, bool) {
	info, err := GetTagByName(name)
	if err != nil {
		return "", false
	}
	v, ok := p[info.Name]
	return v, ok
}

// value returns the override for name or def.
func (p ParsedTags) value(name, def string) string {
	if v, ok := p.Get(name); ok {
		return v
	}
	return def
}

// ParseTagFlags parses NAME=VALUE pairs as given on the command line.
func ParseTagFlags(flags []string) (ParsedTags, error) {
	tags := make(ParsedTags, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid tag %q: expected NAME=VALUE", f)
		}
		info, err := GetTagByName(name)
		if err != nil {
			return nil, err
		}
		tags[info.Name] = value
	}
	return tags, nil
}
