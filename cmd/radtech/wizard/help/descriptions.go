package help

// HelpText contains information about a field
type HelpText struct {
	Title       string
	Description string
	Details     string
	// Keys lists the values accepted by the equivalent CLI flag.
	Keys string
}

// Texts contains help information for all wizard fields
var Texts = map[string]HelpText{
	"age": {
		Title:       "AGE BRACKET",
		Description: "Patient age group.",
		Details: `Newborn - first weeks of life
Children - 1 to 5, 5 to 10, 10 to 18 years
Adult - body type becomes required`,
		Keys: "--age newborn | child-1-5 | child-5-10 | child-10-18 | adult",
	},
	"body_type": {
		Title:       "BODY TYPE",
		Description: "Adult build, from thin to very large.",
		Details:     "P (thin), M (medium), G (large), GG (very large), XL (extra large). Ignored for children.",
		Keys:        "--body-type p | m | g | gg | xl",
	},
	"region_group": {
		Title:       "ANATOMICAL GROUP",
		Description: "Area of the body being examined.",
		Details:     "Choosing a group selects its first projection. Pick the exact projection next.",
	},
	"region": {
		Title:       "PROJECTION",
		Description: "Anatomical region and incidence.",
		Details:     "Chest projections use a dedicated table for adults. Unknown keys fall back to adult chest.",
		Keys:        "--region <key>, e.g. skull-ap, hand-pa, calcaneus",
	},
	"equipment_constant": {
		Title:       "EQUIPMENT CONSTANT",
		Description: "Tube constant added to twice the patient thickness.",
		Details:     "Only used by thickness-based protocols (kV = 2 x thickness + constant). Leave empty for the protocol default.",
		Keys:        "--equipment-constant <number>",
	},
	"print_path": {
		Title:       "TECHNIQUE SHEET",
		Description: "HTML file with the derived technique.",
		Details:     "Open it in a browser and print it. Leave empty to skip.",
	},
	"dicom_path": {
		Title:       "DICOM EXPORT",
		Description: "DX record carrying the exposure parameters.",
		Details:     "KVP, tube current, exposure time and mAs are written as DICOM attributes. Leave empty to skip.",
	},
	"kvmas_constant": {
		Title:       "EQUIPMENT CONSTANT",
		Description: "Base kV for the modal calculator.",
		Details:     "Must be a number.",
	},
	"kvmas_distance": {
		Title:       "SOURCE DISTANCE",
		Description: "Source to image distance in centimeters.",
		Details:     "Distances beyond the protocol threshold raise kV.",
	},
	"kvmas_structure": {
		Title:       "STRUCTURE",
		Description: "Tissue class being imaged.",
		Details:     "Sets the modal tube current.",
	},
	"config_path": {
		Title:       "SELECTION FILE",
		Description: "YAML file to save this selection to.",
		Details:     "Reload it later with: radtech wizard --from FILE",
	},
}
