package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/radtech/internal/engine"
)

const (
	// DX Image Storage - For Presentation
	dxPresentationSOPClassUID = "1.2.840.10008.5.1.4.1.1.1.1"
	explicitVRLittleEndian    = "1.2.840.10008.1.2.1"
	implementationClassUID    = "2.25.302365125339548291829612094837514912711"
)

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// floatToDS converts a float64 to a DICOM Decimal String.
func floatToDS(f float64) string {
	return fmt.Sprintf("%.6g", f)
}

// intToIS converts an int to a DICOM Integer String.
func intToIS(i int) string {
	return fmt.Sprintf("%d", i)
}

// Dataset builds the DX object for the sheet. User tag overrides replace
// the generated values of the tags they name.
func Dataset(s *TechniqueSheet) dicom.Dataset {
	sopInstanceUID := NewUID()
	date := s.GeneratedAt.Format("20060102")
	clock := s.GeneratedAt.Format("150405")
	res := s.Result

	grid := "NONE"
	if s.Grid() {
		grid = "FOCUSED"
	}
	bodyPart := s.BodyPart
	if bodyPart == "" {
		bodyPart = strings.ToUpper(string(s.Selection.Region))
	}

	comments := fmt.Sprintf("kV %s, mA %s, mAs %s, time %s s, %s",
		s.Display.KV, s.Display.MA, s.Display.MAs, s.Display.Time, s.Display.Equipment)
	if res.ThicknessCM > 0 {
		comments += fmt.Sprintf(", thickness %.0f cm", res.ThicknessCM)
	}

	tags := s.Tags
	elements := []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{dxPresentationSOPClassUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}),
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.ImplementationClassUID, []string{implementationClassUID}),

		mustNewElement(tag.SOPClassUID, []string{dxPresentationSOPClassUID}),
		mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
		mustNewElement(tag.StudyDate, []string{date}),
		mustNewElement(tag.StudyTime, []string{clock}),
		mustNewElement(tag.AccessionNumber, []string{tags.value("AccessionNumber", "")}),
		mustNewElement(tag.RequestedProcedurePriority, []string{tags.value("RequestedProcedurePriority", "")}),
		mustNewElement(tag.Modality, []string{"DX"}),
		mustNewElement(tag.Manufacturer, []string{tags.value("Manufacturer", "radtech")}),
		mustNewElement(tag.InstitutionName, []string{tags.value("InstitutionName", "")}),
		mustNewElement(tag.ReferringPhysicianName, []string{tags.value("ReferringPhysicianName", "")}),
		mustNewElement(tag.StationName, []string{tags.value("StationName", "")}),
		mustNewElement(tag.StudyDescription, []string{tags.value("StudyDescription", "Exposure technique")}),
		mustNewElement(tag.SeriesDescription, []string{tags.value("SeriesDescription", s.RegionLabel)}),
		mustNewElement(tag.OperatorsName, []string{tags.value("OperatorsName", "")}),
		mustNewElement(tag.ManufacturerModelName, []string{tags.value("ManufacturerModelName", "radtech technique sheet")}),

		mustNewElement(tag.PatientName, []string{tags.value("PatientName", "")}),
		mustNewElement(tag.PatientID, []string{tags.value("PatientID", "")}),
		mustNewElement(tag.PatientBirthDate, []string{tags.value("PatientBirthDate", "")}),
		mustNewElement(tag.PatientSex, []string{tags.value("PatientSex", "")}),

		mustNewElement(tag.BodyPartExamined, []string{tags.value("BodyPartExamined", bodyPart)}),
		mustNewElement(tag.KVP, []string{floatToDS(res.KV)}),
		mustNewElement(tag.DistanceSourceToDetector, []string{floatToDS(s.SIDCM * 10)}),
		mustNewElement(tag.ExposureTime, []string{intToIS(res.ExposureTimeMS())}),
		mustNewElement(tag.XRayTubeCurrent, []string{intToIS(int(res.MA + 0.5))}),
		mustNewElement(tag.Exposure, []string{intToIS(int(res.MAs + 0.5))}),
		mustNewElement(tag.ExposureInuAs, []string{intToIS(int(engine.Round(res.MAs*1000, 0)))}),
		mustNewElement(tag.ProtocolName, []string{tags.value("ProtocolName", s.ProtocolName)}),
		mustNewElement(tag.Grid, []string{grid}),
		mustNewElement(tag.ViewPosition, []string{tags.value("ViewPosition", s.ViewPosition)}),

		mustNewElement(tag.StudyInstanceUID, []string{NewUID()}),
		mustNewElement(tag.SeriesInstanceUID, []string{NewUID()}),
		mustNewElement(tag.StudyID, []string{"1"}),
		mustNewElement(tag.SeriesNumber, []string{"1"}),
		mustNewElement(tag.InstanceNumber, []string{"1"}),
		mustNewElement(tag.ImageComments, []string{tags.value("ImageComments", comments)}),

		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.Rows, []int{cardHeight}),
		mustNewElement(tag.Columns, []int{cardWidth}),
		mustNewElement(tag.BitsAllocated, []int{8}),
		mustNewElement(tag.BitsStored, []int{8}),
		mustNewElement(tag.HighBit, []int{7}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
	}

	nativeFrame := renderCard(cardWidth, cardHeight, cardLines(s))
	elements = append(elements, mustNewElement(tag.PixelData, dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}))

	sort.SliceStable(elements, func(i, j int) bool {
		if elements[i].Tag.Group != elements[j].Tag.Group {
			return elements[i].Tag.Group < elements[j].Tag.Group
		}
		return elements[i].Tag.Element < elements[j].Tag.Element
	})
	return dicom.Dataset{Elements: elements}
}

func cardLines(s *TechniqueSheet) []string {
	lines := []string{
		s.RegionLabel,
		s.PatientLine(),
		"",
		"kV   " + s.Display.KV,
		"mA   " + s.Display.MA,
		"mAs  " + s.Display.MAs,
		"t    " + s.Display.Time + " s",
		"",
		s.Display.Equipment,
	}
	if s.Result.ThicknessCM > 0 {
		lines = append(lines, fmt.Sprintf("%.0f cm", s.Result.ThicknessCM))
	}
	return lines
}

// EncodeDICOM writes the DX object for the sheet to w.
func EncodeDICOM(w io.Writer, s *TechniqueSheet) error {
	if err := dicom.Write(w, Dataset(s)); err != nil {
		return fmt.Errorf("write dicom: %w", err)
	}
	return nil
}

// WriteDICOM writes the DX object for the sheet to a file.
func WriteDICOM(path string, s *TechniqueSheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return EncodeDICOM(f, s)
}
