package anonymizer

import "github.com/suyashkumar/dicom/pkg/tag"

// Deidentifier is the value stamped into DeidentificationMethod (0012,0063).
const Deidentifier = "DICOM-ANONYMIZER"

// Clinical trials / de-identification attributes (group 0012). Spelled as
// literals because their presence varies across dictionary generations.
var (
	patientIdentityRemoved        = tag.Tag{Group: 0x0012, Element: 0x0062}
	deidentificationMethod        = tag.Tag{Group: 0x0012, Element: 0x0063}
	deidentificationMethodCodeSeq = tag.Tag{Group: 0x0012, Element: 0x0064}
)

// DefaultProfile returns a fresh copy of the built-in rule table for
// well-known identifying tags. The table is data, not code: it round-trips
// through the JSON config schema and can be overridden entry by entry.
func DefaultProfile() map[tag.Tag]Action {
	out := make(map[tag.Tag]Action, len(defaultProfile))
	for t, a := range defaultProfile {
		out[t] = a
	}
	return out
}

var defaultProfile = map[tag.Tag]Action{
	// SOP common
	tag.SpecificCharacterSet: NoAction(),
	tag.ImageType:            NoAction(),
	tag.InstanceCreationDate: HashDate(),
	tag.InstanceCreationTime: NoAction(),
	tag.InstanceCreatorUID:   HashUID(),
	tag.SOPClassUID:          NoAction(),
	tag.SOPInstanceUID:       HashUID(),

	// Dates and times
	tag.StudyDate:           HashDate(),
	tag.SeriesDate:          Remove(),
	tag.AcquisitionDate:     Remove(),
	tag.ContentDate:         HashDate(),
	tag.AcquisitionDateTime: Remove(),
	tag.StudyTime:           Empty(),
	tag.SeriesTime:          Remove(),
	tag.AcquisitionTime:     Remove(),
	tag.ContentTime:         Empty(),

	// Study identification
	tag.AccessionNumber: Hash(16),
	tag.StudyID:         Empty(),
	tag.Modality:        NoAction(),

	// Equipment and institution
	tag.Manufacturer:                Empty(),
	tag.ManufacturerModelName:       Remove(),
	tag.InstitutionName:             Remove(),
	tag.InstitutionAddress:          Remove(),
	tag.InstitutionalDepartmentName: Remove(),
	tag.StationName:                 Remove(),
	tag.DeviceSerialNumber:          Remove(),
	tag.ProtocolName:                Remove(),
	tag.SoftwareVersions:            Remove(),

	// Physicians and operators
	tag.ReferringPhysicianName:             Empty(),
	tag.ReferringPhysicianAddress:          Remove(),
	tag.ReferringPhysicianTelephoneNumbers: Remove(),
	tag.PerformingPhysicianName:            Remove(),
	tag.NameOfPhysiciansReadingStudy:       Remove(),
	tag.PhysiciansOfRecord:                 Remove(),
	tag.OperatorsName:                      Remove(),
	tag.RequestingPhysician:                Remove(),
	tag.ScheduledPerformingPhysicianName:   Remove(),

	// Descriptions kept for clinical context
	tag.StudyDescription:  NoAction(),
	tag.SeriesDescription: NoAction(),

	// Referenced objects
	tag.ReferencedStudySequence:                  Remove(),
	tag.ReferencedPerformedProcedureStepSequence: Remove(),
	tag.ReferencedPatientSequence:                Remove(),
	tag.ReferencedImageSequence:                  Remove(),
	tag.ReferencedSOPClassUID:                    NoAction(),
	tag.ReferencedSOPInstanceUID:                 HashUID(),
	tag.SourceImageSequence:                      Remove(),
	tag.DerivationDescription:                    Remove(),
	tag.AdmittingDiagnosesDescription:            Remove(),
	tag.ImageComments:                            Remove(),

	// Patient identification
	tag.PatientName:             Empty(),
	tag.PatientID:               Hash(16),
	tag.IssuerOfPatientID:       Remove(),
	tag.PatientBirthDate:        HashDate(),
	tag.PatientBirthTime:        Remove(),
	tag.PatientSex:              Empty(),
	tag.OtherPatientIDs:         Remove(),
	tag.OtherPatientNames:       Remove(),
	tag.OtherPatientIDsSequence: Remove(),
	tag.PatientBirthName:        Remove(),
	tag.PatientMotherBirthName:  Remove(),

	// Patient demographics and history
	tag.PatientAge:                 Remove(),
	tag.PatientSize:                Remove(),
	tag.PatientWeight:              Remove(),
	tag.PatientAddress:             Remove(),
	tag.PatientTelephoneNumbers:    Remove(),
	tag.MilitaryRank:               Remove(),
	tag.BranchOfService:            Remove(),
	tag.MedicalRecordLocator:       Remove(),
	tag.MedicalAlerts:              Remove(),
	tag.Allergies:                  Remove(),
	tag.CountryOfResidence:         Remove(),
	tag.RegionOfResidence:          Remove(),
	tag.EthnicGroup:                Remove(),
	tag.Occupation:                 Remove(),
	tag.SmokingStatus:              Remove(),
	tag.AdditionalPatientHistory:   Remove(),
	tag.PregnancyStatus:            Remove(),
	tag.LastMenstrualDate:          Remove(),
	tag.PatientReligiousPreference: Remove(),
	tag.ResponsiblePerson:          Remove(),
	tag.ResponsibleOrganization:    Remove(),
	tag.PatientComments:            Remove(),

	// Procedure identification
	tag.PerformedProcedureStepID:          Remove(),
	tag.PerformedProcedureStepStartDate:   Remove(),
	tag.PerformedProcedureStepStartTime:   Remove(),
	tag.PerformedProcedureStepDescription: Remove(),
	tag.ScheduledProcedureStepID:          Remove(),

	// Study/series/frame identity
	tag.StudyInstanceUID:    HashUID(),
	tag.SeriesInstanceUID:   HashUID(),
	tag.FrameOfReferenceUID: HashUID(),

	// De-identification bookkeeping
	patientIdentityRemoved:        Remove(),
	deidentificationMethod:        Replace(Deidentifier),
	deidentificationMethodCodeSeq: Remove(),
}
