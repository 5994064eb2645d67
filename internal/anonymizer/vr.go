package anonymizer

// Value representation categories. The engine never inspects binary payloads;
// it only needs to know whether a VR is string-formattable, a date, a UID or
// a sequence before applying an action.

var stringVRs = map[string]bool{
	"AE": true, "AS": true, "CS": true, "DA": true, "DS": true,
	"DT": true, "IS": true, "LO": true, "LT": true, "PN": true,
	"SH": true, "ST": true, "TM": true, "UC": true, "UI": true,
	"UR": true, "UT": true,
}

var binaryVRs = map[string]bool{
	"OB": true, "OD": true, "OF": true, "OL": true, "OW": true, "UN": true,
}

func isStringLike(vr string) bool {
	return stringVRs[vr]
}

// isDateVR covers plain dates and date-times; both carry a leading YYYYMMDD.
func isDateVR(vr string) bool {
	return vr == "DA" || vr == "DT"
}

func isUIDVR(vr string) bool {
	return vr == "UI"
}

func isSequenceVR(vr string) bool {
	return vr == "SQ"
}

func isBinaryVR(vr string) bool {
	return binaryVRs[vr]
}
