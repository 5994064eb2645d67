package anonymizer

import (
	"fmt"
	"time"
)

const dicomDateLayout = "20060102"

// shiftDate moves the leading YYYYMMDD of value by shift days. Content after
// the date part (the time component of a DT value) is appended unchanged.
func shiftDate(value string, shift int) (string, error) {
	if len(value) < 8 {
		return "", fmt.Errorf("%w: %q is not a YYYYMMDD date", ErrInvalidDateValue, value)
	}
	datePart, remainder := value[:8], value[8:]
	parsed, err := time.Parse(dicomDateLayout, datePart)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a YYYYMMDD date", ErrInvalidDateValue, value)
	}
	return parsed.AddDate(0, 0, shift).Format(dicomDateLayout) + remainder, nil
}
