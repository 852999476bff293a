package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildReportPath returns <session>/q-<seq>/<yyyy-mm-dd>/report-<unix-ms>.parquet
// with the date taken in UTC.
func BuildReportPath(sessionID string, questionSeq int, at time.Time) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}
	if questionSeq < 1 {
		return "", fmt.Errorf("question sequence must be >= 1")
	}
	ts := at.UTC()
	return path.Join(
		sessionID,
		fmt.Sprintf("q-%d", questionSeq),
		fmt.Sprintf("%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("report-%d.parquet", ts.UnixMilli()),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
