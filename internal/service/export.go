package service

import (
	"strings"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// LeadsToCSV renders leads with a header row. Every value is wrapped in
// double quotes as is; embedded quotes are not escaped.
func LeadsToCSV(leads []model.ProfileInfo) string {
	if len(leads) == 0 {
		return ""
	}

	rows := make([]string, 0, len(leads)+1)
	rows = append(rows, strings.Join(leads[0].CSVHeader(), ","))
	for _, lead := range leads {
		values := lead.CSVValues()
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = `"` + v + `"`
		}
		rows = append(rows, strings.Join(quoted, ","))
	}
	return strings.Join(rows, "\n")
}
