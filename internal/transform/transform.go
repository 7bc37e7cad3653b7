package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acronymdata/complaints-etl/internal/models"
)

// SchemaError reports that the source data no longer carries the columns the
// pipeline expects. It signals an upstream format change, not bad rows.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source schema missing expected columns: %s", strings.Join(e.Missing, ", "))
}

// RequiredColumns are the bulk snapshot headers the pipeline cannot run
// without. The remaining columns degrade to empty values per row.
var RequiredColumns = []string{
	"Complaint ID",
	"Date received",
	"Product",
	"Company",
}

// CheckHeader validates the bulk snapshot header against RequiredColumns.
func CheckHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Result holds the typed dataset along with the number of rows that failed
// required-field validation and were excluded.
type Result struct {
	Complaints []models.Complaint
	Dropped    int
}

// Apply converts raw string records into typed complaints. Rows whose
// complaint ID or received date cannot be parsed are dropped, never coerced
// to zero values that would corrupt the warehouse types.
func Apply(raws []models.RawComplaint) Result {
	res := Result{Complaints: make([]models.Complaint, 0, len(raws))}

	for _, raw := range raws {
		id, err := strconv.ParseInt(strings.TrimSpace(raw.ComplaintID), 10, 64)
		if err != nil {
			res.Dropped++
			continue
		}

		received, err := parseDate(raw.DateReceived)
		if err != nil {
			res.Dropped++
			continue
		}

		// Optional date; a blank or malformed value loads as NULL.
		sent, _ := parseDate(raw.DateSentToCompany)

		res.Complaints = append(res.Complaints, models.Complaint{
			ComplaintID:       id,
			DateReceived:      received,
			Product:           raw.Product,
			SubProduct:        raw.SubProduct,
			Issue:             raw.Issue,
			SubIssue:          raw.SubIssue,
			Company:           raw.Company,
			State:             raw.State,
			ZipCode:           raw.ZipCode,
			ConsumerConsent:   parseBool(raw.ConsumerConsent),
			SubmittedVia:      raw.SubmittedVia,
			DateSentToCompany: sent,
			CompanyResponse:   raw.CompanyResponse,
			TimelyResponse:    parseBool(raw.TimelyResponse),
			Disputed:          parseBool(raw.Disputed),
		})
	}

	return res
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

func parseDate(s string) (models.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NewDate(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// parseBool maps the CFPB's yes/no style answers onto booleans. Anything
// unrecognized (including blank) is false, matching the source defaults.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "consent provided":
		return true
	}
	return false
}
