package models

import "time"

// RawComplaint is a complaint record as it arrives from the source, every
// field still a string. CSV tags match the bulk snapshot headers, JSON tags
// match the Open API "_source" object.
type RawComplaint struct {
	ComplaintID       string `csv:"Complaint ID" json:"complaint_id"`
	DateReceived      string `csv:"Date received" json:"date_received"`
	Product           string `csv:"Product" json:"product"`
	SubProduct        string `csv:"Sub-product" json:"sub_product"`
	Issue             string `csv:"Issue" json:"issue"`
	SubIssue          string `csv:"Sub-issue" json:"sub_issue"`
	Company           string `csv:"Company" json:"company"`
	State             string `csv:"State" json:"state"`
	ZipCode           string `csv:"ZIP code" json:"zip_code"`
	ConsumerConsent   string `csv:"Consumer consent provided?" json:"consumer_consent_provided"`
	SubmittedVia      string `csv:"Submitted via" json:"submitted_via"`
	DateSentToCompany string `csv:"Date sent to company" json:"date_sent_to_company"`
	CompanyResponse   string `csv:"Company response to consumer" json:"company_response"`
	TimelyResponse    string `csv:"Timely response?" json:"timely"`
	Disputed          string `csv:"Consumer disputed?" json:"consumer_disputed"`
}

// Complaint is the typed record loaded into the warehouse. CSV tags define
// the staging file header and must stay in sync with the warehouse DDL.
type Complaint struct {
	ComplaintID       int64  `csv:"complaint_id"`
	DateReceived      Date   `csv:"date_received"`
	Product           string `csv:"product"`
	SubProduct        string `csv:"sub_product"`
	Issue             string `csv:"issue"`
	SubIssue          string `csv:"sub_issue"`
	Company           string `csv:"company"`
	State             string `csv:"state"`
	ZipCode           string `csv:"zip"`
	ConsumerConsent   bool   `csv:"consumer_consent"`
	SubmittedVia      string `csv:"submitted_via"`
	DateSentToCompany Date   `csv:"date_sent_to_company"`
	CompanyResponse   string `csv:"company_response"`
	TimelyResponse    bool   `csv:"timely_response"`
	Disputed          bool   `csv:"disputed"`
}

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalCSV renders the date as YYYY-MM-DD; zero dates become an empty
// field so the warehouse loads them as NULL.
func (d Date) MarshalCSV() ([]byte, error) {
	if d.IsZero() {
		return nil, nil
	}
	return []byte(d.Format("2006-01-02")), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
