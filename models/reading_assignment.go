package models

// ReadingAssignment is the pair of scripture references assigned to a date key,
// e.g. {OT: "Genesis 1-2", NT: "Matthew 1"}.
type ReadingAssignment struct {
	OT string `json:"OT" yaml:"OT"`
	NT string `json:"NT" yaml:"NT"`
}
