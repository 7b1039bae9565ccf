// Package readingplan holds compiled-in reading plans.
package readingplan

import (
	"fmt"

	"github.com/coreybb/readings/models"
)

// Plan2021 is the hand-maintained table from spring 2021, keyed by ISO date.
var Plan2021 = map[string]models.ReadingAssignment{
	"2021-02-23": {OT: "Numbers 8-10", NT: "Mark 5:1-20"},
	"2021-02-24": {OT: "Numbers 11-13", NT: "Mark 5:21-43"},
	"2021-02-25": {OT: "Numbers 14-15", NT: "Mark 6:1-32"},
	"2021-02-26": {OT: "Numbers 16-17", NT: "Mark 6:33-56"},
	"2021-02-27": {OT: "Numbers 18-20", NT: "Mark 7:1-13"},
	"2021-02-28": {OT: "Numbers 21-23", NT: "Mark 7:14-37"},
	"2021-03-01": {OT: "Numbers 24-27", NT: "Mark 8"},
	"2021-03-02": {OT: "Numbers 28-29", NT: "Mark 9:1-29"},
	"2021-03-03": {OT: "Numbers 30-31", NT: "Mark 9:30-50"},
	"2021-03-04": {OT: "Numbers 32-33", NT: "Mark 10:1-31"},
	"2021-03-05": {OT: "Numbers 34-36", NT: "Mark 10:32-52"},
}

// Builtin returns a compiled-in plan by name.
func Builtin(name string) (map[string]models.ReadingAssignment, error) {
	switch name {
	case "2021":
		return Plan2021, nil
	default:
		return nil, fmt.Errorf("no builtin reading plan named %q", name)
	}
}
