package model

import (
	"fmt"
	"strings"
)

// Stage is a deal's position in the sales pipeline.
type Stage string

// Pipeline stages in board order.
const (
	StageConnected     Stage = "connected"
	StageLocked        Stage = "locked"
	StageMeetingBooked Stage = "meeting booked"
	StageMeetingDone   Stage = "meeting done"
	StageNegotiation   Stage = "negotiation"
	StageClosed        Stage = "closed"
	StageLost          Stage = "lost"
)

var stages = []Stage{
	StageConnected,
	StageLocked,
	StageMeetingBooked,
	StageMeetingDone,
	StageNegotiation,
	StageClosed,
	StageLost,
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ParseStage is the single normalisation point for stage names.
// "Meeting_Booked", " meeting-booked " and "MEETING BOOKED" all parse to
// StageMeetingBooked.
func ParseStage(s string) (Stage, error) {
	n := normalize(s)
	for _, st := range stages {
		if string(st) == n {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Index returns the stage position on the board, or -1.
func (s Stage) Index() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) String() string { return string(s) }

// UnmarshalText parses through ParseStage so decoded values are canonical.
// Blank input decodes to the zero value, which WithDefaults fills in.
func (s *Stage) UnmarshalText(text []byte) error {
	if normalize(string(text)) == "" {
		*s = ""
		return nil
	}
	st, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ContactStatus is where a contact sits in the lead funnel.
type ContactStatus string

// Contact statuses.
const (
	StatusNew       ContactStatus = "new"
	StatusContacted ContactStatus = "contacted"
	StatusQualified ContactStatus = "qualified"
	StatusProposal  ContactStatus = "proposal"
	StatusClosed    ContactStatus = "closed"
	StatusLost      ContactStatus = "lost"
)

var statuses = []ContactStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposal,
	StatusClosed,
	StatusLost,
}

// Statuses returns every contact status in funnel order.
func Statuses() []ContactStatus {
	out := make([]ContactStatus, len(statuses))
	copy(out, statuses)
	return out
}

// ParseContactStatus normalises s the same way ParseStage does.
func ParseContactStatus(s string) (ContactStatus, error) {
	n := normalize(s)
	for _, st := range statuses {
		if string(st) == n {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s ContactStatus) String() string { return string(s) }

// UnmarshalText parses through ParseContactStatus; blank input stays zero.
func (s *ContactStatus) UnmarshalText(text []byte) error {
	if normalize(string(text)) == "" {
		*s = ""
		return nil
	}
	st, err := ParseContactStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// normalize lower-cases s and collapses runs of blanks, underscores and
// hyphens into one space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '\t' || r == '\n'
	})
	return strings.Join(fields, " ")
}
