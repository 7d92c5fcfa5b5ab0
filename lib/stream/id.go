package stream

import (
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Resolved IDs
// --------------------------------------------------------------------------

// ID identifies one entry of a stream.
type ID struct {
	Ms  uint64
	Seq uint64
}

var (
	// MinID is the smallest possible ID, used for the "-" range bound.
	MinID = ID{}
	// MaxID is the largest possible ID, used for the "+" range bound.
	MaxID = ID{Ms: math.MaxUint64, Seq: math.MaxUint64}
)

// Compare returns -1, 0 or 1 if id is smaller, equal or greater than other.
func (id ID) Compare(other ID) int {
	switch {
	case id.Ms < other.Ms:
		return -1
	case id.Ms > other.Ms:
		return 1
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

// Less reports whether id sorts before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// IsZero reports whether id is 0-0.
func (id ID) IsZero() bool {
	return id.Ms == 0 && id.Seq == 0
}

// String formats the id as "<ms>-<seq>".
func (id ID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// ParseID parses a fully explicit "<ms>-<seq>" id.
func ParseID(s string) (ID, error) {
	msPart, seqPart, ok := strings.Cut(s, "-")
	if !ok {
		return ID{}, errMalformed
	}
	ms, err := parseComponent(msPart)
	if err != nil {
		return ID{}, err
	}
	seq, err := parseComponent(seqPart)
	if err != nil {
		return ID{}, err
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// ParseRangeBound parses an XRANGE bound. "-" and "+" are the smallest and
// largest ids. A bare timestamp means the first id of that millisecond for a
// start bound and the last one for an end bound.
func ParseRangeBound(s string, isEnd bool) (ID, error) {
	switch s {
	case "-":
		return MinID, nil
	case "+":
		return MaxID, nil
	}
	if !strings.Contains(s, "-") {
		ms, err := parseComponent(s)
		if err != nil {
			return ID{}, err
		}
		if isEnd {
			return ID{Ms: ms, Seq: math.MaxUint64}, nil
		}
		return ID{Ms: ms}, nil
	}
	return ParseID(s)
}

func parseComponent(s string) (uint64, error) {
	if s == "" || s[0] == '+' {
		return 0, errMalformed
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errMalformed
	}
	return v, nil
}

// --------------------------------------------------------------------------
// ID specs as sent to XADD
// --------------------------------------------------------------------------

// Spec is an id as requested by a client. AutoMs and AutoSeq mark the
// components that are assigned by the stream.
type Spec struct {
	Ms      uint64
	Seq     uint64
	AutoMs  bool
	AutoSeq bool
}

// ParseSpec parses the id argument of XADD. Accepted forms are "*",
// "<ms>-*", "*-<seq>", "<ms>-<seq>" and "<ms>" (sequence assigned).
func ParseSpec(s string) (Spec, error) {
	if s == "*" {
		return Spec{AutoMs: true, AutoSeq: true}, nil
	}
	msPart, seqPart, hasSeq := strings.Cut(s, "-")

	var spec Spec
	if msPart == "*" {
		spec.AutoMs = true
	} else {
		ms, err := parseComponent(msPart)
		if err != nil {
			return Spec{}, err
		}
		spec.Ms = ms
	}

	switch {
	case !hasSeq:
		if spec.AutoMs {
			return Spec{}, errMalformed
		}
		spec.AutoSeq = true
	case seqPart == "*":
		if spec.AutoMs {
			return Spec{}, errMalformed
		}
		spec.AutoSeq = true
	default:
		seq, err := parseComponent(seqPart)
		if err != nil {
			return Spec{}, err
		}
		spec.Seq = seq
	}
	return spec, nil
}

// String formats the spec the way a client would send it.
func (s Spec) String() string {
	if s.AutoMs && s.AutoSeq {
		return "*"
	}
	ms, seq := "*", "*"
	if !s.AutoMs {
		ms = strconv.FormatUint(s.Ms, 10)
	}
	if !s.AutoSeq {
		seq = strconv.FormatUint(s.Seq, 10)
	}
	return ms + "-" + seq
}

// resolve turns the spec into a concrete id for a stream whose top item is
// last (hasLast is false for an empty stream). nowMs is the current time.
//
// The returned id is validated: 0-0 and ids not greater than last are rejected.
func (s Spec) resolve(last ID, hasLast bool, nowMs uint64) (ID, error) {
	var id ID

	switch {
	case s.AutoMs && s.AutoSeq:
		id.Ms = nowMs
		if hasLast && last.Ms >= nowMs {
			// clock went backwards or several appends share one millisecond
			id.Ms = last.Ms
			if last.Seq == math.MaxUint64 {
				if last.Ms == math.MaxUint64 {
					return ID{}, errNotGreater
				}
				id.Ms++
			} else {
				id.Seq = last.Seq + 1
			}
		}
		if id.IsZero() {
			id.Seq = 1
		}
		return id, nil

	case s.AutoSeq:
		id.Ms = s.Ms
		switch {
		case !hasLast || s.Ms > last.Ms:
			if s.Ms == 0 {
				id.Seq = 1
			}
		case s.Ms == last.Ms:
			if last.Seq == math.MaxUint64 {
				return ID{}, errNotGreater
			}
			id.Seq = last.Seq + 1
		default:
			return ID{}, errNotGreater
		}
		return id, nil

	case s.AutoMs:
		id = ID{Ms: nowMs, Seq: s.Seq}

	default:
		id = ID{Ms: s.Ms, Seq: s.Seq}
	}

	if id.IsZero() {
		return ID{}, errIDZero
	}
	if hasLast && !last.Less(id) {
		return ID{}, errNotGreater
	}
	return id, nil
}
