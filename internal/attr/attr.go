// Package attr loads the experiment design matrix (one line per stimulus
// event) and re-bases event onsets onto the scanner timeline.
package attr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInput marks a missing or malformed design-matrix file.
var ErrInput = errors.New("attr: bad input")

// Header is the column order of the design-matrix file.
var Header = []string{
	"onset_time", "age", "sex", "handedness", "block", "visual",
	"face", "face_gender", "emotion", "gaze", "target", "response",
}

// Event is one row of the design matrix. Onset is in milliseconds;
// RawOnset keeps the value read from file so re-basing stays reproducible.
type Event struct {
	Onset      float64
	RawOnset   float64
	Age        string
	Sex        string
	Handedness string
	Block      string
	Visual     string
	Face       string
	FaceGender string
	Emotion    string
	Gaze       string
	Target     string
	Response   string
}

// Table is the ordered event list. Tables are treated as immutable:
// every transformation returns a new Table.
type Table struct {
	Events []Event
}

// Len returns the number of events.
func (t Table) Len() int { return len(t.Events) }

// Onsets returns the current onset of every event, in file order.
func (t Table) Onsets() []float64 {
	onsets := make([]float64, len(t.Events))
	for i, e := range t.Events {
		onsets[i] = e.Onset
	}
	return onsets
}

// Rebase returns a copy whose onsets are RawOnset - reference. Because it
// always starts from RawOnset, applying it repeatedly gives the same table.
func (t Table) Rebase(reference float64) Table {
	out := Table{Events: make([]Event, len(t.Events))}
	for i, e := range t.Events {
		e.Onset = e.RawOnset - reference
		out.Events[i] = e
	}
	return out
}

// Rebased re-bases onto the raw onset of the first event.
func (t Table) Rebased() Table {
	if len(t.Events) == 0 {
		return Table{}
	}
	return t.Rebase(t.Events[0].RawOnset)
}

// Shift subtracts by from the current onsets. Unlike Rebase it compounds:
// shifting an already shifted table moves it again.
func (t Table) Shift(by float64) Table {
	out := Table{Events: make([]Event, len(t.Events))}
	for i, e := range t.Events {
		e.Onset -= by
		out.Events[i] = e
	}
	return out
}

// Load reads a design-matrix file.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open %s: %v", ErrInput, path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads whitespace separated rows with the columns listed in Header.
// Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) (Table, error) {
	var t Table

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != len(Header) {
			return Table{}, fmt.Errorf("%w: line %d: expected %d columns, got %d", ErrInput, line, len(Header), len(fields))
		}

		onset, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Table{}, fmt.Errorf("%w: line %d: invalid onset_time %q", ErrInput, line, fields[0])
		}

		t.Events = append(t.Events, Event{
			Onset:      onset,
			RawOnset:   onset,
			Age:        fields[1],
			Sex:        fields[2],
			Handedness: fields[3],
			Block:      fields[4],
			Visual:     fields[5],
			Face:       fields[6],
			FaceGender: fields[7],
			Emotion:    fields[8],
			Gaze:       fields[9],
			Target:     fields[10],
			Response:   fields[11],
		})
	}
	if err := scanner.Err(); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInput, err)
	}

	if len(t.Events) == 0 {
		return Table{}, fmt.Errorf("%w: no events", ErrInput)
	}
	return t, nil
}
