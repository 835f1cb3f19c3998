package ecg

import (
	"bytes"
	"strconv"
	"strings"
)

// leadOffSentinel is printed by the sampler firmware in place of an ADC reading
// whenever an electrode has lost contact.
const leadOffSentinel = -1

// SampleEvent is one parsed line from the sampler: either an amplitude reading
// in the 12-bit ADC domain, or the lead-off sentinel carrying no amplitude.
type SampleEvent struct {
	Value   int
	LeadOff bool
}

// ParseFrame turns a raw chunk of transport bytes into sample events. The wire
// format is newline-delimited ASCII, one signed integer per line; -1 marks lead
// off and any other integer is a reading. Lines that are empty after trimming or
// fail integer parsing are dropped without notice, so firmware banners and
// corrupted bytes never abort ingestion.
//
// No partial-line state is kept across chunks: a line split across two reads
// parses as two fragments and both are dropped. At 250 Hz the occasional lost
// sample is invisible downstream.
func ParseFrame(chunk []byte) []SampleEvent {
	if len(chunk) == 0 {
		return nil
	}

	lines := bytes.Split(chunk, []byte{'\n'})
	events := make([]SampleEvent, 0, len(lines))

	for _, line := range lines {
		token := strings.TrimSpace(string(line))
		if token == "" {
			continue
		}

		value, err := strconv.Atoi(token)
		if err != nil {
			continue
		}

		if value == leadOffSentinel {
			events = append(events, SampleEvent{LeadOff: true})
			continue
		}
		events = append(events, SampleEvent{Value: value})
	}

	return events
}
