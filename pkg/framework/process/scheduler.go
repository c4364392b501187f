package process

import (
	"github.com/justyntemme/plugcore/pkg/framework/channel"
)

// RenderFunc renders samples [start, start+length) of the current block.
type RenderFunc func(start, length int)

// Scheduler splits a block into sample-accurate sub-ranges at each event
// offset and applies the events between them. It runs on the audio thread
// and does not allocate.
type Scheduler struct {
	ch    *channel.Channel
	notes NoteSink
	fault BlockError
}

// NewScheduler creates a scheduler applying parameter events to ch and
// forwarding note events to notes. notes may be nil for effects.
func NewScheduler(ch *channel.Channel, notes NoteSink) *Scheduler {
	return &Scheduler{ch: ch, notes: notes}
}

// Validate checks the host contract for one block in a single pass without
// sorting: offsets ascend, lie inside the block, and name known parameters.
func (s *Scheduler) Validate(blockLength int, events []Event) error {
	if blockLength < 0 {
		return s.reject(FaultBadBlockLength, -1, 0, blockLength)
	}
	prev := int32(0)
	for i := range events {
		ev := &events[i]
		switch {
		case ev.Offset < prev:
			return s.reject(FaultOutOfOrder, i, ev.Offset, blockLength)
		case int(ev.Offset) >= blockLength:
			return s.reject(FaultOffsetOutOfRange, i, ev.Offset, blockLength)
		}
		prev = ev.Offset

		switch ev.Kind {
		case ParamValue, ParamModulation:
			if !s.ch.Known(ev.ParamID) {
				return s.reject(FaultUnknownParam, i, ev.Offset, blockLength)
			}
		case NoteOn, NoteOff, Choke:
			if !ev.Note.ValidKey() {
				return s.reject(FaultBadNote, i, ev.Offset, blockLength)
			}
		case AllNotesOff, AllSoundOff:
		default:
			return s.reject(FaultUnknownKind, i, ev.Offset, blockLength)
		}
	}
	return nil
}

// ProcessBlock renders one block of blockLength samples. events must be
// sorted ascending by Offset. At every distinct offset the range since the
// previous boundary is rendered, then every event at that offset is applied
// in list order. The tail after the last event is rendered last.
//
// A malformed block is rejected before anything is applied or rendered; the
// returned *BlockError is reused by the next call.
func (s *Scheduler) ProcessBlock(blockLength int, events []Event, render RenderFunc) error {
	if len(events) == 0 {
		if blockLength < 0 {
			return s.reject(FaultBadBlockLength, -1, 0, blockLength)
		}
		if blockLength > 0 {
			render(0, blockLength)
		}
		return nil
	}
	if err := s.Validate(blockLength, events); err != nil {
		return err
	}

	cursor := 0
	for i := 0; i < len(events); {
		offset := int(events[i].Offset)
		render(cursor, offset-cursor)
		cursor = offset
		for i < len(events) && int(events[i].Offset) == offset {
			s.apply(&events[i])
			i++
		}
	}
	render(cursor, blockLength-cursor)
	return nil
}

func (s *Scheduler) apply(ev *Event) {
	switch ev.Kind {
	case ParamValue:
		_ = s.ch.Apply(channel.ChangeEvent{Kind: channel.SetValue, ParamID: ev.ParamID, Value: ev.Value, Offset: ev.Offset})
	case ParamModulation:
		_ = s.ch.Apply(channel.ChangeEvent{Kind: channel.SetModulationOffset, ParamID: ev.ParamID, Value: ev.Value, Offset: ev.Offset})
	default:
		if s.notes != nil {
			s.notes.HandleNote(*ev)
		}
	}
}

func (s *Scheduler) reject(reason FaultReason, index int, offset int32, blockLength int) error {
	s.fault = BlockError{Reason: reason, Index: index, Offset: offset, BlockLength: blockLength}
	return &s.fault
}
