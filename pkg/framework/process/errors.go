package process

import (
	"errors"
	"fmt"
)

// ErrMalformedBlock is wrapped by every BlockError.
var ErrMalformedBlock = errors.New("process: malformed block")

// FaultReason says why a block was rejected.
type FaultReason uint8

const (
	FaultNone FaultReason = iota
	FaultBadBlockLength
	FaultOutOfOrder
	FaultOffsetOutOfRange
	FaultUnknownParam
	FaultUnknownKind
	FaultBadNote
)

func (r FaultReason) String() string {
	switch r {
	case FaultNone:
		return "none"
	case FaultBadBlockLength:
		return "bad block length"
	case FaultOutOfOrder:
		return "offsets not ascending"
	case FaultOffsetOutOfRange:
		return "offset outside block"
	case FaultUnknownParam:
		return "unknown parameter"
	case FaultUnknownKind:
		return "unknown event kind"
	case FaultBadNote:
		return "invalid note key"
	default:
		return fmt.Sprintf("FaultReason(%d)", uint8(r))
	}
}

// BlockError describes a rejected block. The scheduler reuses a single
// instance, so it is only valid until the next ProcessBlock call.
type BlockError struct {
	Reason      FaultReason
	Index       int
	Offset      int32
	BlockLength int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("process: malformed block: %s (event %d, offset %d, block length %d)",
		e.Reason, e.Index, e.Offset, e.BlockLength)
}

func (e *BlockError) Unwrap() error {
	return ErrMalformedBlock
}
