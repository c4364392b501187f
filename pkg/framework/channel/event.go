package channel

import "fmt"

// ChangeKind identifies what a ChangeEvent does to its parameter.
type ChangeKind uint8

const (
	SetValue ChangeKind = iota
	SetModulationOffset
	GestureBegin
	GestureEnd
)

func (k ChangeKind) String() string {
	switch k {
	case SetValue:
		return "SetValue"
	case SetModulationOffset:
		return "SetModulationOffset"
	case GestureBegin:
		return "GestureBegin"
	case GestureEnd:
		return "GestureEnd"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}
}

// ChangeEvent travels from the control thread to the audio thread. Value is
// a normalized value for SetValue and an offset in [-1,1] for
// SetModulationOffset; gestures ignore it.
type ChangeEvent struct {
	Kind    ChangeKind
	ParamID uint32
	Value   float64
	Offset  int32
}

func (e ChangeEvent) String() string {
	return fmt.Sprintf("%s{param:%d, val:%.4f, offset:%d}", e.Kind, e.ParamID, e.Value, e.Offset)
}

// TelemetryKind identifies an audio->control notification.
type TelemetryKind uint8

const (
	// ValueApplied acknowledges a SetValue drained from the control queue.
	ValueApplied TelemetryKind = iota
	// GestureEnded acknowledges a GestureEnd.
	GestureEnded
	// Meter carries the block peak in Value.
	Meter
	// UnknownNote reports a note-off or choke nothing was mapped to; Code
	// holds the key.
	UnknownNote
	// VoiceStolen reports a steal; Code holds the slot index.
	VoiceStolen
	// BlockFault reports an aborted block; Code holds the fault reason.
	BlockFault
)

func (k TelemetryKind) String() string {
	switch k {
	case ValueApplied:
		return "ValueApplied"
	case GestureEnded:
		return "GestureEnded"
	case Meter:
		return "Meter"
	case UnknownNote:
		return "UnknownNote"
	case VoiceStolen:
		return "VoiceStolen"
	case BlockFault:
		return "BlockFault"
	default:
		return fmt.Sprintf("TelemetryKind(%d)", uint8(k))
	}
}

// Telemetry travels from the audio thread to the control thread. Losing one
// is acceptable.
type Telemetry struct {
	Kind    TelemetryKind
	ParamID uint32
	Value   float64
	Code    int32
}

func (t Telemetry) String() string {
	return fmt.Sprintf("%s{param:%d, val:%.4f, code:%d}", t.Kind, t.ParamID, t.Value, t.Code)
}
