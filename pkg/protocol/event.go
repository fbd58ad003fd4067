package protocol

// EventNotification is an event raised by the renderer and sent to the
// control layer.
//
// Params is a view into the encode buffer of the sending channel, not a copy:
// the encoded params occupy Params[Offset:Offset+Length] and stay valid only
// until that channel encodes again. Params is nil when the event carries no
// params.
type EventNotification struct {
	InstanceID int64
	NodeID     uint32
	Name       string
	Params     []byte
	Offset     int
	Length     int
	UseCapture bool
	UseBubble  bool
}

// Payload returns the encoded params, or nil.
func (n *EventNotification) Payload() []byte {
	if n.Params == nil || n.Length == 0 {
		return nil
	}
	return n.Params[n.Offset : n.Offset+n.Length]
}

// Flags returns the frame flags carrying UseCapture and UseBubble.
func (n *EventNotification) Flags() FrameFlags {
	var f FrameFlags
	if n.UseCapture {
		f |= FlagUseCapture
	}
	if n.UseBubble {
		f |= FlagUseBubble
	}
	return f
}

// EncodedLen returns the number of bytes EncodeEventNotificationTo writes
// for n.
func (n *EventNotification) EncodedLen() int {
	name := len(n.Name)
	params := len(n.Payload())
	return 8 + 4 + UvarintLen(uint64(name)) + name + UvarintLen(uint64(params)) + params
}

// EncodeEventNotificationTo writes n; the capture/bubble flags travel in the
// frame header.
func EncodeEventNotificationTo(e *Encoder, n *EventNotification) {
	e.WriteInt64(n.InstanceID)
	e.WriteUint32(n.NodeID)
	e.WriteString(n.Name)
	e.WriteLenBytes(n.Payload())
}

// DecodeEventNotification reads an event notification. The returned Params
// is a copy with Offset 0.
func DecodeEventNotification(data []byte, flags FrameFlags) (*EventNotification, error) {
	d := NewDecoder(data)
	n := &EventNotification{
		UseCapture: flags.Has(FlagUseCapture),
		UseBubble:  flags.Has(FlagUseBubble),
	}
	var err error
	if n.InstanceID, err = d.ReadInt64(); err != nil {
		return nil, err
	}
	if n.NodeID, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if n.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	params, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		n.Params = params
		n.Length = len(params)
	}
	return n, nil
}

// SizeChanged reports a resize of the host surface in logical units.
type SizeChanged struct {
	InstanceID int64
	Width      float32
	Height     float32
}

// EncodeSizeChangedTo writes a size-changed notification.
func EncodeSizeChangedTo(e *Encoder, s *SizeChanged) {
	e.WriteInt64(s.InstanceID)
	e.WriteFloat32(s.Width)
	e.WriteFloat32(s.Height)
}

// DecodeSizeChanged reads a size-changed notification.
func DecodeSizeChanged(data []byte) (*SizeChanged, error) {
	d := NewDecoder(data)
	var s SizeChanged
	var err error
	if s.InstanceID, err = d.ReadInt64(); err != nil {
		return nil, err
	}
	if s.Width, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	if s.Height, err = d.ReadFloat32(); err != nil {
		return nil, err
	}
	return &s, nil
}

// EncodeMeasureResult returns the 8-byte frame payload for a packed result.
func EncodeMeasureResult(packed int64) []byte {
	e := NewEncoderWithCap(8)
	e.WriteInt64(packed)
	return e.Bytes()
}

// DecodeMeasureResult reads a packed result from a frame payload.
func DecodeMeasureResult(data []byte) (int64, error) {
	return NewDecoder(data).ReadInt64()
}
