// Package protocol defines the messages exchanged between the editor side,
// the session and the browser preview. Every message is a JSON object whose
// "type" field names it.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the value of a message's "type" field.
type Type string

// Messages exchanged between the editor and the preview.
const (
	TypeScrollTo        Type = "scrollTo"
	TypeRevealLine      Type = "revealLine"
	TypeUpdateContent   Type = "updateContent"
	TypeApplyFormat     Type = "applyFormat"
	TypeExportRequested Type = "exportRequested"
	TypeUndo            Type = "undo"
	TypeRedo            Type = "redo"
)

// Messages between the session and a browser-hosted preview.
const (
	TypeReady         Type = "ready"
	TypeGeometry      Type = "geometry"
	TypeScroll        Type = "scroll"
	TypePatch         Type = "patch"
	TypeScrollOffset  Type = "scrollOffset"
	TypeRestoreScroll Type = "restoreScroll"
	TypeNotice        Type = "notice"
)

var (
	ErrMissingType = errors.New("protocol: message has no type")
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrNotObject   = errors.New("protocol: message is not a JSON object")
)

// Message is implemented by every message struct.
type Message interface {
	MessageType() Type
}

var factories = map[Type]func() Message{
	TypeScrollTo:        func() Message { return &ScrollTo{} },
	TypeRevealLine:      func() Message { return &RevealLine{} },
	TypeUpdateContent:   func() Message { return &UpdateContent{} },
	TypeApplyFormat:     func() Message { return &ApplyFormat{} },
	TypeExportRequested: func() Message { return &ExportRequested{} },
	TypeUndo:            func() Message { return &Undo{} },
	TypeRedo:            func() Message { return &Redo{} },
	TypeReady:           func() Message { return &Ready{} },
	TypeGeometry:        func() Message { return &Geometry{} },
	TypeScroll:          func() Message { return &Scroll{} },
	TypePatch:           func() Message { return &Patch{} },
	TypeScrollOffset:    func() Message { return &ScrollOffset{} },
	TypeRestoreScroll:   func() Message { return &RestoreScroll{} },
	TypeNotice:          func() Message { return &Notice{} },
}

// Encode serializes msg with its type field first.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.MessageType(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, msg.MessageType())
	}

	typ, err := json.Marshal(msg.MessageType())
	if err != nil {
		return nil, fmt.Errorf("protocol: encode type: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(typ) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Decode parses one message. The concrete type is chosen by its type field.
//
//nolint:ireturn // the concrete type depends on the payload
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("protocol: decode: %w", err)
	}
	if envelope.Type == "" {
		return nil, ErrMissingType
	}

	factory, ok := factories[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}
	msg := factory()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", envelope.Type, err)
	}
	return msg, nil
}
