// Package resource describes the object/instance/resource tree the gateway
// exposes to remote management, and the typed values carried on it.
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Object, instance and resource ids of the garage door model.
const (
	ObjectDoor uint16 = 13201 // GarageDoor
	ObjectOpto uint16 = 3200  // OptoClick digital inputs

	InstanceOpen    uint16 = 0
	InstanceClose   uint16 = 1
	InstanceTrigger uint16 = 2

	InstanceDoorOpened uint16 = 0
	InstanceDoorClosed uint16 = 1

	ResourceCounter      uint16 = 5501
	ResourceCounterReset uint16 = 5505
	ResourceDuration     uint16 = 5521
	ResourceTrigger      uint16 = 5523
	ResourceDigitalInput uint16 = 5500
)

// Path addresses a single resource as an (object, instance, resource) triple.
type Path struct {
	Object   uint16
	Instance uint16
	Resource uint16
}

// TriggerPath is the execute resource that pulses the door relay.
var TriggerPath = Path{ObjectDoor, InstanceTrigger, ResourceTrigger}

// String renders the path as "/object/instance/resource".
func (p Path) String() string {
	return fmt.Sprintf("/%d/%d/%d", p.Object, p.Instance, p.Resource)
}

// ParsePath parses "/object/instance/resource". The leading slash is optional.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	if len(parts) != 3 {
		return Path{}, fmt.Errorf("resource path %q: want 3 segments, got %d", s, len(parts))
	}
	var ids [3]uint16
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return Path{}, fmt.Errorf("resource path %q: segment %d: %w", s, i, err)
		}
		ids[i] = uint16(n)
	}
	return Path{Object: ids[0], Instance: ids[1], Resource: ids[2]}, nil
}

// Kind is the data type of a resource value.
type Kind int

const (
	KindNone Kind = iota // execute-only resources carry no value
	KindInteger
	KindFloat
	KindBoolean
)

var kindNames = map[Kind]string{
	KindNone:    "none",
	KindInteger: "integer",
	KindFloat:   "float",
	KindBoolean: "boolean",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name in definition payloads.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %d", int(k))
	}
	return []byte(name), nil
}

// Value is a typed resource value. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
}

// Integer returns an integer value.
func Integer(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Boolean returns a boolean value.
func Boolean(v bool) Value { return Value{Kind: KindBoolean, Bool: v} }

// String renders the value in plain-text content format.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Update pairs a path with the value to publish there.
type Update struct {
	Path  Path
	Value Value
}
