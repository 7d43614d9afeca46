package resource

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathString(t *testing.T) {
	assert.Equal(t, "/13201/2/5523", TriggerPath.String())
	assert.Equal(t, "/3200/1/5500", Path{ObjectOpto, InstanceDoorClosed, ResourceDigitalInput}.String())
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/13201/0/5505")
	require.NoError(t, err)
	assert.Equal(t, Path{ObjectDoor, InstanceOpen, ResourceCounterReset}, p)

	p, err = ParsePath("3200/1/5500")
	require.NoError(t, err)
	assert.Equal(t, Path{ObjectOpto, InstanceDoorClosed, ResourceDigitalInput}, p)
}

func TestParsePathErrors(t *testing.T) {
	for _, s := range []string{"", "/13201", "/13201/0", "/13201/0/5505/exec", "/a/0/1", "/70000/0/1", "/1/-1/2"} {
		_, err := ParsePath(s)
		assert.Error(t, err, "ParsePath(%q)", s)
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "42", Integer(42).String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "0", Float(0).String())
	assert.Equal(t, "true", Boolean(true).String())
	assert.Equal(t, "false", Boolean(false).String())
	assert.Equal(t, "", Value{}.String())
}

func TestKindJSON(t *testing.T) {
	b, err := json.Marshal(ResourceDefinition{ID: 5521, Name: "DoorDuration", Kind: KindFloat, Operations: OpReadWrite})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5521,"name":"DoorDuration","type":"float","operations":"RW"}`, string(b))

	var def ResourceDefinition
	require.NoError(t, json.Unmarshal(b, &def))
	assert.Equal(t, KindFloat, def.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"string"}`), &def))
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)

	door := defs[0]
	assert.Equal(t, ObjectDoor, door.ID)
	assert.Equal(t, "GarageDoor", door.Name)
	// open and close: counter, duration; trigger: counter only
	assert.Len(t, door.ValuePaths(), 5)
	assert.Contains(t, door.ValuePaths(), Path{ObjectDoor, InstanceTrigger, ResourceCounter})
	assert.NotContains(t, door.ValuePaths(), Path{ObjectDoor, InstanceTrigger, ResourceDuration})
	assert.NotContains(t, door.ValuePaths(), TriggerPath)

	opto := defs[1]
	assert.Equal(t, ObjectOpto, opto.ID)
	assert.Equal(t, []Path{
		{ObjectOpto, InstanceDoorOpened, ResourceDigitalInput},
		{ObjectOpto, InstanceDoorClosed, ResourceDigitalInput},
	}, opto.ValuePaths())
}

func TestExecutePaths(t *testing.T) {
	paths := ExecutePaths()
	assert.Len(t, paths, 4)
	assert.Equal(t, TriggerPath, paths[0])
	for _, p := range paths[1:] {
		assert.Equal(t, ResourceCounterReset, p.Resource)
	}
}

type recordingPublisher struct {
	got []Update
	err error
}

func (r *recordingPublisher) Publish(path Path, value Value) error {
	r.got = append(r.got, Update{Path: path, Value: value})
	return r.err
}

func TestMultiPublishesToAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("sink down")}
	c := &recordingPublisher{}

	err := Multi{a, b, c}.Publish(TriggerPath, Integer(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")

	for _, p := range []*recordingPublisher{a, b, c} {
		assert.Len(t, p.got, 1)
	}
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(TriggerPath, Integer(1)))
}
