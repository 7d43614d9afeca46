package resource

// Operations lists what a remote peer may do with a resource.
type Operations string

const (
	OpRead      Operations = "R"
	OpReadWrite Operations = "RW"
	OpExecute   Operations = "E"
)

// ResourceDefinition describes one resource of an object.
type ResourceDefinition struct {
	ID         uint16     `json:"id"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"type"`
	Operations Operations `json:"operations"`
}

// ObjectDefinition describes an object and the instances the gateway creates.
type ObjectDefinition struct {
	ID        uint16               `json:"id"`
	Name      string               `json:"name"`
	Instances []uint16             `json:"instances"`
	Resources []ResourceDefinition `json:"resources"`
}

// Definitions returns the objects registered at startup.
func Definitions() []ObjectDefinition {
	return []ObjectDefinition{
		{
			ID:        ObjectDoor,
			Name:      "GarageDoor",
			Instances: []uint16{InstanceOpen, InstanceClose, InstanceTrigger},
			Resources: []ResourceDefinition{
				{ID: ResourceTrigger, Name: "DoorTrigger", Kind: KindNone, Operations: OpExecute},
				{ID: ResourceDuration, Name: "DoorDuration", Kind: KindFloat, Operations: OpReadWrite},
				{ID: ResourceCounter, Name: "DoorCounter", Kind: KindInteger, Operations: OpReadWrite},
				{ID: ResourceCounterReset, Name: "DoorCounterReset", Kind: KindNone, Operations: OpExecute},
			},
		},
		{
			ID:        ObjectOpto,
			Name:      "OptoClick",
			Instances: []uint16{InstanceDoorOpened, InstanceDoorClosed},
			Resources: []ResourceDefinition{
				{ID: ResourceDigitalInput, Name: "DigitalInputState", Kind: KindBoolean, Operations: OpReadWrite},
			},
		},
	}
}

// ValuePaths returns every instance path of the object that holds a value.
// The trigger instance measures nothing, so it has no duration value.
func (d ObjectDefinition) ValuePaths() []Path {
	var paths []Path
	for _, inst := range d.Instances {
		for _, r := range d.Resources {
			if r.Operations == OpExecute {
				continue
			}
			if d.ID == ObjectDoor && inst == InstanceTrigger && r.ID == ResourceDuration {
				continue
			}
			paths = append(paths, Path{Object: d.ID, Instance: inst, Resource: r.ID})
		}
	}
	return paths
}

// ExecutePaths returns the execute resources the gateway subscribes to.
func ExecutePaths() []Path {
	return []Path{
		TriggerPath,
		{ObjectDoor, InstanceOpen, ResourceCounterReset},
		{ObjectDoor, InstanceClose, ResourceCounterReset},
		{ObjectDoor, InstanceTrigger, ResourceCounterReset},
	}
}
