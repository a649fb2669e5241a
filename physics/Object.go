package physics

import "fmt"

// ObjType is the category of a simulated object. Each category has its
// own index namespace in a Model.
type ObjType int

const (
	BodyObj ObjType = iota
	JointObj
	DofObj
	GeomObj
	CameraObj
	ActuatorObj
	PluginObj
)

func (o ObjType) String() string {
	switch o {
	case BodyObj:
		return "Body"
	case JointObj:
		return "Joint"
	case DofObj:
		return "Dof"
	case GeomObj:
		return "Geom"
	case CameraObj:
		return "Camera"
	case ActuatorObj:
		return "Actuator"
	case PluginObj:
		return "Plugin"
	default:
		return fmt.Sprintf("ObjType(%d)", int(o))
	}
}

// Obj is implemented by the zero-sized category markers below. A marker
// is only ever used as a type argument to ObjectID.
type Obj interface {
	ObjType() ObjType
}

// Category markers
type (
	Body     struct{}
	Joint    struct{}
	Dof      struct{}
	Geom     struct{}
	Camera   struct{}
	Actuator struct{}
	Plugin   struct{}
)

func (Body) ObjType() ObjType     { return BodyObj }
func (Joint) ObjType() ObjType    { return JointObj }
func (Dof) ObjType() ObjType      { return DofObj }
func (Geom) ObjType() ObjType     { return GeomObj }
func (Camera) ObjType() ObjType   { return CameraObj }
func (Actuator) ObjType() ObjType { return ActuatorObj }
func (Plugin) ObjType() ObjType   { return PluginObj }

// ObjectID is a handle to an object of category O in a Model. The
// category is part of the type, so an ObjectID[Joint] cannot be used
// where an ObjectID[Actuator] is expected.
//
// An ObjectID is only meaningful for the Model it was resolved from.
// ObjectIDs are plain values and can be copied and compared freely.
type ObjectID[O Obj] struct {
	index int
}

// NewObjectID returns an ObjectID with the given index without checking
// it against any Model. It is intended for decoding persisted handles;
// use ObjectIDOf to resolve handles by name.
func NewObjectID[O Obj](index int) ObjectID[O] {
	return ObjectID[O]{index}
}

// Index returns the index of the object in its category's namespace
func (o ObjectID[O]) Index() int {
	return o.index
}

// Type returns the category of the object
func (o ObjectID[O]) Type() ObjType {
	var obj O
	return obj.ObjType()
}

func (o ObjectID[O]) String() string {
	return fmt.Sprintf("%v(%d)", o.Type(), o.index)
}

// ObjectIDOf resolves the object of category O with the given name.
func ObjectIDOf[O Obj](p *Physics, name string) (ObjectID[O], error) {
	var obj O
	names := p.model.names[obj.ObjType()]
	for i, n := range names {
		if n == name && n != "" {
			return ObjectID[O]{i}, nil
		}
	}
	return ObjectID[O]{}, &NameNotFoundError{Type: obj.ObjType(), Name: name}
}

// NameOf returns the name of the object referred to by id, which is the
// empty string for unnamed objects.
func NameOf[O Obj](p *Physics, id ObjectID[O]) string {
	var obj O
	names := p.model.names[obj.ObjType()]
	if id.index < 0 || id.index >= len(names) {
		return ""
	}
	return names[id.index]
}

// Count returns the number of objects of category O in the model
func Count[O Obj](p *Physics) int {
	var obj O
	return p.model.count(obj.ObjType())
}
