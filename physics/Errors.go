package physics

import "fmt"

// KindMismatchError is returned when joint state is accessed with a
// joint kind other than the one declared in the model.
type KindMismatchError struct {
	Joint    ObjectID[Joint]
	Expected JointKind
	Found    JointKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("joint %d: kind mismatch \n\twant(%v) \n\thave(%v)",
		e.Joint.Index(), e.Expected, e.Found)
}

// StatelessError is returned when an object has no storage for the
// requested state, e.g. an actuator without activation.
type StatelessError struct {
	Type  ObjType
	Index int
	What  string
}

func (e *StatelessError) Error() string {
	return fmt.Sprintf("%v %d has no %v", e.Type, e.Index, e.What)
}

// NotMocapError is returned when a mocap pose is written to a body that
// is not a mocap body.
type NotMocapError struct {
	Body ObjectID[Body]
}

func (e *NotMocapError) Error() string {
	return fmt.Sprintf("body %d is not a mocap body", e.Body.Index())
}

// NameNotFoundError is returned when no object of a category has the
// requested name.
type NameNotFoundError struct {
	Type ObjType
	Name string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("no %v named %q", e.Type, e.Name)
}

// EngineError wraps a failure reported by the scene compiler or the
// simulation engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %v: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
