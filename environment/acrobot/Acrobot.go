// Package acrobot implements a two link pendulum whose shoulder is
// actuated, together with a balance task which discretizes its state
// for tabular agents.
//
// The arm is the upper link, rotating about the shoulder joint. The
// pendulum is the lower link, rotating about the elbow joint. Angles
// of 0 denote a link pointing straight up.
package acrobot

import (
	_ "embed"
	"fmt"

	"github.com/samuelfneumann/gocontrol/environment"
	"github.com/samuelfneumann/gocontrol/physics"
)

//go:embed acrobot.xml
var sceneXML string

// Names of the objects the acrobot scene must declare
const (
	ShoulderJoint = "shoulder"
	ElbowJoint    = "elbow"
	Motor         = "shoulder"
)

// Acrobot is the simulated acrobot. It embeds the physics it drives
// and caches the handles of the joints and the actuator.
type Acrobot struct {
	*physics.Physics

	elbow    physics.ObjectID[physics.Joint]
	shoulder physics.ObjectID[physics.Joint]
	actuator physics.ObjectID[physics.Actuator]
}

// New returns a new Acrobot using the built in scene, simulated by
// engine e
func New(e physics.Engine) (*Acrobot, error) {
	p, err := physics.FromXMLString(sceneXML, e)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return wrap(p)
}

// FromXML returns a new Acrobot loaded from the scene at path. The
// scene must declare hinge joints named "shoulder" and "elbow" and an
// actuator named "shoulder".
func FromXML(path string, e physics.Engine) (*Acrobot, error) {
	p, err := physics.FromXML(path, e)
	if err != nil {
		return nil, fmt.Errorf("fromXML: %w", err)
	}
	return wrap(p)
}

func wrap(p *physics.Physics) (*Acrobot, error) {
	elbow, err := physics.ObjectIDOf[physics.Joint](p, ElbowJoint)
	if err != nil {
		return nil, err
	}
	shoulder, err := physics.ObjectIDOf[physics.Joint](p, ShoulderJoint)
	if err != nil {
		return nil, err
	}
	actuator, err := physics.ObjectIDOf[physics.Actuator](p, Motor)
	if err != nil {
		return nil, err
	}

	return &Acrobot{
		Physics:  p,
		elbow:    elbow,
		shoulder: shoulder,
		actuator: actuator,
	}, nil
}

// ElbowID returns the handle of the elbow joint
func (a *Acrobot) ElbowID() physics.ObjectID[physics.Joint] {
	return a.elbow
}

// ShoulderID returns the handle of the shoulder joint
func (a *Acrobot) ShoulderID() physics.ObjectID[physics.Joint] {
	return a.shoulder
}

// ActuatorID returns the handle of the shoulder motor
func (a *Acrobot) ActuatorID() physics.ObjectID[physics.Actuator] {
	return a.actuator
}

// Env is an episodic environment over the acrobot
type Env = environment.Environment[*Acrobot, Observation, Action]

// NewEnv returns a new environment running task on a
func NewEnv(a *Acrobot, task *BalanceTask) *Env {
	return environment.New[*Acrobot, Observation, Action](a, task, Observe)
}
