package physics

import (
	"fmt"
	"math"
)

// ChainLink is a single body of a planar serial chain
type ChainLink struct {
	Body    int
	Joint   int
	QposAdr int
	DofAdr  int
	Sign    float64 // +1 if the hinge rotates about +y, -1 about -y
	Length  float64 // offset of the next link's frame along this link
	COM     float64 // offset of the centre of mass along this link
	Mass    float64
	Inertia float64 // about the centre of mass
	Damping float64
	Width   float64 // half width of the link geometry
}

// Chain describes a model whose jointed bodies form a single planar
// chain of hinges rotating about the world y axis
type Chain struct {
	// Base is the world position of the first link's frame
	Base  [3]float64
	Links []ChainLink
}

// PlanarChain extracts the planar serial chain of m. Every jointed body
// must hold exactly one hinge joint with its axis along ±y, each body
// must be the child of the previous one, and each child must be offset
// along its parent's z axis. Jointless bodies are only allowed as mocap
// bodies.
func PlanarChain(m *Model) (Chain, error) {
	var c Chain
	parent := 0
	for b := 1; b < m.Nbody; b++ {
		if m.BodyJntNum[b] == 0 {
			if m.BodyMocapID[b] >= 0 {
				continue
			}
			return Chain{}, fmt.Errorf("planarChain: body %v has no joint", b)
		}
		if m.BodyJntNum[b] != 1 {
			return Chain{}, fmt.Errorf("planarChain: body %v has %v joints "+
				"\n\twant(1)", b, m.BodyJntNum[b])
		}
		if m.BodyParentID[b] != parent {
			return Chain{}, fmt.Errorf("planarChain: body %v is not a child "+
				"of body %v, only serial chains are supported", b, parent)
		}

		j := m.BodyJntAdr[b]
		if m.JntType[j] != Hinge {
			return Chain{}, fmt.Errorf("planarChain: joint %v must be %v "+
				"\n\thave(%v)", j, Hinge, m.JntType[j])
		}
		axis := m.JntAxis[j]
		if math.Abs(axis[0]) > 1e-9 || math.Abs(axis[2]) > 1e-9 {
			return Chain{}, fmt.Errorf("planarChain: joint %v must rotate "+
				"about the y axis \n\thave(%v)", j, axis)
		}
		if m.BodyMass[b] <= 0 {
			return Chain{}, fmt.Errorf("planarChain: body %v must have "+
				"positive mass", b)
		}

		if parent == 0 {
			c.Base = m.BodyPos[b]
		} else {
			pos := m.BodyPos[b]
			if math.Abs(pos[0]) > 1e-9 {
				return Chain{}, fmt.Errorf("planarChain: body %v must be "+
					"offset along the z axis of its parent", b)
			}
			c.Links[len(c.Links)-1].Length = pos[2]
		}

		width := 0.0
		for g := 0; g < m.Ngeom; g++ {
			if m.GeomBodyID[g] == b {
				width = math.Max(width, m.GeomSize[g])
			}
		}

		c.Links = append(c.Links, ChainLink{
			Body:    b,
			Joint:   j,
			QposAdr: m.JntQposAdr[j],
			DofAdr:  m.JntDofAdr[j],
			Sign:    math.Copysign(1, axis[1]),
			Length:  m.BodyLength[b],
			COM:     m.BodyCOM[b],
			Mass:    m.BodyMass[b],
			Inertia: m.BodyInertia[b],
			Damping: m.JntDamping[j],
			Width:   width,
		})
		parent = b
	}

	if len(c.Links) == 0 {
		return Chain{}, fmt.Errorf("planarChain: model has no jointed bodies")
	}
	return c, nil
}

// AbsoluteAngles returns the angle of each link of c from the world z
// axis, given the joint coordinates q of the links
func (c Chain) AbsoluteAngles(q []float64) []float64 {
	phi := make([]float64, len(q))
	var sum float64
	for i, l := range c.Links {
		sum += l.Sign * q[i]
		phi[i] = sum
	}
	return phi
}
