// Package render draws frames of the acrobot to images
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/physics"
	ts "github.com/samuelfneumann/gocontrol/timestep"
)

// Bodies of the acrobot scene whose frames sit on the shoulder and
// elbow joints
const (
	UpperArm = "upper_arm"
	LowerArm = "lower_arm"
)

var (
	skyColour      = color.RGBA{R: 250, G: 250, B: 245, A: 255}
	armColour      = color.RGBA{R: 51, G: 102, B: 204, A: 255}
	pendulumColour = color.RGBA{R: 204, G: 77, B: 51, A: 255}
	jointColour    = color.RGBA{R: 30, G: 30, B: 30, A: 255}
)

// Renderer draws side views of an acrobot. The shoulder is drawn at the
// centre of the image.
type Renderer struct {
	width, height int
	scale         float64

	upper physics.ObjectID[physics.Body]
	lower physics.ObjectID[physics.Body]
}

// New returns a new Renderer drawing width x height images of a
func New(a *acrobot.Acrobot, width, height int) (*Renderer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("new: image size must be positive "+
			"\n\thave(%v x %v)", width, height)
	}
	upper, err := physics.ObjectIDOf[physics.Body](a.Physics, UpperArm)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	lower, err := physics.ObjectIDOf[physics.Body](a.Physics, LowerArm)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &Renderer{
		width:  width,
		height: height,
		scale:  float64(min(width, height)) / 5,
		upper:  upper,
		lower:  lower,
	}, nil
}

// Scale returns the number of pixels per world unit
func (r *Renderer) Scale() float64 {
	return r.scale
}

// Links returns the world frame (x, z) positions of the shoulder,
// elbow and pendulum tip of a as of the last call to Forward or Step
func (r *Renderer) Links(a *acrobot.Acrobot) (shoulder, elbow, tip [2]float64) {
	s := a.BodyXpos(r.upper)
	e := a.BodyXpos(r.lower)
	shoulder = [2]float64{s[0], s[2]}
	elbow = [2]float64{e[0], e[2]}

	// The pendulum continues the arm, turned by the elbow angle about
	// the y axis
	theta := acrobot.Observe(a).Elbow.ToRad()
	dx, dz := elbow[0]-shoulder[0], elbow[1]-shoulder[1]
	sin, cos := math.Sincos(theta)
	tip = [2]float64{
		elbow[0] + dx*cos + dz*sin,
		elbow[1] - dx*sin + dz*cos,
	}
	return shoulder, elbow, tip
}

// toPixel converts world coordinates to pixel coordinates relative to
// the shoulder
func (r *Renderer) toPixel(origin, p [2]float64) (float64, float64) {
	x := float64(r.width)/2 + (p[0]-origin[0])*r.scale
	y := float64(r.height)/2 - (p[1]-origin[1])*r.scale
	return x, y
}

func (r *Renderer) draw(a *acrobot.Acrobot) *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(skyColour)
	dc.Clear()

	shoulder, elbow, tip := r.Links(a)
	sx, sy := r.toPixel(shoulder, shoulder)
	ex, ey := r.toPixel(shoulder, elbow)
	tx, ty := r.toPixel(shoulder, tip)

	width := math.Max(r.scale/10, 2)
	dc.SetLineCapRound()
	dc.SetLineWidth(width)

	dc.SetColor(armColour)
	dc.DrawLine(sx, sy, ex, ey)
	dc.Stroke()

	dc.SetColor(pendulumColour)
	dc.DrawLine(ex, ey, tx, ty)
	dc.Stroke()

	dc.SetColor(jointColour)
	dc.DrawCircle(sx, sy, width/2)
	dc.DrawCircle(ex, ey, width/2)
	dc.Fill()

	dc.DrawString(fmt.Sprintf("t = %.2f s", a.Time()), 8, 16)
	return dc
}

// Frame draws the current state of a
func (r *Renderer) Frame(a *acrobot.Acrobot) image.Image {
	return r.draw(a).Image()
}

// SavePNG draws the current state of a to a PNG file at path
func (r *Renderer) SavePNG(a *acrobot.Acrobot, path string) error {
	if err := r.draw(a).SavePNG(path); err != nil {
		return fmt.Errorf("savePNG: %w", err)
	}
	return nil
}

// Frames returns a callback which saves every timestep it is called
// with as dir/frame_<n>.png, numbering frames from 0 across episodes
func (r *Renderer) Frames(dir string) func(*acrobot.Acrobot,
	ts.TimeStep[acrobot.Observation]) error {
	n := 0
	return func(a *acrobot.Acrobot, _ ts.TimeStep[acrobot.Observation]) error {
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", n))
		n++
		return r.SavePNG(a, path)
	}
}
