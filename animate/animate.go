// Package animate drives the per-frame scene changes for a rendered
// sequence: either orbiting the camera around its target or spinning an
// object about a local axis, both eased through a critically-damped
// spring rather than a raw linear step, matching the smoothing idiom the
// retrieved harmonica-based driver uses for its own rotation state.
package animate

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"

	"github.com/cogentraster/raster3d/config"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// Kind selects which part of the scene an animation step moves.
type Kind int

const (
	None Kind = iota
	CameraOrbit
	ObjectLocalRotation
)

// ParseKind maps a RenderSettings animation_type string onto a Kind,
// defaulting to None for an empty or unrecognized value.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "cameraorbit":
		return CameraOrbit
	case "objectlocalrotation":
		return ObjectLocalRotation
	default:
		return None
	}
}

// Driver advances a [scene.Scene] by one animation step per call to
// [Driver.Step], spring-easing the angular velocity toward a constant
// target rate the way [config.AnimationSettings.RotationSpeed] requests,
// so the first few frames ramp up rather than starting at full speed.
type Driver struct {
	kind Kind
	axis math32.Vector3
	obj  *scene.SceneObject

	// targetRate is the steady-state angular speed in radians/frame.
	// harmonica's Spring operates in float64; the result is narrowed to
	// float32 only where it crosses into math32/scene types.
	targetRate float64

	// velocity is the current eased angular speed; accel is harmonica's
	// internal spring state for driving velocity toward targetRate.
	velocity, accel float64
	spring          harmonica.Spring

	// angle accumulates total rotation for ObjectLocalRotation, since
	// SceneObject.Pose stores an absolute quaternion, not a delta.
	angle float32
}

// New builds a Driver from the decoded animation settings, targeting obj
// for ObjectLocalRotation (ignored for CameraOrbit). fps is used both to
// derive harmonica's per-step interval and to convert rotation_speed
// (degrees/second) into radians/frame.
func New(as config.AnimationSettings, obj *scene.SceneObject) (*Driver, error) {
	kind := ParseKind(as.AnimationType)
	if kind == None {
		return &Driver{kind: None}, nil
	}
	fps := as.FPS
	if fps <= 0 {
		fps = 30
	}

	axis, err := rotationAxis(as)
	if err != nil {
		return nil, err
	}

	degPerFrame := as.RotationSpeed / float64(fps)
	d := &Driver{
		kind:       kind,
		axis:       axis,
		obj:        obj,
		targetRate: degPerFrame * float64(math32.DegToRadFactor),
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
	return d, nil
}

func rotationAxis(as config.AnimationSettings) (math32.Vector3, error) {
	switch strings.ToLower(as.RotationAxis) {
	case "", "y":
		return math32.Vec3(0, 1, 0), nil
	case "x":
		return math32.Vec3(1, 0, 0), nil
	case "z":
		return math32.Vec3(0, 0, 1), nil
	case "custom":
		v := as.CustomRotationAxis
		axis := math32.Vec3(float32(v[0]), float32(v[1]), float32(v[2]))
		if axis.IsNil() {
			return math32.Vector3{}, fmt.Errorf("animate: rotation_axis=Custom requires a nonzero custom_rotation_axis")
		}
		return axis.Normal(), nil
	default:
		return math32.Vector3{}, fmt.Errorf("animate: unknown rotation_axis %q", as.RotationAxis)
	}
}

// Kind reports which part of the scene this driver moves, so a caller can
// tell the engine's background cache exactly which tier to invalidate
// (SPEC_FULL.md §4.4's invalidation API) instead of leaving it to rediscover
// the change via a content-hash comparison. A nil Driver reports None.
func (d *Driver) Kind() Kind {
	if d == nil {
		return None
	}
	return d.kind
}

// Step advances the animation by one frame, mutating sc's camera or
// object pose in place. A None driver is a no-op, so callers can
// construct and Step unconditionally.
func (d *Driver) Step(sc *scene.Scene) {
	if d == nil || d.kind == None {
		return
	}
	d.velocity, d.accel = d.spring.Update(d.velocity, d.accel, d.targetRate)
	step := float32(d.velocity)

	switch d.kind {
	case CameraOrbit:
		sc.Camera.Orbit(step, 0)
	case ObjectLocalRotation:
		if d.obj == nil {
			return
		}
		d.angle += step
		d.obj.SetRotation(math32.NewQuatAxisAngle(d.axis, d.angle))
	}
}
