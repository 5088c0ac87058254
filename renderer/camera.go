package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Thibaos/a-tlas/types"
)

type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
	Up
	Down
)

const (
	cameraFov  float32 = math.Pi / 2.0
	cameraNear float32 = 0.01
	cameraFar  float32 = 10000.0

	// Pitch is clamped just short of the poles to keep the view basis
	// invertible.
	maxPitch float32 = math.Pi/2.0 - 0.01
)

// A free-flying camera driven by yaw/pitch angles and direct translation.
type Camera struct {
	Translation mgl32.Vec3
	Yaw         float32
	Pitch       float32
}

func (c *Camera) forward() mgl32.Vec3 {
	cosPitch := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		float32(math.Sin(float64(c.Yaw))) * cosPitch,
		float32(math.Sin(float64(c.Pitch))),
		float32(math.Cos(float64(c.Yaw))) * cosPitch,
	}
}

func (c *Camera) right() mgl32.Vec3 {
	return c.forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// Move the camera along one of its local axes.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	switch dir {
	case Forward:
		c.Translation = c.Translation.Add(c.forward().Mul(amount))
	case Backward:
		c.Translation = c.Translation.Sub(c.forward().Mul(amount))
	case Left:
		c.Translation = c.Translation.Sub(c.right().Mul(amount))
	case Right:
		c.Translation = c.Translation.Add(c.right().Mul(amount))
	case Up:
		c.Translation = c.Translation.Add(mgl32.Vec3{0, amount, 0})
	case Down:
		c.Translation = c.Translation.Sub(mgl32.Vec3{0, amount, 0})
	}
}

// Rotate the view by yaw/pitch deltas, clamping pitch.
func (c *Camera) Rotate(yawDelta, pitchDelta float32) {
	c.Yaw += yawDelta
	c.Pitch += pitchDelta
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// View matrix looking along the camera's forward vector.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Translation, c.Translation.Add(c.forward()), mgl32.Vec3{0, 1, 0})
}

// Data packs the camera into the per-frame uniform layout: the inverted
// view-projection matrix the raygen stage unprojects rays through, plus
// the world-space eye position.
func (c *Camera) Data(aspect float32) CameraData {
	proj := mgl32.Perspective(cameraFov, aspect, cameraNear, cameraFar)
	invViewProj := proj.Mul4(c.View()).Inv()

	var data CameraData
	copy(data.InvViewProj[:], invViewProj[:])
	data.Position = [4]float32{c.Translation.X(), c.Translation.Y(), c.Translation.Z(), 1.0}
	return data
}

// GridPosition truncates the eye position to a global voxel coordinate.
func (c *Camera) GridPosition() types.IVec3 {
	return types.XYZi(
		int32(c.Translation.X()),
		int32(c.Translation.Y()),
		int32(c.Translation.Z()),
	)
}
