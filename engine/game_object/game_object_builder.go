package game_object

import (
	"github.com/Carmen-Shannon/oxy-hiz/common"
	"github.com/Carmen-Shannon/oxy-hiz/engine/model"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithName sets the name of the GameObject.
//
// Parameters:
//   - name: the object name used in root paths
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the name
func WithName(name string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.name = name
	}
}

// WithEnabled sets whether the GameObject is active. Objects are enabled by default.
//
// Parameters:
//   - enabled: false to exclude the object and its subtree from collection
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithPosition sets the local position of the GameObject.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the local position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.local.Translation = [3]float32{x, y, z}
	}
}

// WithScale sets the local scale of the GameObject.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the local scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.local.Scale = [3]float32{sx, sy, sz}
	}
}

// WithRotation sets the local rotation of the GameObject from Euler angles in radians.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the local rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.local.Rotation = common.EulerToQuaternion(rx, ry, rz)
	}
}

// WithTransform sets the full local TRS transform of the GameObject.
//
// Parameters:
//   - t: the local transform
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the local transform
func WithTransform(t model.Transform) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.local = t
	}
}

// WithLocalMatrix sets an explicit local matrix that overrides the TRS transform.
//
// Parameters:
//   - m: the column-major local matrix
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the local matrix
func WithLocalMatrix(m common.Mat4) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.matrix = &m
	}
}

// WithChildren attaches the given children in order. Children not created by NewGameObject,
// and children that would form a cycle, are ignored.
//
// Parameters:
//   - children: the child objects
//
// Returns:
//   - GameObjectBuilderOption: functional option to attach children
func WithChildren(children ...GameObject) GameObjectBuilderOption {
	return func(obj *gameObject) {
		for _, c := range children {
			_ = obj.AddChild(c)
		}
	}
}
