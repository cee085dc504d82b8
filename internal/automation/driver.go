// Package automation defines the boundary to the UI-automation collaborator
// and the step runner that dispatches plan steps onto it. The primitives
// themselves (element lookup, input synthesis, UI-tree serialization) live
// behind the Driver interface; the runner only consumes their results.
package automation

import "context"

// Driver is the capability set expected from the UI-automation collaborator.
// Every call's failure path is observable as a returned error; the runner
// never assumes a primitive succeeded silently.
type Driver interface {
	// MoveToElement moves the virtual pointer to the UI element with the
	// given id. Keywords identify the element for traceability.
	MoveToElement(ctx context.Context, elementID int, keywords []string) error

	// LeftClick clicks at the current pointer position.
	LeftClick(ctx context.Context) error

	// RightClick right-clicks at the current pointer position.
	RightClick(ctx context.Context) error

	// DoubleLeftClick double-clicks at the current pointer position.
	DoubleLeftClick(ctx context.Context) error

	// TypeText types literal text, including \n and \t.
	TypeText(ctx context.Context, text string) error

	// PressKeyCombo presses a key with the given modifiers.
	PressKeyCombo(ctx context.Context, key string, modifiers []string) error

	// ScrollUp scrolls up by the given pixel distance.
	ScrollUp(ctx context.Context, distance int) error

	// ScrollDown scrolls down by the given pixel distance.
	ScrollDown(ctx context.Context, distance int) error

	// DragToElement drags from the current pointer position to the UI
	// element with the given id.
	DragToElement(ctx context.Context, elementID int, keywords []string) error

	// RaiseApplication brings the target application to the foreground.
	RaiseApplication(ctx context.Context, name string) error

	// CaptureState returns a serialized snapshot of the application's
	// current UI tree.
	CaptureState(ctx context.Context) (string, error)

	// PointerState returns a serialized description of the UI element
	// currently under the pointer.
	PointerState(ctx context.Context) (string, error)
}

// Snapshot bundles the application UI-tree state and the pointer state
// captured at a single moment, used as planning and validation context.
type Snapshot struct {
	// App is the serialized UI tree of the target application.
	App string `json:"app" yaml:"app"`

	// Pointer describes the element under the pointer, or a placeholder
	// when the pointer is outside the application window.
	Pointer string `json:"pointer" yaml:"pointer"`
}
