package automation

import (
	"context"
	"fmt"
	"sync"
)

// MockDriver is an in-memory Driver for tests and dry runs. It records every
// call and can be scripted to fail specific primitives.
type MockDriver struct {
	mu sync.Mutex

	// Calls lists the primitives invoked, in order, with their arguments
	// rendered into the string (e.g. "move_to_element(42)").
	Calls []string

	// Failures maps a primitive name (e.g. "left_click") to the error it
	// should return. Primitives not present always succeed.
	Failures map[string]error

	// State is returned by CaptureState; Pointer by PointerState.
	State   string
	Pointer string

	// RaiseErr, when set, is returned by RaiseApplication.
	RaiseErr error
}

// NewMockDriver creates a MockDriver with a minimal canned UI state.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		Failures: make(map[string]error),
		State:    "window: Book1\nsheets:\n  - Sheet1\n",
		Pointer:  "element: cell A1",
	}
}

// FailOn scripts the named primitive to return the given error.
func (m *MockDriver) FailOn(primitive string, err error) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[primitive] = err
	return m
}

func (m *MockDriver) record(call string, primitive string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	return m.Failures[primitive]
}

func (m *MockDriver) MoveToElement(ctx context.Context, elementID int, keywords []string) error {
	return m.record(fmt.Sprintf("move_to_element(%d)", elementID), "move_to_element")
}

func (m *MockDriver) LeftClick(ctx context.Context) error {
	return m.record("left_click()", "left_click")
}

func (m *MockDriver) RightClick(ctx context.Context) error {
	return m.record("right_click()", "right_click")
}

func (m *MockDriver) DoubleLeftClick(ctx context.Context) error {
	return m.record("double_left_click()", "double_left_click")
}

func (m *MockDriver) TypeText(ctx context.Context, text string) error {
	return m.record(fmt.Sprintf("type_text(%q)", text), "type_text")
}

func (m *MockDriver) PressKeyCombo(ctx context.Context, key string, modifiers []string) error {
	return m.record(fmt.Sprintf("press_key_combo(%q, %v)", key, modifiers), "press_key_combo")
}

func (m *MockDriver) ScrollUp(ctx context.Context, distance int) error {
	return m.record(fmt.Sprintf("scroll_up(%d)", distance), "scroll_up")
}

func (m *MockDriver) ScrollDown(ctx context.Context, distance int) error {
	return m.record(fmt.Sprintf("scroll_down(%d)", distance), "scroll_down")
}

func (m *MockDriver) DragToElement(ctx context.Context, elementID int, keywords []string) error {
	return m.record(fmt.Sprintf("drag_to_element(%d)", elementID), "drag_to_element")
}

func (m *MockDriver) RaiseApplication(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf("raise_application(%q)", name))
	return m.RaiseErr
}

func (m *MockDriver) CaptureState(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Failures["capture_state"]; err != nil {
		return "", err
	}
	return m.State, nil
}

func (m *MockDriver) PointerState(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pointer, nil
}

// CallCount returns how many primitive calls the mock has served.
func (m *MockDriver) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ Driver = (*MockDriver)(nil)
