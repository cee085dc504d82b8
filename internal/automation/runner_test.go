package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func newTestRunner(driver Driver) *StepRunner {
	return NewStepRunner(driver, WithSettleDelay(0))
}

func TestStepRunner_Execute_Success(t *testing.T) {
	driver := NewMockDriver()
	runner := newTestRunner(driver)

	step := &plan.Step{
		Description: "Move to cell A1",
		Action:      plan.ActionMoveToElement,
		Parameters: map[string]any{
			"element_id":       float64(123),
			"element_keywords": []any{"Sheet1", "A1"},
		},
	}

	ok, err := runner.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, plan.StepStatusInProgress, step.Status)
	assert.Contains(t, driver.Calls, `raise_application("Microsoft Excel")`)
	assert.Contains(t, driver.Calls, "move_to_element(123)")
}

func TestStepRunner_Execute_DriverFailure(t *testing.T) {
	driver := NewMockDriver().FailOn("move_to_element", errors.New("element not found"))
	runner := newTestRunner(driver)

	step := &plan.Step{
		Description: "Move to cell A1",
		Action:      plan.ActionMoveToElement,
		Parameters:  map[string]any{"element_id": float64(123)},
	}

	ok, err := runner.Execute(context.Background(), step)
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.AUTO_ACTION_FAILED))
	assert.Equal(t, plan.StepStatusFailed, step.Status)
	assert.Contains(t, step.ErrorMessage, "element not found")
}

func TestStepRunner_Execute_MissingParameter(t *testing.T) {
	driver := NewMockDriver()
	runner := newTestRunner(driver)

	step := &plan.Step{
		Description: "Enter header",
		Action:      plan.ActionTypeText,
		Parameters:  map[string]any{},
	}

	ok, err := runner.Execute(context.Background(), step)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, plan.StepStatusFailed, step.Status)
	// Parameter validation happens before any driver primitive runs.
	assert.NotContains(t, driver.Calls, `type_text("")`)
}

func TestStepRunner_Execute_UnknownAction(t *testing.T) {
	driver := NewMockDriver()
	runner := newTestRunner(driver)

	step := &plan.Step{Description: "bogus", Action: plan.Action("open_terminal")}

	ok, err := runner.Execute(context.Background(), step)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, plan.StepStatusFailed, step.Status)
}

func TestStepRunner_Execute_ForegroundFailureIsNotFatal(t *testing.T) {
	driver := NewMockDriver()
	driver.RaiseErr = errors.New("app not running")
	runner := newTestRunner(driver)

	step := &plan.Step{Description: "click", Action: plan.ActionLeftClick}

	ok, err := runner.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, driver.Calls, "left_click()")
}

func TestStepRunner_ScrollDefaults(t *testing.T) {
	driver := NewMockDriver()
	runner := newTestRunner(driver)

	step := &plan.Step{Description: "scroll", Action: plan.ActionScrollDown}

	ok, err := runner.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, driver.Calls, "scroll_down(800)")
}

func TestStepRunner_CaptureSnapshot(t *testing.T) {
	driver := NewMockDriver()
	runner := newTestRunner(driver)

	snap, err := runner.CaptureSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, driver.State, snap.App)
	assert.Equal(t, driver.Pointer, snap.Pointer)
}

func TestStepRunner_CaptureSnapshot_Failure(t *testing.T) {
	driver := NewMockDriver().FailOn("capture_state", errors.New("window gone"))
	runner := newTestRunner(driver)

	_, err := runner.CaptureSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.AUTO_SNAPSHOT_FAILED))
}
