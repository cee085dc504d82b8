package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
)

// goalSystemPrompt instructs the model to produce a high-level goal plan.
const goalSystemPrompt = `You are a spreadsheet automation expert. Given a user request and the current
spreadsheet window state, create a high-level plan breaking the task into clear,
achievable goals.

Each goal must be specific and independently verifiable. Goals must be sequenced
logically, with any dependencies clearly identified. A goal should be high level,
representing a change in the workbook, such as completion of a set of data entered,
creation of a new sheet, or insertion of a pivot table.

Goals must avoid actions that significantly alter the application context, such as
switching ribbon tabs, creating new sheets, or adding charts, within the same goal
as other work. These changes invalidate the captured state, and the system needs
the updated state to correctly generate the next set of actions.

Analyze the current spreadsheet state, looking at existing sheets and fields.

Respond with a JSON array of goals, where each goal has:
- "id": A unique string identifier
- "description": Clear description of what needs to be accomplished
- "validation_criteria": Object of criteria to verify goal completion
- "dependencies": Array of goal IDs that must be completed first (or empty array)

Example response:
[
    {
        "id": "g1",
        "description": "Select and format header row",
        "validation_criteria": {
            "header_cells": ["A1", "B1", "C1"],
            "expected_format": "bold"
        },
        "dependencies": []
    },
    {
        "id": "g2",
        "description": "Enter data in columns A through C",
        "validation_criteria": {
            "filled_ranges": ["A2:A10", "B2:B10", "C2:C10"]
        },
        "dependencies": ["g1"]
    }
]`

// stepSystemPrompt instructs the model to decompose one goal into steps.
const stepSystemPrompt = `You are a spreadsheet automation expert. Given a specific goal and the current
spreadsheet state, break the goal down into concrete, executable steps. Ensure each
step is clear and achievable.

Available actions for steps:
- move_to_element(element_id, element_keywords): Move mouse to element. element_keywords should be an array of 1-2 exact values from the element's attributes (e.g. ["Sheet1", "A1"] or ["addSheetTabButton"])
- left_click(): Click where the mouse is
- right_click(): Right click where the mouse is
- double_left_click(): Double click where the mouse is
- type_text(text): Type text (can include \n and \t)
- press_key_combo(key, modifiers): Press key with modifiers
- scroll_up(distance): Scroll up by pixels
- scroll_down(distance): Scroll down by pixels
- drag_to_element(element_id, element_keywords): Drag from current position to element

Important rules to always follow:
- Always left_click or right_click after move_to_element to trigger a button or focus a cell.
- When entering text, ending with \n selects the cell below, \t selects the cell to the right.
- press_key_combo can move to adjacent cells: \n moves down, \t moves right; add the shift modifier to reverse direction.
- Ending text with \n or \t and then using press_key_combo in the next step is a duplicate move. Avoid this.
- Inserting a sheet is performed using the addSheetTabButton.
- Renaming a sheet is performed by double clicking on the sheet name.
- AXValue 0 means a toggle button is not selected, 1 means selected.
- When selecting a number format, first click its children element to open the dropdown, then click the desired format in a later goal.

Respond with a JSON array of steps, where each step has:
- "description": Human-readable description of the step
- "action": Name of the action to execute
- "parameters": Object of parameters for the action
- "validation_criteria": Object describing expected state after the step

Ensure this is a valid JSON array or otherwise the process will fail.`

// validationSystemPrompt instructs the model to judge a step's outcome.
const validationSystemPrompt = `You are a spreadsheet automation expert. Validate whether a step's execution
resulted in the expected state.

Compare the validation criteria against the current spreadsheet and mouse state.

Respond with a JSON object:
{
    "valid": true/false,
    "error": "Description of what's wrong" (if valid is false)
}`

// buildGoalUserPrompt assembles the user prompt for goal generation.
func buildGoalUserPrompt(request, appState string) string {
	var sb strings.Builder

	sb.WriteString("User Request: ")
	sb.WriteString(request)
	sb.WriteString("\n\nCurrent Spreadsheet State:\n")
	sb.WriteString(appState)
	sb.WriteString("\n\nGenerate a plan of goals to accomplish this task.\n")

	return sb.String()
}

// buildStepUserPrompt assembles the user prompt for step generation.
func buildStepUserPrompt(goal *plan.Goal, completed []*plan.Goal, snap automation.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("Goal to accomplish:\n")
	sb.WriteString(marshalIndent(goal))
	sb.WriteString("\n\nPreviously completed goals:\n")
	sb.WriteString(marshalIndent(completed))
	sb.WriteString("\n\nCurrent Spreadsheet State:\n")
	sb.WriteString(snap.App)
	sb.WriteString("\n\nMouse Position:\n")
	sb.WriteString(snap.Pointer)
	sb.WriteString("\n")

	return sb.String()
}

// buildValidationUserPrompt assembles the user prompt for step validation.
func buildValidationUserPrompt(step *plan.Step, snap automation.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("Step executed:\n")
	sb.WriteString(marshalIndent(map[string]any{
		"description":         step.Description,
		"action":              step.Action,
		"parameters":          step.Parameters,
		"validation_criteria": step.ValidationCriteria,
	}))
	sb.WriteString("\n\nCurrent Spreadsheet State:\n")
	sb.WriteString(snap.App)
	sb.WriteString("\n\nMouse Position:\n")
	sb.WriteString(snap.Pointer)
	sb.WriteString("\n\nValidate if the step execution was successful.\n")

	return sb.String()
}

func marshalIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return string(data)
}
