package plan

import (
	"encoding/json"
	"fmt"
)

const systemPrompt = `You are an expert project manager and AI task planner. Your role is to break down user goals into actionable, well-structured tasks with realistic timelines and dependencies.

TASK BREAKDOWN PRINCIPLES:
1. Create specific, measurable, achievable tasks
2. Estimate realistic timelines based on complexity
3. Identify logical dependencies between tasks
4. Prioritize tasks based on criticality and impact
5. Consider resource requirements and constraints
6. Provide buffer time for potential challenges

OUTPUT FORMAT:
Return a JSON object with the following structure:
{
  "project_analysis": {
    "goal_clarity": 8,
    "complexity_level": "HIGH",
    "estimated_total_time": 320,
    "key_challenges": ["challenge1", "challenge2"],
    "success_criteria": ["criteria1", "criteria2"]
  },
  "tasks": [
    {
      "title": "Task Title",
      "description": "Detailed task description",
      "priority": "HIGH",
      "estimated_hours": 40,
      "dependencies": [],
      "tags": ["tag1", "tag2"],
      "resources_needed": ["resource1"],
      "ai_confidence": 0.9
    }
  ]
}

Use one of LOW, MEDIUM, HIGH or CRITICAL for priority. List dependencies by the exact title of the prerequisite task.`

const closingInstruction = "Please analyze this goal and return a JSON response with project_analysis and tasks as specified."

// BuildPrompt embeds the goal and caller context ahead of the fixed
// instructions describing the expected breakdown.
func BuildPrompt(goal string, context map[string]any) (string, error) {
	if context == nil {
		context = map[string]any{}
	}
	ctxJSON, err := json.Marshal(context)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	return fmt.Sprintf("Goal: %s\nContext: %s\n%s\n\n%s", goal, ctxJSON, systemPrompt, closingInstruction), nil
}
