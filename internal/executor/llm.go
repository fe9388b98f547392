package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// LLMExecutor performs task work through the Anthropic messages API.
// Each task type maps to a prompt template; the model's text response is
// wrapped into the task-type-specific result shape.
type LLMExecutor struct {
	client *Client
}

// NewLLMExecutor creates an executor backed by the given client.
func NewLLMExecutor(client *Client) *LLMExecutor {
	return &LLMExecutor{client: client}
}

// Execute implements Executor.
func (e *LLMExecutor) Execute(ctx context.Context, task models.Task) (map[string]interface{}, error) {
	prompt, resultKey := buildPrompt(task)

	resp, err := e.client.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.client.model,
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("execute %s task %s: %w", task.Type, task.ID, err)
	}

	e.client.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	result := map[string]interface{}{
		resultKey: text.String(),
		"type":    task.Type,
	}
	if task.Type == "code_generation" {
		result["language"] = inputString(task, "language", "python")
	}
	if task.Type == "kb_qa" {
		result["sources"] = []string{}
	}
	return result, nil
}

// buildPrompt assembles the prompt for a task and names the key under
// which the response is stored in the result map.
func buildPrompt(task models.Task) (prompt, resultKey string) {
	switch task.Type {
	case "conversation":
		return inputString(task, "message", task.Description), "response"

	case "code_analysis":
		return fmt.Sprintf("Please analyze the following code (%s):\n\n%s",
			inputString(task, "analysis_type", "general"),
			inputString(task, "code", "")), "analysis"

	case "code_generation":
		return fmt.Sprintf("Generate %s code for the following requirements:\n\n%s",
			inputString(task, "language", "python"),
			inputString(task, "requirements", task.Description)), "code"

	case "data_analysis":
		return fmt.Sprintf("Analyze the following data:\n\nData Description: %s\nAnalysis Goal: %s\n\nProvide insights, visualizations, and recommendations.",
			inputString(task, "data_description", ""),
			inputString(task, "analysis_goal", "")), "analysis"

	case "kb_qa":
		return inputString(task, "question", task.Description), "answer"

	case "sql_query":
		return fmt.Sprintf("Generate an SQL query based on the following:\n\nDatabase Schema: %s\nQuery Description: %s\n\nProvide the SQL query and explanation.",
			inputString(task, "schema", ""),
			inputString(task, "query_description", task.Description)), "query"

	case "file_processing":
		return fmt.Sprintf("Process the following file:\n\nFile Information: %v\nProcessing Goal: %s\n\nProvide processing steps and results.",
			task.Input["file_info"],
			inputString(task, "processing_goal", "")), "result"

	default:
		return fmt.Sprintf("Task: %s\nInput Data: %v\n\nPlease complete this task to the best of your ability.",
			task.Description, task.Input), "result"
	}
}

// inputString extracts a string field from the task input, falling back
// to the given default when absent or not a string.
func inputString(task models.Task, key, fallback string) string {
	if raw, ok := task.Input[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return fallback
}
