package executor

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func TestBuildPromptConversation(t *testing.T) {
	task := models.Task{
		Type:  "conversation",
		Input: map[string]interface{}{"message": "hello there"},
	}

	prompt, key := buildPrompt(task)
	if prompt != "hello there" {
		t.Errorf("expected raw message, got %q", prompt)
	}
	if key != "response" {
		t.Errorf("expected response key, got %q", key)
	}
}

func TestBuildPromptCodeAnalysis(t *testing.T) {
	task := models.Task{
		Type: "code_analysis",
		Input: map[string]interface{}{
			"code":          "def f(): pass",
			"analysis_type": "security",
		},
	}

	prompt, key := buildPrompt(task)
	if !strings.Contains(prompt, "def f(): pass") {
		t.Error("prompt must contain the code")
	}
	if !strings.Contains(prompt, "security") {
		t.Error("prompt must contain the analysis type")
	}
	if key != "analysis" {
		t.Errorf("expected analysis key, got %q", key)
	}
}

func TestBuildPromptFallsBackToDescription(t *testing.T) {
	task := models.Task{
		Type:        "kb_qa",
		Description: "what is the refund policy?",
	}

	prompt, key := buildPrompt(task)
	if prompt != "what is the refund policy?" {
		t.Errorf("expected description fallback, got %q", prompt)
	}
	if key != "answer" {
		t.Errorf("expected answer key, got %q", key)
	}
}

func TestBuildPromptUnknownType(t *testing.T) {
	task := models.Task{
		Type:        "juggling",
		Description: "juggle three tasks",
	}

	prompt, key := buildPrompt(task)
	if !strings.Contains(prompt, "juggle three tasks") {
		t.Error("generic prompt must contain the description")
	}
	if key != "result" {
		t.Errorf("expected result key, got %q", key)
	}
}

func TestInputStringTypeMismatch(t *testing.T) {
	task := models.Task{
		Type:  "conversation",
		Input: map[string]interface{}{"message": 42},
	}

	if got := inputString(task, "message", "fallback"); got != "fallback" {
		t.Errorf("non-string input must fall back, got %q", got)
	}
}
