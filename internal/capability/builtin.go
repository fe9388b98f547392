package capability

import (
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Builtin returns the standard capabilities registered at startup.
// Concurrency ceilings and duration estimates reflect the relative cost
// of each task family: conversations are cheap and highly concurrent,
// code generation is expensive and serialized harder.
func Builtin() []models.Capability {
	return []models.Capability{
		{
			Name:               "conversation",
			Description:        "General conversational exchange",
			AgentKinds:         []models.AgentKind{models.AgentKindGeneral},
			MaxConcurrentTasks: 20,
			EstimatedDuration:  15 * time.Second,
		},
		{
			Name:               "code_analysis",
			Description:        "Code analysis and comprehension",
			AgentKinds:         []models.AgentKind{models.AgentKindCoding},
			RequiredTools:      []string{"python_executor"},
			MaxConcurrentTasks: 5,
			EstimatedDuration:  45 * time.Second,
		},
		{
			Name:               "code_generation",
			Description:        "Code generation and optimization",
			AgentKinds:         []models.AgentKind{models.AgentKindCoding},
			RequiredTools:      []string{"python_executor", "git_tool"},
			MaxConcurrentTasks: 3,
			EstimatedDuration:  120 * time.Second,
		},
		{
			Name:               "data_analysis",
			Description:        "Data analysis and visualization",
			AgentKinds:         []models.AgentKind{models.AgentKindCoding},
			RequiredTools:      []string{"python_executor", "data_analysis"},
			MaxConcurrentTasks: 3,
			EstimatedDuration:  90 * time.Second,
		},
		{
			Name:               "kb_qa",
			Description:        "Knowledge base question answering",
			AgentKinds:         []models.AgentKind{models.AgentKindGeneral},
			RequiredTools:      []string{"knowledge_base"},
			MaxConcurrentTasks: 10,
			EstimatedDuration:  30 * time.Second,
		},
		{
			Name:               "sql_query",
			Description:        "SQL query generation and analysis",
			AgentKinds:         []models.AgentKind{models.AgentKindGeneral},
			RequiredTools:      []string{"sql_executor"},
			MaxConcurrentTasks: 5,
			EstimatedDuration:  60 * time.Second,
		},
		{
			Name:               "file_processing",
			Description:        "File processing and conversion",
			AgentKinds:         []models.AgentKind{models.AgentKindGeneral},
			RequiredTools:      []string{"file_tool"},
			MaxConcurrentTasks: 5,
			EstimatedDuration:  45 * time.Second,
		},
	}
}
