package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// SaveTask upserts a task snapshot. Implements the orchestrator's
// TaskSink, so every lifecycle transition lands here.
func (db *DB) SaveTask(task models.Task) error {
	input, err := marshalMap(task.Input)
	if err != nil {
		return fmt.Errorf("encode task %s input: %w", task.ID, err)
	}
	result, err := marshalMap(task.Result)
	if err != nil {
		return fmt.Errorf("encode task %s result: %w", task.ID, err)
	}

	var startedAt, completedAt any
	if task.StartedAt != nil {
		startedAt = formatTime(*task.StartedAt)
	}
	if task.CompletedAt != nil {
		completedAt = formatTime(*task.CompletedAt)
	}

	_, err = db.Exec(`
		INSERT INTO tasks (id, type, description, input, priority, status,
			assigned_agent, depends_on, parent_task, result, error,
			created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			assigned_agent = excluded.assigned_agent,
			result = excluded.result,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, task.ID, task.Type, task.Description, input, int(task.Priority),
		string(task.Status), task.AssignedAgent, strings.Join(task.Dependencies, ","),
		task.ParentTask, result, task.Error,
		formatTime(task.CreatedAt), startedAt, completedAt)
	if err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask loads a task snapshot by ID.
// Returns sql.ErrNoRows wrapped if the task is unknown.
func (db *DB) GetTask(taskID string) (models.Task, error) {
	row := db.QueryRow(`
		SELECT id, type, description, input, priority, status,
			assigned_agent, depends_on, parent_task, result, error,
			created_at, started_at, completed_at
		FROM tasks WHERE id = ?
	`, taskID)

	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task, nil
}

// ListTasks returns task snapshots, optionally filtered by status.
// An empty status returns everything, newest first.
func (db *DB) ListTasks(status models.TaskStatus) ([]models.Task, error) {
	query := `
		SELECT id, type, description, input, priority, status,
			assigned_agent, depends_on, parent_task, result, error,
			created_at, started_at, completed_at
		FROM tasks`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CountByStatus returns the number of persisted tasks per status.
func (db *DB) CountByStatus() (map[models.TaskStatus]int, error) {
	rows, err := db.Query("SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("count tasks: %w", err)
		}
		counts[models.TaskStatus(status)] = count
	}
	return counts, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (models.Task, error) {
	var task models.Task
	var input, result sql.NullString
	var description, assignedAgent, dependsOn, parentTask, errMsg sql.NullString
	var priority int
	var status, createdAt string
	var startedAt, completedAt sql.NullString

	err := row.Scan(&task.ID, &task.Type, &description, &input, &priority,
		&status, &assignedAgent, &dependsOn, &parentTask, &result, &errMsg,
		&createdAt, &startedAt, &completedAt)
	if err != nil {
		return models.Task{}, err
	}

	task.Description = description.String
	task.Priority = models.TaskPriority(priority)
	task.Status = models.TaskStatus(status)
	task.AssignedAgent = assignedAgent.String
	task.ParentTask = parentTask.String
	task.Error = errMsg.String
	if dependsOn.String != "" {
		task.Dependencies = strings.Split(dependsOn.String, ",")
	}

	if task.Input, err = unmarshalMap(input); err != nil {
		return models.Task{}, err
	}
	if task.Result, err = unmarshalMap(result); err != nil {
		return models.Task{}, err
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Task{}, err
	}
	task.StartedAt = parseNullableTime(startedAt)
	task.CompletedAt = parseNullableTime(completedAt)

	return task, nil
}

func marshalMap(m map[string]interface{}) (any, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func unmarshalMap(s sql.NullString) (map[string]interface{}, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}
