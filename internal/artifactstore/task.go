package artifactstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cuioss/plan-marshall/internal/model"
	"github.com/cuioss/plan-marshall/internal/planerrors"
)

// CreateTask writes a new task document. number must not already exist
// under planID's tasks directory.
func (s *Store) CreateTask(planID string, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.taskPath(planID, task.Number)
	if fileExists(path) {
		return planerrors.Wrap(planerrors.KindAlreadyExists, fmt.Sprintf("task %d already exists", task.Number), nil)
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal task", err)
	}
	return atomicWriteFile(path, data)
}

// ReadTask loads a single task by number.
func (s *Store) ReadTask(planID string, number int) (*model.Task, error) {
	data, err := os.ReadFile(s.taskPath(planID, number))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, planerrors.Wrap(planerrors.KindNotFound, fmt.Sprintf("task %d", number), err)
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "read task", err)
	}
	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "parse task", err)
	}
	return &task, nil
}

// UpdateTask rewrites an existing task document in place. number must be
// unchanged from the existing file (enforced by caller equality check);
// number is otherwise immutable once assigned.
func (s *Store) UpdateTask(planID string, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.taskPath(planID, task.Number)
	if !fileExists(path) {
		return planerrors.Wrap(planerrors.KindNotFound, fmt.Sprintf("task %d", task.Number), nil)
	}

	if task.Status == model.TaskDone {
		if !task.StepsComplete() {
			return planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("task %d marked done with incomplete steps", task.Number), nil)
		}
		if !task.VerificationSatisfied() {
			return planerrors.Wrap(planerrors.KindInvariantViolation,
				fmt.Sprintf("task %d marked done with no verification command executed to exit 0", task.Number), nil)
		}
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return planerrors.Wrap(planerrors.KindInvariantViolation, "marshal task", err)
	}
	return atomicWriteFile(path, data)
}

// ListTasks returns every task for planID, sorted by Number ascending.
func (s *Store) ListTasks(planID string) ([]model.Task, error) {
	dir := s.tasksDir(planID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, planerrors.Wrap(planerrors.KindInvariantViolation, "list tasks directory", err)
	}

	var tasks []model.Task
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(dir + "/" + e.Name())
		if err != nil {
			continue
		}
		var task model.Task
		if err := json.Unmarshal(data, &task); err != nil {
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Number < tasks[j].Number })
	return tasks, nil
}

func (s *Store) taskPath(planID string, number int) string {
	t := model.Task{Number: number}
	return s.tasksDir(planID) + "/" + t.FileName()
}
