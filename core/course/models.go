package course

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// ID accepts both numeric and string identifiers from the origin.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Task is one ordered step of a course; Completed is per user.
type Task struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type task Task
	var raw struct {
		task
		IsCompleted *bool `json:"isCompleted"`
		Done        *bool `json:"done"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.task)
	if raw.IsCompleted != nil {
		t.Completed = *raw.IsCompleted
	} else if raw.Done != nil {
		t.Completed = *raw.Done
	}
	return nil
}

// Progress is the completion of a course for the caller.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// ComputeProgress rounds completed/total*100 to the nearest integer.
func ComputeProgress(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}

// SortTasks orders tasks by Order, then numerically or lexically by ID.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		a, aErr := strconv.Atoi(string(tasks[i].ID))
		b, bErr := strconv.Atoi(string(tasks[j].ID))
		if aErr == nil && bErr == nil {
			return a < b
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// Toggle flips the completion of the task with id and reports whether it was found.
func Toggle(tasks []Task, id ID) bool {
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Completed = !tasks[i].Completed
			return true
		}
	}
	return false
}

// DecodeTasks reads a task list from a bare array or from an object
// holding it under "tasks", "content" or "items".
func DecodeTasks(body []byte) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal(body, &tasks); err == nil {
		return tasks, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	for _, key := range []string{"tasks", "content", "items"} {
		if raw, ok := obj[key]; ok {
			if err := json.Unmarshal(raw, &tasks); err != nil {
				return nil, err
			}
			return tasks, nil
		}
	}
	return []Task{}, nil
}
