package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/pathwise/core/course"
)

var ErrUnknownTask = errors.New("unknown task")

// ProgressTracker keeps a local copy of a course's tasks so the displayed
// percentage follows toggles without reloading the course.
type ProgressTracker struct {
	client   *Client
	courseID string

	mu    sync.Mutex
	tasks []course.Task
}

func NewProgressTracker(c *Client, courseID string) *ProgressTracker {
	return &ProgressTracker{client: c, courseID: courseID}
}

// Load replaces the local tasks with the gateway's.
func (pt *ProgressTracker) Load(ctx context.Context) (course.Progress, error) {
	tasks, err := pt.client.CourseTasks(ctx, pt.courseID)
	if err != nil {
		return course.Progress{}, err
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.tasks = tasks
	return course.ComputeProgress(pt.tasks), nil
}

func (pt *ProgressTracker) Tasks() []course.Task {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return append([]course.Task(nil), pt.tasks...)
}

func (pt *ProgressTracker) Progress() course.Progress {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return course.ComputeProgress(pt.tasks)
}

// Toggle flips a task locally and on the gateway. The local flip is undone
// when the gateway refuses it.
func (pt *ProgressTracker) Toggle(ctx context.Context, taskID course.ID) (course.Progress, error) {
	pt.mu.Lock()
	if !course.Toggle(pt.tasks, taskID) {
		pt.mu.Unlock()
		return course.Progress{}, ErrUnknownTask
	}
	pt.mu.Unlock()

	if _, err := pt.client.ToggleTask(ctx, pt.courseID, taskID); err != nil {
		pt.mu.Lock()
		course.Toggle(pt.tasks, taskID)
		pt.mu.Unlock()
		return pt.Progress(), err
	}
	return pt.Progress(), nil
}
