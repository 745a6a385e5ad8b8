package resources

import (
	"context"
	"time"
)

const pathWorkerTasks = "/worker-tasks"

type TaskStatus string

const (
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "inProgress"
	TaskDone       TaskStatus = "done"
)

func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskAssigned, TaskInProgress, TaskDone}
}

// WorkerTask is one worker's share of a work order
type WorkerTask struct {
	ID            string     `json:"_id,omitempty"`
	WorkOrderID   string     `json:"workOrderId"`
	WorkerID      string     `json:"workerId"`
	BlockID       string     `json:"blockId,omitempty"`
	Description   string     `json:"description,omitempty"`
	Status        TaskStatus `json:"status"`
	HoursWorked   float64    `json:"hoursWorked,omitempty"`
	RowsCompleted int        `json:"rowsCompleted,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type TaskFilter struct {
	WorkerID    string
	WorkOrderID string
}

type Tasks struct {
	r Requester
}

func (t *Tasks) List(ctx context.Context, f TaskFilter) ([]WorkerTask, error) {
	return decodeMeta[[]WorkerTask](t.r.Get(ctx, pathWorkerTasks, params("workerId", f.WorkerID, "workOrderId", f.WorkOrderID)))
}

func (t *Tasks) Get(ctx context.Context, id string) (WorkerTask, error) {
	return decodeMeta[WorkerTask](t.r.Get(ctx, idPath(pathWorkerTasks, id), nil))
}

func (t *Tasks) Create(ctx context.Context, task WorkerTask) (WorkerTask, error) {
	return decodeMeta[WorkerTask](t.r.Post(ctx, pathWorkerTasks, task))
}

// Update replaces the whole task, status included
func (t *Tasks) Update(ctx context.Context, id string, task WorkerTask) (WorkerTask, error) {
	return decodeMeta[WorkerTask](t.r.Put(ctx, idPath(pathWorkerTasks, id), task))
}

func (t *Tasks) Delete(ctx context.Context, id string) error {
	_, err := t.r.Delete(ctx, idPath(pathWorkerTasks, id), nil)
	return err
}
