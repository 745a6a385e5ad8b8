package resources

import (
	"context"
	"time"
)

const pathWorkOrder = "/work-order"

type WorkOrderStatus string

const (
	WorkOrderPending    WorkOrderStatus = "pending"
	WorkOrderInProgress WorkOrderStatus = "inProgress"
	WorkOrderCompleted  WorkOrderStatus = "completed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// WorkOrderStatuses lists the statuses in workflow order
func WorkOrderStatuses() []WorkOrderStatus {
	return []WorkOrderStatus{WorkOrderPending, WorkOrderInProgress, WorkOrderCompleted, WorkOrderCancelled}
}

type WorkOrder struct {
	ID               string          `json:"_id,omitempty"`
	Title            string          `json:"title"`
	Type             string          `json:"type"`
	SiteID           string          `json:"siteId"`
	BlockIDs         []string        `json:"blockIds,omitempty"`
	CustomerID       string          `json:"customerId,omitempty"`
	ServiceCompanyID string          `json:"serviceCompanyId,omitempty"`
	Status           WorkOrderStatus `json:"status,omitempty"`
	Priority         string          `json:"priority,omitempty"`
	StartDate        time.Time       `json:"startDate,omitzero"`
	DueDate          time.Time       `json:"dueDate,omitzero"`
	EstimatedHours   float64         `json:"estimatedHours,omitempty"`
	Instructions     string          `json:"instructions,omitempty"` // rich text, sanitised before rendering
}

type WorkOrderFilter struct {
	Status           WorkOrderStatus
	SiteID           string
	CustomerID       string
	ServiceCompanyID string
}

type WorkOrders struct {
	r Requester
}

func (w *WorkOrders) List(ctx context.Context, f WorkOrderFilter) ([]WorkOrder, error) {
	return decodeMeta[[]WorkOrder](w.r.Get(ctx, pathWorkOrder, params(
		"status", string(f.Status),
		"siteId", f.SiteID,
		"customerId", f.CustomerID,
		"serviceCompanyId", f.ServiceCompanyID,
	)))
}

func (w *WorkOrders) Get(ctx context.Context, id string) (WorkOrder, error) {
	return decodeMeta[WorkOrder](w.r.Get(ctx, idPath(pathWorkOrder, id), nil))
}

func (w *WorkOrders) Create(ctx context.Context, wo WorkOrder) (WorkOrder, error) {
	return decodeMeta[WorkOrder](w.r.Post(ctx, pathWorkOrder, wo))
}

func (w *WorkOrders) Update(ctx context.Context, id string, wo WorkOrder) (WorkOrder, error) {
	return decodeMeta[WorkOrder](w.r.Patch(ctx, idPath(pathWorkOrder, id), wo))
}

func (w *WorkOrders) Delete(ctx context.Context, id string) error {
	_, err := w.r.Delete(ctx, idPath(pathWorkOrder, id), nil)
	return err
}
