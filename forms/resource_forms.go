package forms

import (
	"time"

	"github.com/jrsteele09/vineyard-dashboard/resources"
)

const dateLayout = "2006-01-02"

type SiteForm struct {
	Name         string  `form:"name" validate:"required,max=120"`
	Address      string  `form:"address" validate:"required,max=250"`
	Region       string  `form:"region" validate:"max=120"`
	CustomerID   string  `form:"customerId" validate:"required"`
	ManagerID    string  `form:"siteManagerId"`
	AreaHectares float64 `form:"areaHectares" validate:"gte=0,lte=100000"`
	Varieties    string  `form:"varieties" validate:"max=500"`
	Notes        string  `form:"notes" validate:"max=2000"`
}

func SiteFormFrom(s resources.Site) SiteForm {
	return SiteForm{
		Name:         s.Name,
		Address:      s.Address,
		Region:       s.Region,
		CustomerID:   s.CustomerID,
		ManagerID:    s.ManagerID,
		AreaHectares: s.AreaHectares,
		Varieties:    JoinList(s.Varieties),
		Notes:        s.Notes,
	}
}

func (f SiteForm) Site() resources.Site {
	return resources.Site{
		Name:         f.Name,
		Address:      f.Address,
		Region:       f.Region,
		CustomerID:   f.CustomerID,
		ManagerID:    f.ManagerID,
		AreaHectares: f.AreaHectares,
		Varieties:    SplitList(f.Varieties),
		Notes:        f.Notes,
	}
}

type BlockForm struct {
	SiteID       string  `form:"siteId" validate:"required"`
	Name         string  `form:"name" validate:"required,max=120"`
	Variety      string  `form:"variety" validate:"max=120"`
	RowCount     int     `form:"rowCount" validate:"gte=0"`
	VineCount    int     `form:"vineCount" validate:"gte=0"`
	AreaHectares float64 `form:"areaHectares" validate:"gte=0"`
	PlantedYear  int     `form:"plantedYear" validate:"omitempty,gte=1800,lte=2100"`
}

func BlockFormFrom(b resources.Block) BlockForm {
	return BlockForm{
		SiteID:       b.SiteID,
		Name:         b.Name,
		Variety:      b.Variety,
		RowCount:     b.RowCount,
		VineCount:    b.VineCount,
		AreaHectares: b.AreaHectares,
		PlantedYear:  b.PlantedYear,
	}
}

func (f BlockForm) Block() resources.Block {
	return resources.Block{
		SiteID:       f.SiteID,
		Name:         f.Name,
		Variety:      f.Variety,
		RowCount:     f.RowCount,
		VineCount:    f.VineCount,
		AreaHectares: f.AreaHectares,
		PlantedYear:  f.PlantedYear,
	}
}

type WorkOrderForm struct {
	Title            string  `form:"title" validate:"required,max=160"`
	Type             string  `form:"type" validate:"required,max=60"`
	SiteID           string  `form:"siteId" validate:"required"`
	BlockIDs         string  `form:"blockIds"`
	CustomerID       string  `form:"customerId"`
	ServiceCompanyID string  `form:"serviceCompanyId"`
	Status           string  `form:"status" validate:"required,wostatus"`
	Priority         string  `form:"priority" validate:"omitempty,oneof=low medium high"`
	StartDate        string  `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate          string  `form:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	EstimatedHours   float64 `form:"estimatedHours" validate:"gte=0"`
	Instructions     string  `form:"instructions" validate:"max=20000"`
}

func WorkOrderFormFrom(w resources.WorkOrder) WorkOrderForm {
	return WorkOrderForm{
		Title:            w.Title,
		Type:             w.Type,
		SiteID:           w.SiteID,
		BlockIDs:         JoinList(w.BlockIDs),
		CustomerID:       w.CustomerID,
		ServiceCompanyID: w.ServiceCompanyID,
		Status:           string(w.Status),
		Priority:         w.Priority,
		StartDate:        formatDate(w.StartDate),
		DueDate:          formatDate(w.DueDate),
		EstimatedHours:   w.EstimatedHours,
		Instructions:     w.Instructions,
	}
}

// WorkOrder converts a validated form; the dates have already passed the datetime rule
func (f WorkOrderForm) WorkOrder() resources.WorkOrder {
	return resources.WorkOrder{
		Title:            f.Title,
		Type:             f.Type,
		SiteID:           f.SiteID,
		BlockIDs:         SplitList(f.BlockIDs),
		CustomerID:       f.CustomerID,
		ServiceCompanyID: f.ServiceCompanyID,
		Status:           resources.WorkOrderStatus(f.Status),
		Priority:         f.Priority,
		StartDate:        parseDate(f.StartDate),
		DueDate:          parseDate(f.DueDate),
		EstimatedHours:   f.EstimatedHours,
		Instructions:     f.Instructions,
	}
}

// TaskForm is the worker's progress update on one task
type TaskForm struct {
	Status        string  `form:"status" validate:"required,taskstatus"`
	HoursWorked   float64 `form:"hoursWorked" validate:"gte=0,lte=24"`
	RowsCompleted int     `form:"rowsCompleted" validate:"gte=0"`
}

// Apply copies the update onto task, stamping start and completion times on transitions
func (f TaskForm) Apply(task resources.WorkerTask, now time.Time) resources.WorkerTask {
	status := resources.TaskStatus(f.Status)
	if status != resources.TaskAssigned && task.StartedAt == nil {
		task.StartedAt = &now
	}
	if status == resources.TaskDone && task.CompletedAt == nil {
		task.CompletedAt = &now
	}
	if status != resources.TaskDone {
		task.CompletedAt = nil
	}
	task.Status = status
	task.HoursWorked = f.HoursWorked
	task.RowsCompleted = f.RowsCompleted
	return task
}

type ConfigForm struct {
	CompanyName       string  `form:"companyName" validate:"required,max=120"`
	SupportEmail      string  `form:"supportEmail" validate:"omitempty,email"`
	Timezone          string  `form:"timezone" validate:"omitempty,timezone"`
	DefaultHourlyRate float64 `form:"defaultHourlyRate" validate:"gte=0,lte=1000"`
	WorkOrderTypes    string  `form:"workOrderTypes" validate:"max=1000"`
	GrapeVarieties    string  `form:"grapeVarieties" validate:"max=2000"`
}

func ConfigFormFrom(c resources.SystemConfig) ConfigForm {
	return ConfigForm{
		CompanyName:       c.CompanyName,
		SupportEmail:      c.SupportEmail,
		Timezone:          c.Timezone,
		DefaultHourlyRate: c.DefaultHourlyRate,
		WorkOrderTypes:    JoinList(c.WorkOrderTypes),
		GrapeVarieties:    JoinList(c.GrapeVarieties),
	}
}

func (f ConfigForm) Config() resources.SystemConfig {
	return resources.SystemConfig{
		CompanyName:       f.CompanyName,
		SupportEmail:      f.SupportEmail,
		Timezone:          f.Timezone,
		DefaultHourlyRate: f.DefaultHourlyRate,
		WorkOrderTypes:    SplitList(f.WorkOrderTypes),
		GrapeVarieties:    SplitList(f.GrapeVarieties),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
