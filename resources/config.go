package resources

import "context"

const pathConfigSystem = "/config-system"

// SystemConfig holds the organisation wide settings admins edit
type SystemConfig struct {
	CompanyName       string   `json:"companyName"`
	SupportEmail      string   `json:"supportEmail,omitempty"`
	Timezone          string   `json:"timezone,omitempty"`
	DefaultHourlyRate float64  `json:"defaultHourlyRate,omitempty"`
	WorkOrderTypes    []string `json:"workOrderTypes,omitempty"`
	GrapeVarieties    []string `json:"grapeVarieties,omitempty"`
}

type SystemConfigs struct {
	r Requester
}

func (c *SystemConfigs) Get(ctx context.Context) (SystemConfig, error) {
	return decodeMeta[SystemConfig](c.r.Get(ctx, pathConfigSystem, nil))
}

func (c *SystemConfigs) Update(ctx context.Context, cfg SystemConfig) (SystemConfig, error) {
	return decodeMeta[SystemConfig](c.r.Put(ctx, pathConfigSystem, cfg))
}
