package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Light models
type LightStateData struct {
	Color      uint32 `json:"color" example:"4278255360" doc:"ARGB color, alpha in the top byte"`
	FlashMode  string `json:"flash_mode" required:"false" enum:"none,timed,hardware" default:"none" example:"timed" doc:"Flash mode"`
	FlashOnMs  int    `json:"flash_on_ms,omitempty" minimum:"0" maximum:"3600000" example:"500" doc:"On duration in milliseconds when flashing"`
	FlashOffMs int    `json:"flash_off_ms,omitempty" minimum:"0" maximum:"3600000" example:"500" doc:"Off duration in milliseconds when flashing"`
}

type LightData struct {
	Type     string         `json:"type" example:"battery" doc:"Light type"`
	Priority int            `json:"priority" example:"2" doc:"Position in the priority table, 0 is highest"`
	State    LightStateData `json:"state" doc:"Last requested state"`
}

type LightListData struct {
	Lights []LightData `json:"lights" doc:"Supported lights in priority order"`
	Count  int         `json:"count" example:"4" doc:"Number of supported lights"`
	// Keyed by "<led>/<attribute>", e.g. "green/pwm_us".
	Hardware map[string]int `json:"hardware" doc:"Last values written to the LED attributes; attributes not written since start are absent"`
}

type LightListResponse struct {
	Body LightListData
}

type LightPath struct {
	Type string `path:"type" example:"battery" doc:"Light type (backlight, notifications, battery, attention)"`
}

type LightResponse struct {
	Body LightData
}

type SetLightRequest struct {
	Type string `path:"type" example:"battery" doc:"Light type (backlight, notifications, battery, attention)"`
	Body LightStateData
}

type SetLightData struct {
	Status string `json:"status" enum:"SUCCESS,LIGHT_NOT_SUPPORTED" example:"SUCCESS" doc:"Dispatcher status"`
}

type SetLightResponse struct {
	Body SetLightData
}
