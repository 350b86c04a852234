package models

// SyncElephantRequest is the body of POST /api/sync_elephant. A null or
// missing pos keeps the mirror's current position.
type SyncElephantRequest struct {
	Pos      *Position   `json:"pos"`
	Level    ThreatLevel `json:"level"`
	Scenario string      `json:"scenario"`
}

// SimulateRequest is the body of POST /api/simulate. User coordinates are
// optional; nil and zero both mean unknown.
type SimulateRequest struct {
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	Status      string      `json:"status"`
	ThreatLevel ThreatLevel `json:"threatLevel"`
	UserLat     *float64    `json:"userLat,omitempty"`
	UserLng     *float64    `json:"userLng,omitempty"`
}

// UserPosition returns the caller position when both coordinates are set and non-zero.
func (r SimulateRequest) UserPosition() (Position, bool) {
	if r.UserLat == nil || r.UserLng == nil || *r.UserLat == 0 || *r.UserLng == 0 {
		return Position{}, false
	}
	return Position{Lat: *r.UserLat, Lng: *r.UserLng}, true
}

type SimulateResponse struct {
	Success  bool   `json:"success"`
	Distance string `json:"distance,omitempty"`
}

// TriggerScenarioRequest is the body of POST /api/scenario.
type TriggerScenarioRequest struct {
	Mode    ScenarioMode `json:"mode"`
	UserLat *float64     `json:"userLat,omitempty"`
	UserLng *float64     `json:"userLng,omitempty"`
}

// Caller returns the operator position if both coordinates were supplied.
func (r TriggerScenarioRequest) Caller() *Position {
	if r.UserLat == nil || r.UserLng == nil {
		return nil
	}
	return &Position{Lat: *r.UserLat, Lng: *r.UserLng}
}

type SetModeRequest struct {
	Mode ScenarioMode `json:"mode"`
}

type ChatVoiceResponse struct {
	ReplyText string `json:"reply_text"`
	UserText  string `json:"user_text"`
}

type DetectResponse struct {
	Detections []Detection `json:"detections"`
}

type DeviceSummary struct {
	Devices []Device `json:"devices"`
	Online  int      `json:"online"`
	Total   int      `json:"total"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type PublicConfig struct {
	MapClientID string `json:"map_client_id"`
	LiffID      string `json:"liff_id"`
}
