package dto

// ScanRequest carries one raw token from a scanner or manual entry.
type ScanRequest struct {
	Token string `json:"token"`
}

// ModeRequest toggles the dispatcher mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// ScanStateResponse reports the session's current position.
type ScanStateResponse struct {
	SessionID string      `json:"session_id"`
	Mode      string      `json:"mode"`
	Phase     string      `json:"phase"`
	Display   interface{} `json:"display,omitempty"`
}
