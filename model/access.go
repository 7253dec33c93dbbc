package model

import "time"

// AccessRecord is one logged visit. The id and timestamp are assigned by the
// server at ingestion time and never change afterwards.
type AccessRecord struct {
	ID        string          `json:"id"`
	AppName   string          `json:"appName"`
	Timestamp time.Time       `json:"timestamp"`
	Meta      *ClientMetadata `json:"meta,omitempty"` // nil for legacy records
}

// ClientMetadata describes the client that produced an access record.
type ClientMetadata struct {
	Browser    Browser `json:"browser"`
	OS         OS      `json:"os"`
	Device     Device  `json:"device"`
	Platform   string  `json:"platform"`
	UserAgent  string  `json:"userAgent"`
	Screen     Screen  `json:"screen"`
	Locale     string  `json:"locale"`
	Timezone   string  `json:"timezone"`
	Referrer   string  `json:"referrer"`
	PageURL    string  `json:"pageUrl"`
	ClientTime string  `json:"clientTime"` // ISO, for drift checks
}

type Browser struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type OS struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Device struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

type Screen struct {
	W   float64 `json:"w"`
	H   float64 `json:"h"`
	DPR float64 `json:"dpr"`
}
