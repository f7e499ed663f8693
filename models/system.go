package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog is an append-only System_Logs audit row.
type SystemLog struct {
	LogID     string   `gorm:"column:Log_ID;primaryKey" json:"Log_ID"`
	Timestamp JSONTime `gorm:"column:Timestamp;index" json:"Timestamp"`
	UserID    string   `gorm:"column:User_ID;index" json:"User_ID"`
	Action    string   `gorm:"column:Action" json:"Action"`
	Target    string   `gorm:"column:Target" json:"Target"`
	Details   string   `gorm:"column:Details" json:"Details"`
	Status    string   `gorm:"column:Status;default:Success" json:"Status"`
}

func (SystemLog) TableName() string { return "System_Logs" }

// SystemConfig is an opaque key-value pair; numeric settings are parsed
// as floats where used.
type SystemConfig struct {
	ConfigKey   string `gorm:"column:Config_Key;primaryKey" json:"Config_Key"`
	ConfigValue string `gorm:"column:Config_Value" json:"Config_Value"`
	Description string `gorm:"column:Description" json:"Description"`
}

func (SystemConfig) TableName() string { return "System_Config" }

// Recognized System_Config keys and their fallbacks.
const (
	CfgDieselPrice       = "fuel_diesel_price"
	CfgFuel4W            = "fuel_4w"
	CfgFuel6W            = "fuel_6w"
	CfgFuel10W           = "fuel_10w"
	CfgDepreciationPerKM = "cost_depreciation_per_km"
	CfgLaborPerDrop      = "cost_labor_per_drop"
	CfgDefaultToll       = "cost_default_toll"
)

// UserPref keeps per-user alert state: the dismissed-alert id set, the
// first-observed timestamp per alert id, and the last time the alert page
// was opened. Replaces the session-state the old admin UI held in memory.
type UserPref struct {
	UserID         string         `gorm:"column:User_ID;primaryKey" json:"User_ID"`
	DismissedAlerts datatypes.JSON `gorm:"column:Dismissed_Alerts;type:jsonb" json:"Dismissed_Alerts"`
	SeenTimestamps datatypes.JSON `gorm:"column:Seen_Timestamps;type:jsonb" json:"Seen_Timestamps"`
	LastViewed     *JSONTime      `gorm:"column:Last_Viewed" json:"Last_Viewed,omitempty"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (UserPref) TableName() string { return "User_Prefs" }

// Notification is a queued driver push row; delivery is someone else's
// problem, this table is only the enqueue contract.
type Notification struct {
	NotificationID string   `gorm:"column:Notification_ID;primaryKey" json:"Notification_ID"`
	DriverID       string   `gorm:"column:Driver_ID;index" json:"Driver_ID"`
	Title          string   `gorm:"column:Title" json:"Title"`
	Body           string   `gorm:"column:Body" json:"Body"`
	RefID          string   `gorm:"column:Ref_ID" json:"Ref_ID"`
	Status         string   `gorm:"column:Status;default:Pending" json:"Status"`
	CreatedAt      JSONTime `gorm:"column:Created_At" json:"Created_At"`
}

func (Notification) TableName() string { return "Notifications" }
