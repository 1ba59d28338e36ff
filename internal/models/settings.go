package models

import (
	"time"
)

// SiteSettings is a single document in the "settings" collection holding
// admin-editable site configuration (currently just the display name).
type SiteSettings struct {
	ID        string    `bson:"_id" json:"-"`
	AppName   string    `bson:"app_name" json:"app_name"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SettingsDocID is the fixed _id of the settings singleton.
const SettingsDocID = "site"
