// Package domain defines the persistence models and value types of the
// analytics pipeline: page-view sessions, post stats counters, aggregation
// rows, and idempotency records. Table-backed types are mapped with GORM.
package domain

import "time"

// Session is one recorded page visit. Rows are append-only: they are created
// by the ingestion endpoint and never updated or deleted.
//
// Fields:
//   - ID: UUID primary key (char(36)); internal, never serialized.
//   - Path: visited path, always starting with "/".
//   - Referrer, Browser, OS, Device, Screen, Language: client-reported,
//     nullable when unknown.
//   - City, Country, Region, Flag, Latitude, Longitude: derived from the
//     request at the edge, nullable.
//   - CreatedAt: server-assigned insert time (UTC), immutable.
//   - Duration: reserved; unused at write time and never serialized.
type Session struct {
	ID        string    `json:"-"         gorm:"type:char(36);primaryKey"`
	Path      string    `json:"path"      gorm:"type:varchar(2048);not null;index"`
	Referrer  *string   `json:"referrer"  gorm:"type:varchar(2048)"`
	Browser   *string   `json:"browser"   gorm:"type:varchar(64)"`
	OS        *string   `json:"os"        gorm:"column:os;type:varchar(64)"`
	Device    *string   `json:"device"    gorm:"type:varchar(32)"`
	Screen    *string   `json:"screen"    gorm:"type:varchar(32)"`
	Language  *string   `json:"language"  gorm:"type:varchar(35)"`
	City      *string   `json:"city"      gorm:"type:varchar(128)"`
	Country   *string   `json:"country"   gorm:"type:varchar(2);index"`
	Region    *string   `json:"region"    gorm:"type:varchar(16)"`
	Flag      *string   `json:"flag"      gorm:"type:varchar(16)"`
	Latitude  *string   `json:"latitude"  gorm:"type:varchar(32)"`
	Longitude *string   `json:"longitude" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index;autoCreateTime:false"`
	Duration  *int64    `json:"-"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }
