package gormrepo

import "time"

// ProfileRecord mirrors the profile_records table. tools/modelgen regenerates
// the reference model from a live schema.
type ProfileRecord struct {
	ProfileID string    `gorm:"column:profile_id;primaryKey"`
	Payload   []byte    `gorm:"column:payload;not null"`
	Version   int64     `gorm:"column:version;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (ProfileRecord) TableName() string {
	return "profile_records"
}
