package schema

import "time"

// Version is bumped whenever Migrate gains a new step.
const Version = "3"

const versionKey = "schema_version"

// VersionKey is the schema_meta key holding the applied Version.
func VersionKey() string {
	return versionKey
}

type Meta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (Meta) TableName() string {
	return "schema_meta"
}
