// Package domain defines the persistence models for users, sleep sessions,
// and notes. These types are mapped with GORM and form the core data layer
// of the sleep tracker.
package domain

// User is a bot user. The ID is assigned externally (the chat identity), so
// it is never auto-incremented. Rows are inserted once and never updated.
//
// Fields:
//   - ID: external identifier, primary key.
//   - Name: display name captured on first contact.
type User struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement:false"`
	Name string `json:"name" gorm:"type:text;not null"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// SleepRecord is one sleep session. It is created open (SleepTime only),
// finished when WakeTime is set, and rated when SleepQuality is set. No other
// column changes after creation.
//
// Fields:
//   - ID: sequential primary key.
//   - UserID: owning user (foreign key, indexed with SleepTime).
//   - SleepTime: when the user went to bed.
//   - WakeTime: when the user woke up; nil while the session is open.
//   - SleepQuality: 1..5 once rated; nil before.
//   - User: FK association to users.
type SleepRecord struct {
	ID           int64      `json:"id"                      gorm:"primaryKey;autoIncrement"`
	UserID       int64      `json:"user_id"                 gorm:"not null;index:idx_sleep_user_time,priority:1"`
	SleepTime    Timestamp  `json:"sleep_time"              gorm:"type:text;not null;index:idx_sleep_user_time,priority:2"`
	WakeTime     *Timestamp `json:"wake_time,omitempty"     gorm:"type:text"`
	SleepQuality *int       `json:"sleep_quality,omitempty" gorm:"column:sleep_quality"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for SleepRecord.
func (SleepRecord) TableName() string { return "sleep_records" }

// Note is the free-text comment attached to a rated sleep session. A session
// has at most one note (unique index on SleepRecordID); writing again replaces
// the text.
type Note struct {
	ID            int64  `json:"id"              gorm:"primaryKey;autoIncrement"`
	SleepRecordID int64  `json:"sleep_record_id" gorm:"not null;uniqueIndex:ux_notes_sleep_record"`
	Text          string `json:"notes_text"      gorm:"column:notes_text;type:text"`

	SleepRecord SleepRecord `json:"-" gorm:"foreignKey:SleepRecordID;references:ID"`
}

// TableName returns the database table name for Note.
func (Note) TableName() string { return "notes" }
