package models

// Snapshot is the versioned backup document. Its JSON shape is the export
// file format and must stay stable.
type Snapshot struct {
	Version   int      `json:"version"`
	Email     Identity `json:"email"`
	CreatedAt string   `json:"createdAt"`
	Payload   Payload  `json:"payload"`
}

type Payload struct {
	Entries      Entries `json:"entries"`
	Phase        int     `json:"phase"`
	SelectedDate string  `json:"selectedDate"`
	WeekStartDay int     `json:"weekStartDay"`
}

// Settings extracts the settings half of the payload.
func (p Payload) Settings() Settings {
	return Settings{
		Phase:        p.Phase,
		SelectedDate: p.SelectedDate,
		WeekStartDay: p.WeekStartDay,
	}
}

// BackupMeta describes the most recent backup for an identity. URI is nil
// when the snapshot only lives in the key-value cache.
type BackupMeta struct {
	CreatedAt string  `json:"createdAt"`
	URI       *string `json:"uri"`
}
