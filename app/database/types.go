package database

// Record is one archived announcement row. The JSON output file is the
// per-invocation snapshot; the archive accumulates across invocations so
// announcements that disappear from a site are not lost.
//
// Timestamps stay as the TEXT values sqlite stores, which keeps scanning
// driver-independent.
type Record struct {
	ID        string
	City      string
	URL       string
	Title     string
	Date      string
	Content   string
	CreatedAt string
	UpdatedAt string
}

type RecordRepository interface {
	UpsertRecord(record Record) error
	GetRecords(city string, limit int) ([]Record, error)
	GetRecordCount() (int, error)
}
