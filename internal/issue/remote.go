package issue

import "time"

// Remote pairs a record with the server-side modification timestamp
// GitHub reports for it. The timestamp drives remote-change detection;
// it never appears in the local file.
type Remote struct {
	Record
	UpdatedAt time.Time
}
