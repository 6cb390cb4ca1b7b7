package dbmysql

import (
	"time"
)

// Attachment is a file attached to a chat message, stored on disk
// under the uploads root.
//
// Lifecycle: created with FirstDownloadedAt and DeleteAfter both nil
// (retained indefinitely). The first successful download stamps both
// fields, DeleteAfter = FirstDownloadedAt + 48h. Once wall-clock time
// passes DeleteAfter the attachment is eligible for the sweep, which
// removes the file, the download-log rows and this row. The two
// timestamp fields are set together exactly once, never reset.
type Attachment struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	MessageID         int64      `gorm:"column:message_id;not null;index" json:"message_id"`
	URL               string     `gorm:"column:url;size:500;not null" json:"url"`
	FileName          string     `gorm:"column:file_name;size:255;not null" json:"file_name"`
	MimeType          string     `gorm:"column:mime_type;size:100" json:"mime_type"`
	Size              int64      `gorm:"column:size" json:"size"`
	FirstDownloadedAt *time.Time `gorm:"column:first_downloaded_at" json:"first_downloaded_at,omitempty"`
	DeleteAfter       *time.Time `gorm:"column:delete_after;index" json:"delete_after,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// AttachmentDownload records that a user has fetched an attachment at
// least once, unique per (attachment, user) pair. Used only to gate
// the one-time TTL stamping; repeated downloads upsert the row without
// touching the TTL clock.
type AttachmentDownload struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AttachmentID string    `gorm:"column:attachment_id;size:36;not null;index:idx_attachment_user,unique" json:"attachment_id"`
	UserID       uint64    `gorm:"column:user_id;not null;index:idx_attachment_user,unique" json:"user_id"`
	DownloadedAt time.Time `gorm:"column:downloaded_at" json:"downloaded_at"`
}
