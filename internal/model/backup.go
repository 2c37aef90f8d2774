package model

import "time"

type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup records one encrypted snapshot of the key/value store held in object storage.
type Backup struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	ObjectKey    string       `json:"objectKey"`
	SizeBytes    int64        `json:"sizeBytes"`
	KeyCount     int          `json:"keyCount"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
