package entity

import "time"

// Channel is the push destination registered for a principal. One channel
// per principal; re-registration overwrites the device token.
type Channel struct {
	Principal   string
	DeviceToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Delivery is the audit row written for every confirmation send.
type Delivery struct {
	ID        int64
	RecordID  string
	Principal string
	Status    DeliveryStatus
	SentAt    time.Time
}

// PendingCode is the single live confirmation code for a principal. The
// code itself is never stored, only its keyed hash.
type PendingCode struct {
	RecordID   string `json:"record_id"`
	DeliveryID int64  `json:"delivery_id"`
	CodeHash   string `json:"code_hash"`
}
