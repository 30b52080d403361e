package models

import "time"

// Upload represents a stored license document. UserID is nullable because
// license files are uploaded during doctor registration, before the account
// row exists.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      *uint  `gorm:"index"`
	FileName    string `gorm:"size:255;not null"` // original client-side name
	StoredName  string `gorm:"size:255;not null;uniqueIndex"`
	StorePath   string `gorm:"column:store_path;size:512;not null"`
	ContentType string `gorm:"size:128"`
	Size        int64

	// Filled in by the license-scan worker.
	LicenseNumber string `gorm:"size:64"`
	// Mark upload as failed for scanning (do not delete the record so an
	// admin can review it).
	ScanFailed bool   `gorm:"default:false;index"`
	ScanError  string `gorm:"size:255"`
}
