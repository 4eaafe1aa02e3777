package models

import (
	"time"

	"github.com/google/uuid"
)

// VoucherBatch records one bulk stock upload for audit purposes.
type VoucherBatch struct {
	ID            uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherTypeID uuid.UUID   `gorm:"column:voucher_type_id;type:uuid;not null"`
	UploadedBy    uuid.UUID   `gorm:"column:uploaded_by;type:uuid;not null"`
	UnitCount     int         `gorm:"column:unit_count;not null"`
	RejectedCount int         `gorm:"column:rejected_count;not null;default:0"`
	VoucherType   *VoucherType `gorm:"foreignKey:VoucherTypeID"`
	CreatedAt     time.Time   `gorm:"column:created_at;autoCreateTime"`
}
