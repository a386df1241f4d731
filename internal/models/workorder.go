package models

import "time"

// WorkOrder is the canonical business entity, one table per project schema.
// Status, serviceType, trouble and the meter types are stored by code and
// reference the shared lookup tables in the public schema. AssignedGroupID
// always holds the group's canonical name, never its numeric id.
type WorkOrder struct {
	ID              int        `json:"id"`
	CustomerWoID    *string    `json:"customerWoId"`
	CustomerID      *string    `json:"customerId"`
	CustomerName    *string    `json:"customerName"`
	Address         *string    `json:"address"`
	City            *string    `json:"city"`
	State           *string    `json:"state"`
	Zip             *string    `json:"zip"`
	Phone           *string    `json:"phone"`
	Email           *string    `json:"email"`
	Route           *string    `json:"route"`
	Zone            *string    `json:"zone"`
	Status          *string    `json:"status"`
	ServiceType     *string    `json:"serviceType"`
	OldMeterID      *string    `json:"oldMeterId"`
	NewMeterID      *string    `json:"newMeterId"`
	OldReading      *string    `json:"oldReading"`
	NewReading      *string    `json:"newReading"`
	OldGPS          *string    `json:"oldGps"`
	NewGPS          *string    `json:"newGps"`
	OldMeterType    *string    `json:"oldMeterType"` // catalog product id, not row id
	NewMeterType    *string    `json:"newMeterType"`
	Trouble         *string    `json:"trouble"`
	AssignedUserID  *int       `json:"assignedUserId"`
	AssignedGroupID *string    `json:"assignedGroupId"` // group name
	ScheduledAt     *time.Time `json:"scheduledAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	ScheduledBy     *int       `json:"scheduledBy"`
	CompletedBy     *int       `json:"completedBy"`
	CreatedBy       *int       `json:"createdBy"`
	UpdatedBy       *int       `json:"updatedBy"`
	Notes           *string    `json:"notes"` // append-only audit log
	Attachments     []string   `json:"attachments"`
	Signature       *string    `json:"signature"`
	SignatureName   *string    `json:"signatureName"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// WorkOrderPatch is the explicit partial-update shape for creates and
// updates. A nil pointer means "not present in this write"; present fields
// go through the status derivation rules before persistence. ScheduledAt and
// Trouble are tri-state so a caller can distinguish clearing from omitting.
type WorkOrderPatch struct {
	CustomerWoID    *string        `json:"customerWoId"`
	CustomerID      *string        `json:"customerId"`
	CustomerName    *string        `json:"customerName"`
	Address         *string        `json:"address"`
	City            *string        `json:"city"`
	State           *string        `json:"state"`
	Zip             *string        `json:"zip"`
	Phone           *string        `json:"phone"`
	Email           *string        `json:"email"`
	Route           *string        `json:"route"`
	Zone            *string        `json:"zone"`
	Status          *string        `json:"status"`
	ServiceType     *string        `json:"serviceType"`
	OldMeterID      *string        `json:"oldMeterId"`
	NewMeterID      *string        `json:"newMeterId"`
	OldReading      *string        `json:"oldReading"`
	NewReading      *string        `json:"newReading"`
	OldGPS          *string        `json:"oldGps"`
	NewGPS          *string        `json:"newGps"`
	OldMeterType    *string        `json:"oldMeterType"`
	NewMeterType    *string        `json:"newMeterType"`
	Trouble         OptionalString `json:"trouble"`
	AssignedUserID  *int           `json:"assignedUserId"`
	AssignedGroupID *string        `json:"assignedGroupId"` // accepts id or name
	ScheduledAt     OptionalTime   `json:"scheduledAt"`
	Notes           *string        `json:"notes"` // appended, never replaces history
	Attachments     *[]string      `json:"attachments"`
	Signature       *string        `json:"signature"`
	SignatureName   *string        `json:"signatureName"`
	CreatedBy       *int           `json:"createdBy"`
}

// ListFilters narrows List results. AssignedGroup accepts a group id or
// name; the store resolves it before querying.
type ListFilters struct {
	Status         string
	AssignedUserID *int
	AssignedGroup  string
}

// BulkUpsertResult reports a best-effort batch import: per-row failures are
// collected, never aborting the batch.
type BulkUpsertResult struct {
	BatchID string   `json:"batchId"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// WorkOrderStats folds status codes and labels into canonical label buckets.
type WorkOrderStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}
