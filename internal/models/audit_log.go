package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionStatusChange   AuditAction = "booking_status_change"
	AuditActionPaymentConfirm AuditAction = "payment_confirm"
	AuditActionPaymentFail    AuditAction = "payment_fail"
)

// AuditLog records one administrative change to a booking.
type AuditLog struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ActorID    string                 `json:"actor_id" bson:"actor_id"`
	Action     AuditAction            `json:"action" bson:"action"`
	Resource   string                 `json:"resource" bson:"resource"`
	ResourceID string                 `json:"resource_id" bson:"resource_id"`
	OldValues  map[string]interface{} `json:"old_values,omitempty" bson:"old_values,omitempty"`
	NewValues  map[string]interface{} `json:"new_values,omitempty" bson:"new_values,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
