package common

import (
	"lms/src/db"
	"lms/src/models"
	"lms/src/types"

	"gorm.io/gorm/clause"
)

// RecordWebhookEvent inserts a delivery into the dedup ledger. The
// unique index on event_key also settles races between concurrent
// deliveries of the same event: exactly one insert lands. Returns
// false for a re-delivery.
func RecordWebhookEvent(eventKey string, reference string, payload types.JSONB) (bool, error) {
	gdb := db.GetDb()
	event := &models.WebhookEvent{
		EventKey:  eventKey,
		Reference: reference,
		Payload:   payload,
	}
	res := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_key"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
