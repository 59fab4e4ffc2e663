package boot

import (
	"log"
	"time"

	"lms/src/common"
	"lms/src/config"
	"lms/src/db"
	"lms/src/lib"
	"lms/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Transaction{},
		&models.Enrollment{},
		&models.WebhookEvent{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the reconciliation sweep: pending transactions
// that never resolved within the configured window are failed so they
// stop accumulating. This is the only periodic job; settlement itself
// is always request-driven.
func InitScheduler() {
	ttl := config.PendingTTL()
	id, err := lib.CreateCronJob(func() {
		common.SweepStalePendingTransactions(ttl)
	}, 1*time.Hour)
	if err != nil {
		log.Printf("Error scheduling reconciliation sweep: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
	log.Printf("Reconciliation sweep scheduled: %s\n", *id)
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
