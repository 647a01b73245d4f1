package boot

import (
	"atelier/src/common"
	"atelier/src/db"
	"atelier/src/lib"
	"atelier/src/models"
	"log"
)

func InitDb() {
	db := db.GetDb()
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Workshop{},
		&models.WorkshopSession{},
		&models.Reservation{},
		&models.GiftCard{},
		&models.GiftCardTransaction{},
		&models.Client{},
		&models.Post{},
	)
	if err != nil {
		panic(err)
	}
}

// InitScheduler starts the hold-expiry sweep when a lease is configured.
func InitScheduler() {
	lease, ok := common.HoldExpiry()
	if !ok {
		log.Println("[scheduler] no hold expiry configured, sweeper not started")
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		return
	}
	jobId, err := lib.CreateCronJob(common.ExpireStaleHolds, lease)
	if err != nil {
		log.Printf("[scheduler] could not schedule hold sweeper: %s\n", err.Error())
		return
	}
	sched.Start()
	log.Printf("[scheduler] hold sweeper running every %s (job %s)\n", lease, *jobId)
}
