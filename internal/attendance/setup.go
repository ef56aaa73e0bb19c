package attendance

import (
	"log"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/config"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/placement"
)

// recorder is the package-wide authority handlers submit through.
var recorder *Recorder

func Init(cfg config.Config) {
	if err := db.EnsureSchema(db.DB, "ttfpp"); err != nil {
		log.Fatal("Failed to ensure schema ttfpp: ", err)
	}

	if err := db.DB.AutoMigrate(&AttendanceRecord{}, &AuditEvent{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	recorder = &Recorder{
		DB:              db.DB,
		Directory:       placement.GormDirectory{},
		ThresholdMeters: cfg.GeofenceMeters,
		Audit:           &AuditSink{DB: db.DB},
	}

	log.Printf("[attendance] geofence threshold %.0fm", cfg.GeofenceMeters)
}
