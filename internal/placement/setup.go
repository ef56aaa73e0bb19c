package placement

import (
	"log"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "ttfpp"); err != nil {
		log.Fatal("Failed to ensure schema ttfpp: ", err)
	}

	if err := db.DB.AutoMigrate(&AcademicSession{}, &Community{}, &Placement{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
