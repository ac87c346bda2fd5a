// Command permsync applies the declarative role permission rule set to
// the role_permission table.  It is run administratively after a
// deployment or a catalogue change, not on a timer.  Re-running it is
// safe: the procedure deletes and re-grants per role inside a
// transaction, so two consecutive runs produce identical grant sets.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/config"
	"github.com/locvx/tour-booking-auth/internal/database"
	"github.com/locvx/tour-booking-auth/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roles := repository.NewRoleRepo(db)
	if err := roles.Sync(ctx, authz.DefaultRules); err != nil {
		log.Fatalf("permission sync failed: %v", err)
	}

	for _, rule := range authz.DefaultRules {
		role, err := roles.GetByName(ctx, rule.Role)
		if err != nil {
			log.Fatalf("verify role %s: %v", rule.Role, err)
		}
		grants, err := roles.GrantsForRole(ctx, role.ID)
		if err != nil {
			log.Fatalf("verify grants %s: %v", rule.Role, err)
		}
		log.Printf("role %-10s -> %d grants", rule.Role, len(grants))
	}
	log.Println("permission sync complete")
}
