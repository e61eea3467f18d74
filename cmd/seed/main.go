// Command seed populates the database with demo accounts, laboratories
// and two weeks of randomized reservations for local development.
package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/config"
	"github.com/labmate/labmate/internal/database"
	"github.com/labmate/labmate/internal/logger"
	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/repository"
	"github.com/labmate/labmate/internal/schedule"
	"github.com/labmate/labmate/internal/service"
	"github.com/labmate/labmate/internal/timegrid"
)

type demoUser struct {
	first, last, email, password, role string
}

var demoUsers = []demoUser{
	{"John", "Doe", "john.doe@example.com", "password123", "STUDENT"},
	{"Jane", "Smith", "jane.smith@example.com", "password123", "STUDENT"},
	{"Alex", "Johnson", "alex.johnson@example.com", "password123", "STUDENT"},
	{"Emily", "Brown", "emily.brown@example.com", "password123", "STUDENT"},
	{"Anja", "Gonzales", "anja.gonzales@example.com", "password123", "STUDENT"},
	{"Liana", "Ho", "liana.ho@example.com", "password123", "STUDENT"},
	{"Robert", "Williams", "robert.williams@example.com", "password123", "LABTECH"},
	{"Sarah", "Davis", "sarah.davis@example.com", "password123", "LABTECH"},
	{"Michael", "Wilson", "michael.wilson@example.com", "password123", "LABTECH"},
	{"Lisa", "Taylor", "lisa.taylor@example.com", "password123", "LABTECH"},
}

var demoLabs = []model.Laboratory{
	{Hall: "Gokongwei Hall", Room: "GK404B", Capacity: 20},
	{Hall: "Gokongwei Hall", Room: "GK201A", Capacity: 20},
	{Hall: "Gokongwei Hall", Room: "GK302A", Capacity: 20},
	{Hall: "Andrew Hall", Room: "AG1904", Capacity: 40},
	{Hall: "Andrew Hall", Room: "AG1706", Capacity: 40},
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("schema migration failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepo(db)
	labRepo := repository.NewLaboratoryRepo(db)
	resRepo := repository.NewReservationRepo(db)

	userIDs := seedUsers(ctx, log, userRepo)
	seedLabs(ctx, log, labRepo)

	loc := cfg.Location()
	svc := service.NewReservationService(resRepo, labRepo, userRepo, schedule.RealClock{}, loc, log, nil)
	seedReservations(ctx, log, svc, userIDs, loc)

	log.Info("seeding complete")
}

func seedUsers(ctx context.Context, log *zap.Logger, repo *repository.UserRepo) []uint64 {
	ids := make([]uint64, 0, len(demoUsers))
	for _, u := range demoUsers {
		id, err := repo.Create(ctx, u.first, u.last, u.email, u.password, u.role, 10)
		if errors.Is(err, repository.ErrEmailExists) {
			existing, err := repo.GetByEmail(ctx, u.email)
			if err != nil {
				log.Fatal("lookup existing user failed", zap.String("email", u.email), zap.Error(err))
			}
			ids = append(ids, existing.ID)
			continue
		}
		if err != nil {
			log.Fatal("create user failed", zap.String("email", u.email), zap.Error(err))
		}
		ids = append(ids, id)
	}
	log.Info("demo users ready", zap.Int("count", len(ids)))
	return ids
}

func seedLabs(ctx context.Context, log *zap.Logger, repo *repository.LaboratoryRepo) {
	for i := range demoLabs {
		lab := demoLabs[i]
		if _, err := repo.FindByRoom(ctx, lab.Room); err == nil {
			continue // already present
		}
		if err := repo.Insert(ctx, &lab); err != nil {
			log.Fatal("insert laboratory failed", zap.String("room", lab.Room), zap.Error(err))
		}
	}
	log.Info("demo laboratories ready", zap.Int("count", len(demoLabs)))
}

// seedReservations books 15 random seats per day across a two-week demo
// window. Conflicting picks are simply skipped; the run stays idempotent
// because a re-run collides with the slots it created last time.
func seedReservations(ctx context.Context, log *zap.Logger, svc *service.ReservationService, userIDs []uint64, loc *time.Location) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	slots := timegrid.Slots()

	created, skipped := 0, 0
	for day := 15; day <= 29; day++ {
		date := time.Date(2025, time.March, day, 0, 0, 0, 0, loc)
		for i := 0; i < 15; i++ {
			lab := demoLabs[rng.Intn(len(demoLabs))]
			startIdx := rng.Intn(len(slots) - 1)
			// Windows of one to three half-hour slots.
			endIdx := startIdx + 1 + rng.Intn(3)
			if endIdx >= len(slots) {
				endIdx = len(slots) - 1
			}

			_, err := svc.Create(ctx, service.CreateParams{
				Room:        lab.Room,
				Date:        date,
				SeatNumber:  1 + rng.Intn(lab.Capacity),
				StartTime:   slots[startIdx],
				EndTime:     slots[endIdx],
				UserID:      userIDs[rng.Intn(len(userIDs))],
				IsAnonymous: rng.Float64() > 0.8,
			})
			var conflict *service.SeatConflictError
			switch {
			case err == nil:
				created++
			case errors.As(err, &conflict):
				skipped++
			default:
				log.Fatal("seed reservation failed", zap.Error(err))
			}
		}
	}
	log.Info("demo reservations ready", zap.Int("created", created), zap.Int("skipped", skipped))
}
