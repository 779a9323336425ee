// Command sanitrack-seed populates a configured store with a working data
// set: one account per role, two villages, facilities, and sample
// inspections and issues. Intended for demos and local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/config"
	"github.com/sanitrack/sanitrack/pkg/model"
	"github.com/sanitrack/sanitrack/pkg/observability"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/storage/surreal"
)

func main() {
	password := flag.String("password", "ChangeMe123", "password assigned to every seeded account")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

	ctx := context.Background()

	var store storage.Store
	switch cfg.Storage.Type {
	case "surreal":
		store, err = surreal.New(ctx, cfg.Storage)
		if err != nil {
			logger.Error("failed to initialize storage", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		logger.Error("seeding an in-memory store is pointless; configure SANITRACK_STORAGE_TYPE=surreal")
		os.Exit(1)
	}
	defer store.Close()

	if err := seed(ctx, store, cfg, *password, logger); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seeding complete")
}

func seed(ctx context.Context, store storage.Store, cfg *config.Config, password string, logger *slog.Logger) error {
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(store, tokens)
	villages := service.NewVillageService(store)
	inspections := service.NewInspectionService(store)
	issues := service.NewIssueService(store)

	blobs, err := storage.NewBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	facilities := service.NewFacilityService(store, blobs)

	admin, _, err := authService.Register(ctx, service.RegisterInput{
		Name: "Amina Hassan", Email: "admin@sanitrack.example", Password: password, Role: model.RoleAdmin,
		Phone: "+255-700-000-001",
	})
	if err != nil {
		return err
	}
	inspector, _, err := authService.Register(ctx, service.RegisterInput{
		Name: "Joseph Mwakyusa", Email: "inspector@sanitrack.example", Password: password, Role: model.RoleInspector,
		Phone: "+255-700-000-002",
	})
	if err != nil {
		return err
	}
	leader, _, err := authService.Register(ctx, service.RegisterInput{
		Name: "Neema Shirima", Email: "leader@sanitrack.example", Password: password, Role: model.RoleCommunityLeader,
		Phone: "+255-700-000-003",
	})
	if err != nil {
		return err
	}
	logger.Info("seeded accounts",
		slog.String("admin", admin.Email),
		slog.String("inspector", inspector.Email),
		slog.String("leader", leader.Email),
	)

	adminID := &auth.Identity{ID: admin.ID, Role: admin.Role, Name: admin.Name, Email: admin.Email}
	inspectorID := &auth.Identity{ID: inspector.ID, Role: inspector.Role, Name: inspector.Name, Email: inspector.Email}
	leaderID := &auth.Identity{ID: leader.ID, Role: leader.Role, Name: leader.Name, Email: leader.Email}

	kilima, err := villages.Create(ctx, service.CreateVillageInput{
		Name: "Kilimahewa", District: "Kilosa", Region: "Morogoro", Population: 2300,
		AssignedInspector: inspector.ID,
		Description:       "Farming village along the Mkondoa river.",
	})
	if err != nil {
		return err
	}
	mto, err := villages.Create(ctx, service.CreateVillageInput{
		Name: "Mtowisa", District: "Sumbawanga", Region: "Rukwa", Population: 4100,
		AssignedInspector: inspector.ID,
	})
	if err != nil {
		return err
	}

	well, err := facilities.Create(ctx, inspectorID, service.CreateFacilityInput{
		Name: "Kilimahewa Central Well", Type: model.FacilityWell, Village: kilima.ID,
		Location:      []float64{37.002, -6.833},
		Condition:     model.ConditionGood,
		InstalledDate: time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return err
	}
	pump, err := facilities.Create(ctx, inspectorID, service.CreateFacilityInput{
		Name: "Mtowisa Hand Pump", Type: model.FacilityHandPump, Village: mto.ID,
		Location:      []float64{31.612, -7.967},
		Condition:     model.ConditionFair,
		InstalledDate: time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return err
	}
	if _, err := facilities.Create(ctx, adminID, service.CreateFacilityInput{
		Name: "Kilimahewa School Toilets", Type: model.FacilityToilet, Village: kilima.ID,
		Location:      []float64{37.004, -6.835},
		Condition:     model.ConditionPoor,
		InstalledDate: time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC),
		Notes:         "Shared by the primary school, heavy daily use.",
	}); err != nil {
		return err
	}

	if _, err := inspections.Create(ctx, inspectorID, service.CreateInspectionInput{
		Facility: well.ID, Score: 8,
		Notes:           "Casing intact, water clear.",
		Recommendations: "Replace the apron concrete within the year.",
	}); err != nil {
		return err
	}
	if _, err := inspections.Create(ctx, inspectorID, service.CreateInspectionInput{
		Facility: pump.ID, Score: 4,
		Notes:           "Handle play well beyond tolerance, slow recovery.",
		Recommendations: "Service the cylinder seals.",
	}); err != nil {
		return err
	}

	if _, err := issues.Create(ctx, leaderID, service.CreateIssueInput{
		Facility: pump.ID,
		Title:    "Pump handle loose",
		Description: "The handle wobbles badly and children cannot draw water. " +
			"Started after the rains in March.",
		Severity: model.SeverityHigh,
	}); err != nil {
		return err
	}
	if _, err := issues.Create(ctx, leaderID, service.CreateIssueInput{
		Facility:    well.ID,
		Title:       "Queue congestion at dawn",
		Description: "Households queue over an hour before sunrise.",
		Severity:    model.SeverityLow,
		Anonymous:   true,
	}); err != nil {
		return err
	}

	return nil
}
