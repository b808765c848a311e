// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/unclebandit/linkedin-outreach/internal/app"
	"github.com/unclebandit/linkedin-outreach/internal/config"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
)

// The seeder writes default settings and templates to the configured store
// and, when SEED_LEADS names a JSON file, imports the leads in it.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	repo := &repository.OutreachRepository{Store: store}
	if err := seed(ctx, repo, os.Getenv("SEED_LEADS")); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Store seeding completed successfully!")
}

func seed(ctx context.Context, repo *repository.OutreachRepository, leadsFile string) error {
	var settings model.Settings
	found, err := repo.Store.Get(ctx, repository.KeySettings, &settings)
	if err != nil {
		return err
	}
	if !found {
		if err := repo.SaveSettings(ctx, model.DefaultSettings()); err != nil {
			return err
		}
		fmt.Println("Seeded: settings")
	}

	var templates model.Templates
	found, err = repo.Store.Get(ctx, repository.KeyTemplates, &templates)
	if err != nil {
		return err
	}
	if !found {
		if err := repo.SaveTemplates(ctx, model.DefaultTemplates()); err != nil {
			return err
		}
		fmt.Println("Seeded: templates")
	}

	if leadsFile == "" {
		return nil
	}
	content, err := os.ReadFile(leadsFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", leadsFile, err)
	}
	var leads []model.ProfileInfo
	if err := json.Unmarshal(content, &leads); err != nil {
		return fmt.Errorf("failed to decode %s: %w", leadsFile, err)
	}
	for _, lead := range leads {
		if err := repo.SaveLead(ctx, lead); err != nil {
			return err
		}
	}
	fmt.Printf("Seeded: %d leads from %s\n", len(leads), leadsFile)
	return nil
}
