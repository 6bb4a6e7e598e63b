package main

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
)

func main() {
	logger.Init(true, nil)

	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("Failed to load config")
	}
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Log().WithError(err).Fatal("Failed to migrate database")
	}
	fmt.Println("✓ Database migrated successfully")

	// Seed sample registry rows
	for i := 1; i <= 20; i++ {
		entry := models.IPEntry{IPAddress: fmt.Sprintf("192.168.1.%d", i), Status: true}
		result := db.Where("ip_address = ?", entry.IPAddress).FirstOrCreate(&entry)
		if result.Error != nil {
			logger.ForIP(entry.IPAddress).WithError(result.Error).Error("Failed to seed IP")
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created IP: %s\n", entry.IPAddress)
		}
	}

	// Seed the default blocking rule
	rules := services.NewRuleService(db)
	if _, err := rules.Active(); errors.Is(err, services.ErrRuleNotFound) {
		rule, err := rules.Set(5, "1 hour", models.DefaultDetectionPattern)
		if err != nil {
			logger.Log().WithError(err).Fatal("Failed to seed blocking rule")
		}
		fmt.Printf("✓ Created blocking rule: %d failures -> %s\n", rule.MaxFailedAttempts, rule.BlockDuration)
	}

	// Seed sample reports for the alerts view
	reports := []models.Report{
		{Subject: "Repeated password reset emails", Description: "User reports reset emails they did not request.", Criticity: models.CriticityHigh, Status: models.ReportPending},
		{Subject: "Possible account takeover", Description: "Login from an unknown country followed by a profile change.", Criticity: models.CriticityUrgent, Status: models.ReportInProgress},
		{Subject: "Typo on login page", Description: "The forgot password link is misspelled.", Criticity: models.CriticityLow, Status: models.ReportPending},
	}
	for _, report := range reports {
		if err := seedReport(db, report); err != nil {
			logger.Log().WithError(err).Error("Failed to seed report")
		}
	}

	fmt.Println("\n✓ Database seeded successfully!")
}

func seedReport(db *gorm.DB, report models.Report) error {
	result := db.Where("subject = ?", report.Subject).FirstOrCreate(&report)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		fmt.Printf("✓ Created report: %s (%s)\n", report.Subject, report.Criticity)
	}
	return nil
}
