package db

import (
	"os"

	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	if err := godotenv.Load(); err != nil {
		utils.LogError(err, "Warning: impossible to load the .env file")
		utils.LogInfo("The environment variable DB_URL must be defined in the system environment")
	}

	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		utils.LogError(nil, "Variable DB_URL not defined")
		panic("Database URL not configured")
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: utils.GetGormLogger(),
	})
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		panic("Could not connect to the database")
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.WebhookEvent{},
		&models.PaymentHistory{},
		&models.PricingTier{},
		&models.PromotionalPeriod{},
		&models.UsageTracking{},
		&models.QuickScan{},
		&models.DeepDive{},
		&models.FlashAssessment{},
		&models.PhotoSession{},
		&models.PhotoEntry{},
		&models.OracleChatMessage{},
		&models.Contact{},
	)
	if err != nil {
		utils.LogError(err, "Error migrating database")
		panic("Could not migrate database")
	}

	seedPricingTiers()

	utils.LogSuccess("Database connection successful")
}

// seedPricingTiers inserts the static plan catalog if it is not there yet.
func seedPricingTiers() {
	tiers := []models.PricingTier{
		{Name: models.TierFree, DisplayName: "Free", PriceMonthlyCents: 0, PriceYearlyCents: 0, Description: "Basic symptom assessments", SortOrder: 0},
		{Name: models.TierBasic, DisplayName: "Basic", PriceMonthlyCents: 499, PriceYearlyCents: 4990, Description: "More assessments and photo tracking", SortOrder: 1},
		{Name: models.TierPro, DisplayName: "Pro", PriceMonthlyCents: 1499, PriceYearlyCents: 14990, Description: "Unlimited assessments, deep dives and chat", SortOrder: 2},
		{Name: models.TierProPlus, DisplayName: "Pro+", PriceMonthlyCents: 2999, PriceYearlyCents: 29990, Description: "Everything, unlimited", SortOrder: 3},
	}

	for _, tier := range tiers {
		var existing models.PricingTier
		if err := DB.Where("name = ?", tier.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := DB.Create(&tier).Error; err != nil {
			utils.LogError(err, "Error seeding pricing tier "+string(tier.Name))
		}
	}
}
