package database

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fuelflow-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Info),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Auto migrate all models. ledger_transactions is owned by the ledger
	// service; it is migrated here only so development environments work
	// without a separately provisioned schema.
	err := db.AutoMigrate(
		&models.Organization{},
		&models.Driver{},
		&models.Vehicle{},
		&models.VehicleCustody{},
		&models.Garage{},
		&models.GarageCreditAccount{},
		&models.PurchaseFlow{},
		&models.LedgerTransaction{},
		&models.VehicleException{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	if err := addDatabaseConstraints(db); err != nil {
		return fmt.Errorf("failed to add database constraints: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Custody resolution scans draws newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_custody_driver_drawn ON vehicle_custodies(driver_id, drawn_at DESC)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for vehicle_custodies: %v\n", err)
	}

	// Spend aggregation windows for the limit engine
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_ledger_org_created ON ledger_transactions(organization_id, created_at)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for ledger_transactions org window: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_ledger_org_garage_created ON ledger_transactions(organization_id, garage_id, created_at)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for ledger_transactions garage window: %v\n", err)
	}

	// Active-flow lookup per driver
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_flows_driver_state ON purchase_flows(driver_id, state)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for purchase_flows: %v\n", err)
	}

	return nil
}

func addDatabaseConstraints(db *gorm.DB) error {
	// One credit account per (garage, organization)
	if err := db.Exec("ALTER TABLE garage_credit_accounts ADD CONSTRAINT uk_credit_garage_org UNIQUE (garage_id, organization_id)").Error; err != nil {
		// Ignore error if constraint already exists
		fmt.Printf("Warning: Could not add unique constraint for garage_credit_accounts: %v\n", err)
	}

	return nil
}

// SeedData can be used to populate the database with initial data for development/testing
func SeedData(db *gorm.DB) error {
	var orgCount int64
	db.Model(&models.Organization{}).Count(&orgCount)

	if orgCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	daily := 500.0
	monthly := 8000.0

	orgs := []models.Organization{
		{
			ID:           "org-eft",
			Name:         "Acme Logistics",
			PaymentRail:  models.PaymentRailEFT,
			DailyLimit:   &daily,
			MonthlyLimit: &monthly,
			AdminEmail:   "fleet@acme.example.com",
		},
		{
			ID:          "org-credit",
			Name:        "Boland Couriers",
			PaymentRail: models.PaymentRailGarageCredit,
			AdminEmail:  "fleet@boland.example.com",
		},
	}
	for _, org := range orgs {
		if err := db.Create(&org).Error; err != nil {
			fmt.Printf("Warning: Could not create test organization %s: %v\n", org.Name, err)
		}
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("Driver123!"), bcrypt.DefaultCost)
	drivers := []models.Driver{
		{ID: "driver-1", OrganizationID: "org-eft", Name: "Sipho Dlamini", Email: "sipho@acme.example.com", Password: string(hashed), Active: true},
		{ID: "driver-2", OrganizationID: "org-credit", Name: "Anele Mokoena", Email: "anele@boland.example.com", Password: string(hashed), Active: true},
	}
	for _, d := range drivers {
		if err := db.Create(&d).Error; err != nil {
			fmt.Printf("Warning: Could not create test driver %s: %v\n", d.Email, err)
		}
	}

	lastOdo := 84210.0
	vehicles := []models.Vehicle{
		{
			ID: "veh-1", OrganizationID: "org-eft", Registration: "CA 123-456",
			VIN: "AHTFR22G104037312", Make: "Toyota", Model: "Hilux",
			FuelType: "diesel", TankCapacity: 80,
			LicenseExpiry: time.Now().AddDate(1, 0, 0), LastOdometer: &lastOdo,
			Status: models.VehicleStatusActive,
		},
		{
			ID: "veh-2", OrganizationID: "org-credit", Registration: "CY 789-012",
			VIN: "WDB9066571S894455", Make: "Mercedes-Benz", Model: "Sprinter",
			FuelType: "diesel", TankCapacity: 75,
			LicenseExpiry: time.Now().AddDate(0, 6, 0),
			Status:        models.VehicleStatusActive,
		},
	}
	for _, v := range vehicles {
		if err := db.Create(&v).Error; err != nil {
			fmt.Printf("Warning: Could not create test vehicle %s: %v\n", v.Registration, err)
		}
	}

	lat1, lng1 := -33.9249, 18.4241
	garages := []models.Garage{
		{
			ID: "garage-1", Name: "N1 City Motors", Address: "Goodwood, Cape Town",
			Latitude: &lat1, Longitude: &lng1, CommissionRate: 2.5,
			FuelPrices: models.FuelPriceMap{"diesel": 22.10, "petrol_95": 23.56},
			Active:     true,
		},
		{
			ID: "garage-2", Name: "Paarl Fuel Stop", Address: "Main Rd, Paarl",
			CommissionRate: 3.0,
			FuelPrices:     models.FuelPriceMap{"diesel": 21.85, "petrol_95": 23.40},
			Active:         true,
		},
	}
	for _, g := range garages {
		if err := db.Create(&g).Error; err != nil {
			fmt.Printf("Warning: Could not create test garage %s: %v\n", g.Name, err)
		}
	}

	account := models.GarageCreditAccount{
		ID: "credit-1", GarageID: "garage-1", OrganizationID: "org-credit",
		AccountNumber: "BC-40221", MonthlyLimit: 10000, Active: true,
	}
	if err := db.Create(&account).Error; err != nil {
		fmt.Printf("Warning: Could not create test credit account: %v\n", err)
	}

	fmt.Println("Database seeded with test organizations, drivers, vehicles and garages")
	return nil
}
