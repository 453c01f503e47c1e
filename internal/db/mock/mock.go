package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "bistro/internal/log"
	"bistro/models"
)

// New returns an in-memory sqlite database seeded with a representative
// kitchen catalog: a nested half product, conversion rules and a few sales.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:bistro-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.RawMaterial{},
		&models.HalfProduct{},
		&models.Meal{},
		&models.RecipeItem{},
		&models.UnitConversion{},
		&models.DailySalesSummary{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	rules := []models.UnitConversion{
		{FromUnit: "公斤", ToUnit: "克", Rate: decimal.NewFromInt(1000)},
		{FromUnit: "克", ToUnit: "公斤", Rate: decimal.RequireFromString("0.001")},
		{FromUnit: "公升", ToUnit: "毫升", Rate: decimal.NewFromInt(1000)},
		{FromUnit: "毫升", ToUnit: "公升", Rate: decimal.RequireFromString("0.001")},
	}
	for i := range rules {
		if err := db.WithContext(ctx).Create(&rules[i]).Error; err != nil {
			return err
		}
	}

	beefShank := models.RawMaterial{
		ProductID: "RM-001",
		Name:      "牛腱",
		Unit:      "克",
		IsActive:  true,
	}
	noodles := models.RawMaterial{
		ProductID: "RM-002",
		Name:      "拉麵",
		Unit:      "克",
		IsActive:  true,
	}
	soySauce := models.RawMaterial{
		ProductID: "RM-003",
		Name:      "醬油",
		Unit:      "毫升",
		IsActive:  true,
	}
	takeoutBox := models.RawMaterial{
		ProductID: "RM-004",
		Name:      "外帶碗",
		Unit:      "個",
		IsActive:  true,
	}

	materials := []*models.RawMaterial{&beefShank, &noodles, &soySauce, &takeoutBox}
	for _, material := range materials {
		if err := db.WithContext(ctx).Create(material).Error; err != nil {
			return err
		}
	}

	braisedBeef := models.HalfProduct{
		ProductID:     "HP-001",
		Name:          "紅燒牛肉湯底",
		ShortName:     "紅燒湯底",
		Category:      "牛區",
		Supplier:      "央廚",
		PackagingUnit: "包",
		CapacityValue: decimal.NewFromInt(500),
		CapacityUnit:  "克",
		IsActive:      true,
	}
	if err := db.WithContext(ctx).Create(&braisedBeef).Error; err != nil {
		return err
	}

	packaging := models.HalfProduct{
		ProductID:     "HP-002",
		Name:          "外帶包材組",
		Category:      "需再加工區",
		PackagingUnit: "份",
		CapacityValue: decimal.NewFromInt(1),
		CapacityUnit:  "份",
		IsActive:      true,
		IsVirtual:     true,
	}
	if err := db.WithContext(ctx).Create(&packaging).Error; err != nil {
		return err
	}

	// Per 500克 batch of the braised base: beef, soy sauce.
	soupRecipe := []models.RecipeItem{
		{
			HalfProductID: &braisedBeef.ID,
			Quantity:      decimal.RequireFromString("0.4"),
			Unit:          "克",
			ComponentType: models.ComponentRawMaterial,
			RawMaterialID: &beefShank.ID,
		},
		{
			HalfProductID: &braisedBeef.ID,
			Quantity:      decimal.RequireFromString("0.1"),
			Unit:          "毫升",
			ComponentType: models.ComponentRawMaterial,
			RawMaterialID: &soySauce.ID,
		},
	}
	for i := range soupRecipe {
		if err := db.WithContext(ctx).Create(&soupRecipe[i]).Error; err != nil {
			return err
		}
	}

	beefNoodle := models.Meal{
		ProductID:          "M-001",
		Name:               "紅燒牛肉麵",
		MenuCategory:       "牛區",
		MenuClassification: "紅燒牛",
		MealType:           "餐點",
		IsActive:           true,
	}
	if err := db.WithContext(ctx).Create(&beefNoodle).Error; err != nil {
		return err
	}

	mealRecipe := []models.RecipeItem{
		{
			MealID:                 &beefNoodle.ID,
			Quantity:               decimal.NewFromInt(600),
			Unit:                   "克",
			ComponentType:          models.ComponentHalfProduct,
			HalfProductComponentID: &braisedBeef.ID,
		},
		{
			MealID:        &beefNoodle.ID,
			Quantity:      decimal.NewFromInt(180),
			Unit:          "克",
			ComponentType: models.ComponentRawMaterial,
			RawMaterialID: &noodles.ID,
		},
		{
			MealID:        &beefNoodle.ID,
			Quantity:      decimal.NewFromInt(1),
			Unit:          "個",
			ComponentType: models.ComponentRawMaterial,
			RawMaterialID: &takeoutBox.ID,
		},
	}
	for i := range mealRecipe {
		if err := db.WithContext(ctx).Create(&mealRecipe[i]).Error; err != nil {
			return err
		}
	}

	sale := models.DailySalesSummary{
		SaleDate:     time.Now().UTC().Truncate(24 * time.Hour),
		MealID:       &beefNoodle.ID,
		QuantitySold: decimal.NewFromInt(42),
	}
	if err := db.WithContext(ctx).Create(&sale).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
