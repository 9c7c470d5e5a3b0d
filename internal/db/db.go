package db

import (
	"log"
	"os"
	"promptu/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Init() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=promptu port=5432 sslmode=disable"
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	// Seed initial categories
	seedCategories(conn)

	return conn
}

// Migrate 建表，测试里也会对内存库调用
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Prompt{},
		&models.CursorRule{},
		&models.PromptVote{},
		&models.RuleVote{},
		&models.Comment{},
	)
}

func seedCategories(conn *gorm.DB) {
	// 检查是否已有分类数据
	var count int64
	conn.Model(&models.Category{}).Count(&count)
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return
	}

	// 创建预设分类
	categories := []models.Category{
		{Name: "Writing", Slug: "writing", Description: "Writing and editing prompts"},
		{Name: "Coding", Slug: "coding", Description: "Programming assistants and code review"},
		{Name: "Marketing", Slug: "marketing", Description: "Copywriting, SEO and growth"},
		{Name: "Productivity", Slug: "productivity", Description: "Planning, summaries and workflows"},
		{Name: "Other", Slug: "other", Description: "Everything else"},
	}

	for _, category := range categories {
		if err := conn.Create(&category).Error; err != nil {
			log.Printf("Failed to create category %s: %v", category.Name, err)
		}
	}
	log.Println("Initial categories created successfully")
}
