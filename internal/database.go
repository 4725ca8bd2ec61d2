package internal

import (
	"fmt"

	"VDP-SVG/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(cfg *config.Config) error {
	dsn := cfg.Database.DSN()

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	fmt.Println("Database connected and migrated successfully")
	return nil
}

// schema is applied in order; every statement is idempotent.
var schema = []struct {
	table string
	ddl   string
}{
	{"svg_templates", `
        CREATE TABLE IF NOT EXISTS svg_templates (
            id varchar(191) PRIMARY KEY,
            filename longtext NOT NULL,
            original_name longtext,
            display_name longtext,
            raw_path longtext NOT NULL,
            sanitized_path longtext NOT NULL,
            file_size bigint,
            placeholders json,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_svg_templates_deleted_at (deleted_at)
        )
    `},
	{"template_mappings", `
        CREATE TABLE IF NOT EXISTS template_mappings (
            id varchar(191) PRIMARY KEY,
            template_id varchar(191) NOT NULL,
            document json,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            UNIQUE INDEX idx_template_mappings_template_id (template_id)
        )
    `},
	{"batches", `
        CREATE TABLE IF NOT EXISTS batches (
            id varchar(191) PRIMARY KEY,
            template_id varchar(191) NOT NULL,
            data_filename longtext,
            mode varchar(32),
            formats varchar(64),
            name_field longtext,
            status varchar(32) DEFAULT 'processing',
            error text,
            bundle_path longtext,
            bundle_size bigint,
            report json,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_batches_template_id (template_id),
            INDEX idx_batches_deleted_at (deleted_at)
        )
    `},
	{"activity_logs", `
        CREATE TABLE IF NOT EXISTS activity_logs (
            id varchar(191) PRIMARY KEY,
            method varchar(10) NOT NULL,
            path varchar(255) NOT NULL,
            template_id varchar(191),
            batch_id varchar(191),
            user_agent text,
            ip_address varchar(45),
            query_params text,
            status_code int NOT NULL,
            response_time bigint NOT NULL,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_activity_logs_deleted_at (deleted_at),
            INDEX idx_activity_logs_method (method),
            INDEX idx_activity_logs_path (path),
            INDEX idx_activity_logs_template_id (template_id),
            INDEX idx_activity_logs_created_at (created_at)
        )
    `},
}

func autoMigrate() error {
	for _, s := range schema {
		fmt.Printf("Ensuring %s table exists...\n", s.table)
		if err := DB.Exec(s.ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}

	// columns added after the first release
	ensureActivityLogColumns := map[string]string{
		"template_id": "ALTER TABLE activity_logs ADD COLUMN template_id varchar(191)",
		"batch_id":    "ALTER TABLE activity_logs ADD COLUMN batch_id varchar(191)",
	}
	for column, stmt := range ensureActivityLogColumns {
		if err := ensureColumn("activity_logs", column, stmt); err != nil {
			return err
		}
	}

	fmt.Println("Tables created/verified successfully")
	return nil
}

func ensureColumn(table, column, statement string) error {
	if DB.Migrator().HasColumn(table, column) {
		return nil
	}

	fmt.Printf("Adding missing column %s.%s...\n", table, column)
	if err := DB.Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}

	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
