package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/hourstay/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/hourstay/internal/booking/domain"
	invoicedomain "github.com/smallbiznis/hourstay/internal/invoice/domain"
	"github.com/smallbiznis/hourstay/pkg/db"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded PostgreSQL schema.
func RunMigrations(conn *sql.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	src, err := newSource()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func newSource() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return src, nil
}

// AutoMigrate creates the schema from the models on databases without SQL
// migrations.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&bookingdomain.Booking{}, &invoicedomain.InvoiceRecord{}, &auditdomain.AuditLog{})
}

// Apply runs the SQL migrations on PostgreSQL and model migrations elsewhere.
func Apply(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dbType != db.TypePostgres {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
