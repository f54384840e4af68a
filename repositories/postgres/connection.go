package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return WrapDB(db, logger), nil
}

// WrapDB wraps an open pool
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema creates the tables if they do not exist. Every tenant-owned
// table has a non-null school_id referencing schools.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS schools (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			email VARCHAR(255),
			phone VARCHAR(50),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255),
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL CHECK (role IN ('SUPER_ADMIN', 'SCHOOL_ADMIN', 'TEACHER', 'PARENT', 'STUDENT')),
			school_id UUID REFERENCES schools(id) ON DELETE CASCADE,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (role = 'SUPER_ADMIN' OR school_id IS NOT NULL)
		);

		CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY,
			school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			student_number VARCHAR(50) NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			grade INTEGER NOT NULL,
			date_of_birth DATE,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(student_number, school_id)
		);

		CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY,
			school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			status VARCHAR(16) NOT NULL CHECK (status IN ('PRESENT', 'ABSENT', 'LATE', 'EXCUSED')),
			notes TEXT NOT NULL DEFAULT '',
			recorded_by UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(student_id, date)
		);

		CREATE TABLE IF NOT EXISTS classes (
			id UUID PRIMARY KEY,
			school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			grade VARCHAR(50) NOT NULL,
			section VARCHAR(50) NOT NULL,
			capacity INTEGER NOT NULL CHECK (capacity > 0),
			teacher_id UUID REFERENCES users(id) ON DELETE SET NULL,
			description TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(school_id, grade, section)
		);

		CREATE TABLE IF NOT EXISTS guardians (
			id UUID PRIMARY KEY,
			school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			user_id UUID UNIQUE REFERENCES users(id) ON DELETE SET NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(50),
			relationship VARCHAR(50),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(school_id, email)
		);

		CREATE TABLE IF NOT EXISTS guardian_students (
			guardian_id UUID NOT NULL REFERENCES guardians(id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			PRIMARY KEY (guardian_id, student_id)
		);

		CREATE INDEX IF NOT EXISTS idx_users_school_id ON users(school_id);
		CREATE INDEX IF NOT EXISTS idx_classes_school_id ON classes(school_id);
		CREATE INDEX IF NOT EXISTS idx_guardians_school_id ON guardians(school_id);
		CREATE INDEX IF NOT EXISTS idx_guardian_students_student ON guardian_students(student_id);
		CREATE INDEX IF NOT EXISTS idx_students_school_id ON students(school_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_school_id ON attendance_records(school_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance_records(student_id, date);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
