package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"animeHub/domain"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Connection info string containing database name, user, port etc.
	ConnectionInfo string
	MaxOpenConns   int
	MaxIdleConns   int
}

// NewDB returns a new instance of DB.
func NewDB(connectionInfo string) *DB {
	return &DB{
		ConnectionInfo: connectionInfo,
	}
}

// GormConfig returns the gorm configuration shared by every dialect. Duplicate key
// errors are translated to gorm.ErrDuplicatedKey and timestamps are written in UTC.
// The gorm logger is silent in production.
func GormConfig(isProd bool) *gorm.Config {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	if !isProd {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	return cfg
}

// Open opens a new postgres connection and sizes its pool.
func Open(db *DB, isProd bool) (err error) {
	if db.ConnectionInfo == "" {
		return errors.New("connectionInfo required")
	}
	db.Gorm, err = gorm.Open(postgres.Open(db.ConnectionInfo), GormConfig(isProd))
	if err != nil {
		return errors.WithMessage(err, "open gorm postgres connection")
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return errors.WithMessage(err, "get sql.DB")
	}
	if db.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.MaxOpenConns)
	}
	if db.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.MaxIdleConns)
	}
	return nil
}

// models lists the tables, owners before the rows referencing them.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Post{},
		&domain.Comment{},
		&domain.PostLike{},
		&domain.CommentLike{},
		&domain.PostFavorite{},
		&domain.Follow{},
	}
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *DB) error {
	return errors.WithMessage(db.Gorm.AutoMigrate(models()...), "auto migrate")
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *DB) error {
	m := models()
	// Drop referencing tables first.
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
	if err := db.Gorm.Migrator().DropTable(m...); err != nil {
		return errors.WithMessage(err, "drop tables")
	}
	return AutoMigrate(db)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
