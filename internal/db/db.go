package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend names returned by Kind.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	Mongo    = "mongodb"
)

// Kind reports which backend a DATABASE_URL points at.
func Kind(dbURL string) (string, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		return SQLite, nil
	case strings.HasPrefix(dbURL, "mongodb://"), strings.HasPrefix(dbURL, "mongodb+srv://"):
		return Mongo, nil
	}
	return "", fmt.Errorf("invalid DATABASE_URL %q: must start with postgres://, sqlite:// or mongodb://", dbURL)
}

// Init opens a GORM connection for a sqlite:// or postgres:// URL.
func Init(dbURL string) (*gorm.DB, error) {
	kind, err := Kind(dbURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch kind {
	case Postgres:
		// pgx accepts the full URL as well as a key=value DSN after the prefix.
		dsn := dbURL
		if rest := strings.TrimPrefix(dbURL, "postgres://"); strings.Contains(rest, "=") {
			dsn = rest
		}
		dialector = postgres.Open(dsn)
		log.Println("Connecting to PostgreSQL database...")
	case SQLite:
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		log.Println("Connecting to SQLite database at", dsn)
	default:
		return nil, fmt.Errorf("%s is not a SQL backend", kind)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if kind == SQLite {
		// SQLite allows a single writer; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	log.Println("Database connection established.")
	return db, nil
}

// ConnectMongo dials and pings a MongoDB deployment.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Println("Connected to MongoDB successfully")
	return client, nil
}
