package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/stream-user-service/internal/config"
)

func TestDSNIncludesCredentialsAndUTC(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "streamusers",
	}
	got := dsn(cfg)
	assert.Equal(t, "app:s3cret@tcp(db.internal:3306)/streamusers?charset=utf8mb4&parseTime=true&loc=UTC", got)
}

func TestDSNOmitsColonWithoutPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "app",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "streamusers",
	}
	got := dsn(cfg)
	assert.Equal(t, "app@tcp(localhost:3306)/streamusers?charset=utf8mb4&parseTime=true&loc=UTC", got)
}
