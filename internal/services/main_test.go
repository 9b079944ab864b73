package services

import (
	"os"
	"testing"

	"github.com/habitek/habitek-api/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}
