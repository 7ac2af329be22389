package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/config"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	httpapi "github.com/hyeunung/hanslwebapp-sub000/internal/interfaces/http"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 18080},
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(dir, "db", "purchase.db"),
		},
		App:     config.AppConfig{Timezone: "Asia/Seoul", OrderPrefix: "F", CompanyName: "(주)한슬"},
		Storage: config.StorageConfig{BaseDir: filepath.Join(dir, "files")},
		Worker:  config.WorkerConfig{MaxAttempts: 3},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.Equal(t, "log only", health.Components["lark"].Message)

	require.NotNil(t, c.Services().Approval)
	require.NotNil(t, c.Server())
	assert.Equal(t, "Asia/Seoul", c.Clock().Location.String())

	// The API resolves employees seeded through the repositories
	require.NoError(t, c.Repositories().Employees.Create(ctx, &entity.Employee{
		Name:  "김철수",
		Email: "kim@hansl.com",
		Roles: []string{"middle_manager"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(httpapi.EmployeeHeader, "kim@hansl.com")
	w := httptest.NewRecorder()
	c.Server().Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(ctx), "start after close")
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("order", "F20250303_001", 42, "ignored", "count", 3, "dangling")

	require.Len(t, fields, 2)
	assert.Equal(t, "order", fields[0].Key)
	assert.Equal(t, "count", fields[1].Key)
}
