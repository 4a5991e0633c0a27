package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/calibra/backend/internal/interfaces/http/middleware"
	"github.com/calibra/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// harness is a sqlite-backed engine whose requests run as tenantID/userID
type harness struct {
	t        *testing.T
	db       *gorm.DB
	tx       *persistence.GormTransactionScope
	repos    *txn.RepositorySet
	engine   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	h := &harness{
		t:        t,
		db:       db,
		tx:       persistence.NewGormTransactionScope(db),
		repos:    persistence.NewRepositorySet(db),
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
	h.engine = gin.New()
	h.engine.Use(func(c *gin.Context) {
		c.Set(middleware.RequestIDKey, "req-test")
		if raw := c.GetHeader(middleware.TenantHeaderKey); raw != "" {
			c.Set(middleware.TenantIDKey, uuid.MustParse(raw))
		} else {
			c.Set(middleware.TenantIDKey, h.tenantID)
		}
		c.Set(middleware.UserIDKey, h.userID)
		c.Next()
	})
	return h
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

// asTenant sends the request as another tenant
func (h *harness) asTenant(tenantID uuid.UUID, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func (h *harness) upload(path, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(h.t, err)
		_, err = part.Write([]byte(content))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the envelope and its data into out
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var env struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Response
}
