package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// 1x1 transparent GIF
var tinyGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type testSite struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	store  *cache.MemoryStore
	tokens *cache.MemoryStore
	now    time.Time
	media  string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	site := &testSite{t: t, now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), media: t.TempDir()}
	cfg := config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		DBDriver:           "sqlite",
		DatabaseURI:        "file::memory:?_pragma=foreign_keys(1)",
		LogLevel:           "silent",
		MediaRoot:          site.media,
		RateLimitPerMinute: 100000,
		AdminUsernames:     []string{"root"},
	})

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	site.db = db
	clock := cache.WithClock(func() time.Time { return site.now })
	site.store = cache.NewMemoryStore(clock)
	site.tokens = cache.NewMemoryStore(clock)
	site.router = SetupRouter(db, cache.Stores{Pages: site.store, Tokens: site.tokens}, zap.NewNop())
	return site
}

func (s *testSite) user(username string) *models.User {
	s.t.Helper()
	u, err := services.NewUserService(s.db).Register(s.ctx(), username, "password123")
	if err != nil {
		s.t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (s *testSite) group(slug string) *models.Group {
	s.t.Helper()
	g, err := services.NewGroupService(s.db).Create(s.ctx(), services.GroupInput{Title: slug, Description: slug + " group", Slug: slug})
	if err != nil {
		s.t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

func (s *testSite) post(author *models.User, text string, group *models.Group) *models.Post {
	s.t.Helper()
	in := services.PostInput{Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := services.NewPostService(s.db, 10).Create(s.ctx(), author.ID, in)
	if err != nil {
		s.t.Fatalf("create post: %v", err)
	}
	return p
}

func (s *testSite) ctx() context.Context {
	return context.Background()
}

func (s *testSite) token(u *models.User) string {
	s.t.Helper()
	token, _, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return token
}

// do sends a request as u; a nil u is a guest.
func (s *testSite) do(u *models.User, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(u))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testSite) get(u *models.User, target string) *httptest.ResponseRecorder {
	return s.do(u, http.MethodGet, target, nil, "")
}

func (s *testSite) postForm(u *models.User, target string, values url.Values) *httptest.ResponseRecorder {
	return s.do(u, http.MethodPost, target, bytes.NewBufferString(values.Encode()), "application/x-www-form-urlencoded")
}

func (s *testSite) postJSON(u *models.User, method, target string, payload any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.t.Fatalf("marshal: %v", err)
	}
	return s.do(u, method, target, bytes.NewBuffer(raw), "application/json")
}

func (s *testSite) postMultipart(u *models.User, target string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			s.t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "upload.gif")
		if err != nil {
			s.t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			s.t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		s.t.Fatalf("close multipart: %v", err)
	}
	return s.do(u, http.MethodPost, target, body, mw.FormDataContentType())
}

func (s *testSite) count(model any, query string, args ...any) int64 {
	s.t.Helper()
	var n int64
	q := s.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		s.t.Fatalf("count: %v", err)
	}
	return n
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", w.Body.String(), err)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

type pageData struct {
	Page struct {
		Items      []models.Post `json:"items"`
		Number     int           `json:"number"`
		Total      int64         `json:"total"`
		TotalPages int           `json:"total_pages"`
		HasNext    bool          `json:"has_next"`
	} `json:"page"`
}

type formErrors struct {
	Errors map[string]string `json:"errors"`
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (body %s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func postPath(username string, id uint, suffix string) string {
	return fmt.Sprintf("/%s/%d/%s", username, id, strings.TrimPrefix(suffix, "/"))
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
