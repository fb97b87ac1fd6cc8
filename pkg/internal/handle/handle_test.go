package handle_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/api"
	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/internal/testkit"
	"github.com/yeisme/docvault/pkg/internal/types"
)

const reply = `{"document_type_category":"invoice","party":"Acme Co","document_type":"Invoice","document_date":"2025-01-15"}`

type server struct {
	engine *gin.Engine
	db     *gorm.DB
	store  *s3.MemoryStore
}

func newServer(t *testing.T) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := configs.Defaults()
	cfg.Intake.WebhookSecret = "s3cret"

	s := &server{engine: gin.New(), db: testkit.NewDB(t), store: testkit.NewStore()}
	store := kv.NewMemory()

	svc := service.New(service.Deps{
		DB:        s.db,
		Store:     s.store,
		KV:        store,
		Providers: []provider.Provider{testkit.Reply("primary", reply)},
		Config:    &cfg,
	})

	api.RegisterGroup(s.engine, handle.NewDocumentHandler(svc), cache.New(store, "http"), false)

	return s
}

func (s *server) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	for k, v := range header {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, r)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}

	return v
}

func TestWebhook(t *testing.T) {
	s := newServer(t)
	testkit.PutObject(t, s.store, "import/mail-7.pdf", []byte("%PDF-1.4 mail"))

	auth := map[string]string{"Authorization": "Bearer s3cret"}
	body := `{"id":"mail-7","filename":"mail-7.pdf","filePath":"import/mail-7.pdf","fileSize":14,"source":"email","sourceEmailFrom":"a@b.test"}`

	tests := []struct {
		name   string
		body   string
		header map[string]string
		code   int
		status string
	}{
		{"missing token", body, nil, http.StatusUnauthorized, ""},
		{"wrong token", body, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"missing fields", `{"id":"mail-7"}`, auth, http.StatusBadRequest, ""},
		{"created", body, auth, http.StatusOK, service.StatusCreated},
		{"replayed", body, auth, http.StatusOK, service.StatusAlreadyExists},
	}

	for _, tt := range tests {
		w := s.do(t, http.MethodPost, "/api/v1/intake-webhook", tt.body, tt.header)
		if w.Code != tt.code {
			t.Fatalf("%s: code = %d, body %s", tt.name, w.Code, w.Body.String())
		}

		if tt.status != "" {
			if got := decode[types.WebhookResponse](t, w); got.Status != tt.status || got.ID != "mail-7" {
				t.Fatalf("%s: response = %+v", tt.name, got)
			}
		}
	}
}

func TestClassifyStatusCodes(t *testing.T) {
	s := newServer(t)

	if w := s.do(t, http.MethodPost, "/api/v1/classify", `{"ids":[]}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("empty ids: %d %s", w.Code, w.Body.String())
	}

	if w := s.do(t, http.MethodPost, "/api/v1/classify", `{"ids":["nope"]}`, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown ids: %d %s", w.Code, w.Body.String())
	}

	testkit.PutObject(t, s.store, "import/a.pdf", []byte("%PDF-1.4 a"))
	doc := testkit.InsertDocument(t, s.db, &model.Document{FilePath: "import/a.pdf", Status: model.StatusUploaded, Source: model.SourceUpload})

	w := s.do(t, http.MethodPost, "/api/v1/classify", `{"ids":["`+doc.ID+`","nope"]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("classify: %d %s", w.Code, w.Body.String())
	}

	res := decode[types.ClassifyResponse](t, w)
	if res.Processed != 1 || res.Failed != 1 || res.Results[0].AIModelUsed != "primary" {
		t.Fatalf("classify = %+v", res)
	}
}

func TestSearchRejectsShortQuery(t *testing.T) {
	s := newServer(t)

	if w := s.do(t, http.MethodPost, "/api/v1/search", `{"q":"a"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("short query: %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/search", `{"q":"acme"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}

	if res := decode[types.SearchResponse](t, w); res.Query != "acme" || res.Total != 0 {
		t.Fatalf("search = %+v", res)
	}
}

func TestUpload(t *testing.T) {
	s := newServer(t)

	upload := func(name string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer

		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("file", name)
		_, _ = fw.Write(data)
		_ = mw.Close()

		r := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, r)

		return w
	}

	first := upload("invoice123.pdf", []byte("%PDF-1.4 invoice"))
	if first.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", first.Code, first.Body.String())
	}

	created := decode[types.UploadResponse](t, first)

	again := upload("copy.pdf", []byte("%PDF-1.4 invoice"))
	if again.Code != http.StatusOK {
		t.Fatalf("duplicate upload: %d %s", again.Code, again.Body.String())
	}

	if got := decode[types.UploadResponse](t, again); got.Status != service.StatusExists || got.ID != created.ID {
		t.Fatalf("duplicate upload = %+v", got)
	}

	if w := upload("notes.txt", []byte("hello")); w.Code != http.StatusBadRequest {
		t.Fatalf("txt upload: %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/v1/documents/"+created.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}

	if doc := decode[types.Document](t, w); doc.FilePath != "import/invoice123.pdf" || doc.Status != "uploaded" {
		t.Fatalf("get = %+v", doc)
	}
}

func TestApproveConflictAndDelete(t *testing.T) {
	s := newServer(t)

	testkit.InsertDocument(t, s.db, &model.Document{
		FilePath: "archive/old.pdf", Status: model.StatusArchived,
		DocumentTypeCategory: model.Ptr("invoice"), Party: model.Ptr("Acme Co"), DocumentType: model.Ptr("Invoice"),
	})

	testkit.PutObject(t, s.store, "review/new.pdf", []byte("%PDF-1.4 new"))
	doc := testkit.InsertDocument(t, s.db, &model.Document{
		FilePath: "review/new.pdf", Status: model.StatusPendingApproval,
		DocumentTypeCategory: model.Ptr("invoice"), Party: model.Ptr("Acme Co"), DocumentType: model.Ptr("Invoice"),
	})

	w := s.do(t, http.MethodPost, "/api/v1/review/"+doc.ID+"/approve", "", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("unconfirmed approve: %d %s", w.Code, w.Body.String())
	}

	if body := decode[map[string]any](t, w); body["blocked"] != false || len(body["duplicates"].([]any)) != 1 {
		t.Fatalf("conflict body = %v", body)
	}

	w = s.do(t, http.MethodPost, "/api/v1/review/"+doc.ID+"/approve", `{"confirm":true}`, map[string]string{"X-Auth-Request-Email": "eve@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("confirmed approve: %d %s", w.Code, w.Body.String())
	}

	if got := decode[types.Document](t, w); got.Status != "archived" || model.Deref(got.ReviewedBy) != "eve@example.com" {
		t.Fatalf("approved = %+v", got)
	}

	if w := s.do(t, http.MethodDelete, "/api/v1/review/"+doc.ID, "", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	if w := s.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/cleanup-deleted", "", nil)
	if res := decode[types.CleanupResponse](t, w); !res.DryRun || res.Total != 1 {
		t.Fatalf("cleanup preview = %+v", res)
	}

	w = s.do(t, http.MethodPost, "/api/v1/cleanup-deleted", "", nil)
	if res := decode[types.CleanupResponse](t, w); res.DryRun || res.Purged != 1 {
		t.Fatalf("cleanup = %+v", res)
	}
}

func TestHealthAndStats(t *testing.T) {
	s := newServer(t)

	if w := s.do(t, http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	// 请求上下文中没有存储管理器
	if w := s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready without storage: %d", w.Code)
	}

	testkit.InsertDocument(t, s.db, &model.Document{FilePath: "import/x.pdf", Status: model.StatusUploaded})

	w := s.do(t, http.MethodGet, "/api/v1/documents/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}

	if st := decode[types.StatsResponse](t, w); st.Total != 1 || st.ByStatus["uploaded"] != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
