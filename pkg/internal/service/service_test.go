package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage/s3"
	"github.com/yeisme/docvault/pkg/internal/testkit"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/queue"
)

const invoiceReply = "```json\n" + `{"document_type_category":"invoice","party":"Acme  Co","document_type":"Invoice",` +
	`"document_date":"2025-01-15","amount":"$1,234.50","due_date":"2025-02-15","ai_summary":"Acme January invoice",` +
	`"confidence_score":0.93}` + "\n```"

type fixture struct {
	svc    *service.DocumentService
	db     *gorm.DB
	store  *s3.MemoryStore
	events *testkit.Events
	cfg    *configs.AppConfig
}

func newFixture(t *testing.T, mutate func(*configs.AppConfig), providers ...provider.Provider) *fixture {
	t.Helper()

	cfg := configs.Defaults()
	cfg.Intake.WebhookSecret = "s3cret"

	if mutate != nil {
		mutate(&cfg)
	}

	if providers == nil {
		providers = []provider.Provider{testkit.Reply("primary", invoiceReply)}
	}

	emitter, events := testkit.NewEmitter()

	f := &fixture{
		db:     testkit.NewDB(t),
		store:  testkit.NewStore(),
		events: events,
		cfg:    &cfg,
	}

	f.svc = service.New(service.Deps{
		DB:        f.db,
		Store:     f.store,
		Events:    emitter,
		Providers: providers,
		Config:    &cfg,
	})

	return f
}

func (f *fixture) reload(t *testing.T, id string) *model.Document {
	t.Helper()

	var doc model.Document
	if err := f.db.Unscoped().First(&doc, "id = ?", id).Error; err != nil {
		t.Fatalf("reload %s: %v", id, err)
	}

	return &doc
}

func pdf(body string) []byte {
	return []byte("%PDF-1.4\n" + body)
}

func TestInvoiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	up, err := f.svc.Upload(ctx, "invoice123.pdf", bytes.NewReader(pdf("acme invoice")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if up.Status != service.StatusCreated || up.FilePath != "import/invoice123.pdf" {
		t.Fatalf("upload = %+v", up)
	}

	cls, err := f.svc.ClassifyBatch(ctx, []string{up.ID})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if cls.Processed != 1 || cls.Failed != 0 || cls.Results[0].AIModelUsed != "primary" {
		t.Fatalf("classify = %+v", cls)
	}

	doc := f.reload(t, up.ID)
	if doc.Status != model.StatusPendingApproval || doc.FilePath != "review/invoice123.pdf" {
		t.Fatalf("after classify status=%s path=%s", doc.Status, doc.FilePath)
	}

	if model.Deref(doc.Party) != "Acme Co" || doc.Amount == nil || *doc.Amount != 1234.5 {
		t.Fatalf("normalized fields party=%q amount=%v", model.Deref(doc.Party), doc.Amount)
	}

	if model.Deref(doc.DueDate) != "2025-02-15" || doc.IsContract || doc.ContractType != nil {
		t.Fatalf("category gating failed: due=%v contract=%v", doc.DueDate, doc.IsContract)
	}

	approved, err := f.svc.Approve(ctx, up.ID, "alice", false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if approved.Status != model.StatusArchived || approved.FilePath != "archive/invoice123.pdf" {
		t.Fatalf("approve = status %s path %s", approved.Status, approved.FilePath)
	}

	if keys := f.store.Keys(); !slices.Equal(keys, []string{"archive/invoice123.pdf"}) {
		t.Fatalf("store keys = %v", keys)
	}

	if got := model.Deref(f.reload(t, up.ID).ReviewedBy); got != "alice" {
		t.Fatalf("reviewed_by = %q", got)
	}

	res, err := f.svc.Search(ctx, "acme")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// 分类提供方的回复不是检索排序格式，语义检索回退到关键词
	if res.SearchType != "text" || res.Total != 1 || res.Results[0].ID != up.ID {
		t.Fatalf("search = %+v", res)
	}

	want := []string{queue.TopicDocumentIngested, queue.TopicDocumentClassified, queue.TopicDocumentArchived}
	if got := f.events.Topics(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestUploadDeduplicatesByContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first, err := f.svc.Upload(ctx, "a.pdf", bytes.NewReader(pdf("same")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	second, err := f.svc.Upload(ctx, "b.pdf", bytes.NewReader(pdf("same")))
	if err != nil {
		t.Fatalf("upload again: %v", err)
	}

	if second.Status != service.StatusExists || second.ID != first.ID {
		t.Fatalf("second upload = %+v, first id %s", second, first.ID)
	}

	if keys := f.store.Keys(); !slices.Equal(keys, []string{"import/a.pdf"}) {
		t.Fatalf("store keys = %v", keys)
	}

	// 同名不同内容换一个对象键
	third, err := f.svc.Upload(ctx, "a.pdf", bytes.NewReader(pdf("other")))
	if err != nil {
		t.Fatalf("upload third: %v", err)
	}

	if third.Status != service.StatusCreated || third.FilePath != "import/"+third.ID+"-a.pdf" {
		t.Fatalf("third upload = %+v", third)
	}
}

func TestUploadRejectsInvalidFiles(t *testing.T) {
	f := newFixture(t, func(c *configs.AppConfig) { c.Intake.MaxUploadBytes = 32 })

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"wrong extension", "notes.txt", pdf("x")},
		{"not a pdf", "fake.pdf", []byte("hello")},
		{"empty", "empty.pdf", nil},
		{"too large", "big.pdf", pdf(string(make([]byte, 64)))},
		{"no name", "", pdf("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), tt.filename, bytes.NewReader(tt.data))
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if n := len(f.store.Keys()); n != 0 {
		t.Fatalf("rejected uploads stored %d objects", n)
	}
}

func TestWebhookToken(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		header string
		ok     bool
	}{
		{"Bearer s3cret", true},
		{"Bearer  s3cret ", true},
		{"Bearer wrong", false},
		{"s3cret", false},
		{"", false},
	}

	for _, tt := range tests {
		err := f.svc.CheckWebhookToken(tt.header)
		if (err == nil) != tt.ok {
			t.Errorf("CheckWebhookToken(%q) = %v, want ok=%v", tt.header, err, tt.ok)
		}
	}

	empty := newFixture(t, func(c *configs.AppConfig) { c.Intake.WebhookSecret = "" })
	if err := empty.svc.CheckWebhookToken("Bearer "); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("empty secret must reject, got %v", err)
	}
}

func TestWebhookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	testkit.PutObject(t, f.store, "import/mail-1.pdf", pdf("mail one"))
	testkit.PutObject(t, f.store, "import/mail-1-copy.pdf", pdf("mail one"))

	req := types.WebhookRequest{
		ID:                 "mail-1",
		Filename:           "mail-1.pdf",
		FilePath:           "import/mail-1.pdf",
		SourceEmailFrom:    "billing@acme.test",
		SourceEmailSubject: "Invoice January",
		EmailHeaders:       map[string]string{"Message-Id": "<1@acme.test>"},
	}

	res, err := f.svc.Webhook(ctx, req)
	if err != nil || res.Status != service.StatusCreated || res.ID != "mail-1" {
		t.Fatalf("first webhook = %+v, %v", res, err)
	}

	res, err = f.svc.Webhook(ctx, req)
	if err != nil || res.Status != service.StatusAlreadyExists {
		t.Fatalf("second webhook = %+v, %v", res, err)
	}

	doc := f.reload(t, "mail-1")
	if doc.Source != model.SourceEmail || model.Deref(doc.EmailSubject) != "Invoice January" || doc.ContentHash == "" {
		t.Fatalf("webhook row = %+v", doc)
	}

	copyReq := req
	copyReq.ID, copyReq.FilePath = "mail-2", "import/mail-1-copy.pdf"

	res, err = f.svc.Webhook(ctx, copyReq)
	if err != nil || res.Status != service.StatusDuplicate || res.ID != "mail-1" {
		t.Fatalf("duplicate webhook = %+v, %v", res, err)
	}

	if f.events.Count(queue.TopicDocumentIngested) != 1 {
		t.Fatalf("events = %v", f.events.Topics())
	}

	if _, err := f.svc.Webhook(ctx, types.WebhookRequest{ID: "x"}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for incomplete request, got %v", err)
	}
}

func TestScanBucket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *configs.AppConfig) { c.Intake.RemoveDuplicates = true })

	testkit.PutObject(t, f.store, "import/a.pdf", pdf("alpha"))
	testkit.PutObject(t, f.store, "import/b.pdf", pdf("alpha"))
	testkit.PutObject(t, f.store, "import/c.pdf", pdf("gamma"))
	testkit.PutObject(t, f.store, "import/notes.txt", []byte("skip me"))
	testkit.PutObject(t, f.store, "archive/old.pdf", pdf("old"))

	known := testkit.InsertDocument(t, f.db, &model.Document{
		FilePath: "import/c.pdf", Status: model.StatusUploaded, Source: model.SourceEmail,
	})

	dry, err := f.svc.ScanBucket(ctx, true)
	if err != nil {
		t.Fatalf("dry scan: %v", err)
	}

	if dry.Created != 1 || dry.Exists != 2 || dry.Errors != 0 || dry.Total != 3 {
		t.Fatalf("dry scan = %+v", dry)
	}

	var count int64
	f.db.Model(&model.Document{}).Count(&count)

	if count != 1 || len(f.store.Keys()) != 5 {
		t.Fatalf("dry run mutated state: rows=%d keys=%v", count, f.store.Keys())
	}

	res, err := f.svc.ScanBucket(ctx, false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if res.Created != 1 || res.Exists != 2 {
		t.Fatalf("scan = %+v", res)
	}

	byKey := map[string]types.ScanItem{}
	for _, it := range res.Results {
		byKey[it.Key] = it
	}

	a := byKey["import/a.pdf"]
	if a.Status != service.StatusCreated || byKey["import/b.pdf"].ID != a.ID || byKey["import/c.pdf"].ID != known.ID {
		t.Fatalf("scan items = %+v", res.Results)
	}

	if slices.Contains(f.store.Keys(), "import/b.pdf") {
		t.Fatal("duplicate object should have been removed")
	}

	if doc := f.reload(t, a.ID); doc.Source != model.SourceBucketScan || doc.Status != model.StatusUploaded {
		t.Fatalf("scanned row = %+v", doc)
	}

	again, err := f.svc.ScanBucket(ctx, false)
	if err != nil || again.Created != 0 || again.Exists != 2 {
		t.Fatalf("rescan = %+v, %v", again, err)
	}
}

func TestSameNameUploadsKeepSeparateObjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	bodies := map[string][]byte{}
	ids := make([]string, 0, 2)

	for _, body := range []string{"document A", "document B, another scan"} {
		up, err := f.svc.Upload(ctx, "scan.pdf", bytes.NewReader(pdf(body)))
		if err != nil || up.Status != service.StatusCreated {
			t.Fatalf("upload %q = %+v, %v", body, up, err)
		}

		if cls, err := f.svc.ClassifyBatch(ctx, []string{up.ID}); err != nil || cls.Processed != 1 {
			t.Fatalf("classify %s = %+v, %v", up.ID, cls, err)
		}

		bodies[up.ID] = pdf(body)
		ids = append(ids, up.ID)
	}

	if a, b := f.reload(t, ids[0]).FilePath, f.reload(t, ids[1]).FilePath; a == b {
		t.Fatalf("both documents point at %q", a)
	}

	for _, id := range ids {
		if _, err := f.svc.Approve(ctx, id, "alice", true); err != nil {
			t.Fatalf("approve %s: %v", id, err)
		}
	}

	for _, id := range ids {
		doc := f.reload(t, id)

		rc, err := f.store.Get(ctx, doc.FilePath)
		if err != nil {
			t.Fatalf("get %s: %v", doc.FilePath, err)
		}

		got, _ := io.ReadAll(rc)
		_ = rc.Close()

		if !bytes.Equal(got, bodies[id]) {
			t.Fatalf("%s (%s) holds %q, want %q", id, doc.FilePath, got, bodies[id])
		}
	}

	if keys := f.store.Keys(); len(keys) != 2 {
		t.Fatalf("store keys = %v", keys)
	}
}

func TestScanRejectsOversizedObjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *configs.AppConfig) {
		c.Intake.RemoveDuplicates = true
		c.Intake.MaxUploadBytes = 32
	})

	prefix := strings.Repeat("x", 45)
	testkit.PutObject(t, f.store, "import/a.pdf", pdf(prefix+" first revision"))
	testkit.PutObject(t, f.store, "import/b.pdf", pdf(prefix+" signed revision"))
	testkit.PutObject(t, f.store, "import/small.pdf", pdf("tiny"))

	res, err := f.svc.ScanBucket(ctx, false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if res.Created != 1 || res.Exists != 0 || res.Errors != 2 {
		t.Fatalf("scan = %+v", res)
	}

	for _, it := range res.Results {
		if it.Key != "import/small.pdf" && (it.Status != service.StatusError || !strings.Contains(it.Error, "exceeds 32 bytes")) {
			t.Fatalf("item %s = %+v", it.Key, it)
		}
	}

	if keys := f.store.Keys(); len(keys) != 3 {
		t.Fatalf("oversized objects must be left in place, keys = %v", keys)
	}
}

func TestClassifyFillsMissingHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	// 登记时对象尚未写入
	res, err := f.svc.Webhook(ctx, types.WebhookRequest{ID: "late-1", Filename: "late.pdf", FilePath: "import/late.pdf"})
	if err != nil || res.Status != service.StatusCreated {
		t.Fatalf("webhook = %+v, %v", res, err)
	}

	if doc := f.reload(t, "late-1"); doc.ContentHash != "" {
		t.Fatalf("hash before object exists = %q", doc.ContentHash)
	}

	body := pdf("arrived late")
	testkit.PutObject(t, f.store, "import/late.pdf", body)

	if cls, err := f.svc.ClassifyBatch(ctx, []string{"late-1"}); err != nil || cls.Processed != 1 {
		t.Fatalf("classify = %+v, %v", cls, err)
	}

	doc := f.reload(t, "late-1")
	if doc.ContentHash == "" || doc.FileSize != int64(len(body)) {
		t.Fatalf("hash=%q size=%d", doc.ContentHash, doc.FileSize)
	}

	up, err := f.svc.Upload(ctx, "again.pdf", bytes.NewReader(body))
	if err != nil || up.Status != service.StatusExists || up.ID != "late-1" {
		t.Fatalf("re-upload = %+v, %v", up, err)
	}
}

func TestClassifyRefusesLateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	body := pdf("same bytes")

	up, err := f.svc.Upload(ctx, "first.pdf", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := f.svc.Webhook(ctx, types.WebhookRequest{ID: "late-2", Filename: "late.pdf", FilePath: "import/late.pdf"}); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	testkit.PutObject(t, f.store, "import/late.pdf", body)

	cls, err := f.svc.ClassifyBatch(ctx, []string{"late-2"})
	if err != nil || cls.Failed != 1 || !strings.Contains(cls.Results[0].Error, up.ID) {
		t.Fatalf("classify = %+v, %v", cls, err)
	}

	if doc := f.reload(t, "late-2"); doc.Status != model.StatusUploaded || doc.ContentHash != "" {
		t.Fatalf("late duplicate row = %s hash=%q", doc.Status, doc.ContentHash)
	}
}

func TestClassifyFallsBackInOrder(t *testing.T) {
	ctx := context.Background()
	primary := testkit.Fail("primary", provider.ErrRateLimited)
	fallback := testkit.Reply("fallback", invoiceReply)
	f := newFixture(t, nil, primary, fallback)

	up, err := f.svc.Upload(ctx, "invoice.pdf", bytes.NewReader(pdf("x")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := f.svc.ClassifyBatch(ctx, []string{up.ID})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if res.Processed != 1 || res.Results[0].AIModelUsed != "fallback" {
		t.Fatalf("classify = %+v", res)
	}

	if primary.Calls() != 1 || fallback.Calls() != 1 {
		t.Fatalf("calls primary=%d fallback=%d", primary.Calls(), fallback.Calls())
	}

	doc := f.reload(t, up.ID)
	if model.Deref(doc.AIModelUsed) != "fallback" || len(doc.RawResponse) == 0 || doc.ProcessedAt == nil {
		t.Fatalf("classified row = %+v", doc)
	}
}

func TestClassifyFailureKeepsDocumentUploaded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil,
		testkit.Fail("primary", provider.ErrUnavailable),
		testkit.Reply("fallback", "sorry, I cannot read this"),
	)

	up, _ := f.svc.Upload(ctx, "scan.pdf", bytes.NewReader(pdf("x")))

	res, err := f.svc.ClassifyBatch(ctx, []string{up.ID, "missing"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if res.Processed != 0 || res.Failed != 2 || res.Results[0].Error != "AI analysis failed" {
		t.Fatalf("classify = %+v", res)
	}

	doc := f.reload(t, up.ID)
	if doc.Status != model.StatusUploaded || doc.FilePath != "import/scan.pdf" || model.Deref(doc.ClassifyError) == "" {
		t.Fatalf("failed row = status %s path %s err %v", doc.Status, doc.FilePath, doc.ClassifyError)
	}

	if f.events.Count(queue.TopicDocumentClassifyFailed) != 1 {
		t.Fatalf("events = %v", f.events.Topics())
	}
}

func TestClassifyBatchErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.svc.ClassifyBatch(ctx, nil); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("empty ids: %v", err)
	}

	if _, err := f.svc.ClassifyBatch(ctx, []string{"nope"}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown ids: %v", err)
	}

	pending := testkit.InsertDocument(t, f.db, &model.Document{
		FilePath: "review/p.pdf", Status: model.StatusPendingApproval, Source: model.SourceUpload,
	})

	res, err := f.svc.ClassifyBatch(ctx, []string{pending.ID})
	if err != nil || res.Failed != 1 || res.Results[0].Success {
		t.Fatalf("classify pending = %+v, %v", res, err)
	}
}

func seedArchivedInvoice(t *testing.T, f *fixture) *model.Document {
	t.Helper()

	return testkit.InsertDocument(t, f.db, &model.Document{
		FilePath:             "archive/acme-jan.pdf",
		Status:               model.StatusArchived,
		Source:               model.SourceEmail,
		DocumentTypeCategory: model.Ptr("invoice"),
		Party:                model.Ptr("Acme Co"),
		DocumentType:         model.Ptr("Invoice"),
		DocumentDate:         model.Ptr("2025-01-15"),
	})
}

func seedPendingInvoice(t *testing.T, f *fixture, name string) *model.Document {
	t.Helper()

	key := "review/" + name
	testkit.PutObject(t, f.store, key, pdf(name))

	return testkit.InsertDocument(t, f.db, &model.Document{
		FilePath:             key,
		Status:               model.StatusPendingApproval,
		Source:               model.SourceUpload,
		DocumentTypeCategory: model.Ptr("invoice"),
		Party:                model.Ptr("ACME co"),
		DocumentType:         model.Ptr("invoice"),
		DocumentDate:         model.Ptr("2025-01-16"),
	})
}

func TestApproveNearDuplicateNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	existing := seedArchivedInvoice(t, f)
	doc := seedPendingInvoice(t, f, "acme-jan-copy.pdf")

	preview, err := f.svc.Duplicates(ctx, doc.ID)
	if err != nil || len(preview.Duplicates) != 1 || preview.Blocking {
		t.Fatalf("duplicates = %+v, %v", preview, err)
	}

	_, err = f.svc.Approve(ctx, doc.ID, "bob", false)

	var dup *service.DuplicateError
	if !errors.As(err, &dup) || dup.Blocked || dup.Candidates[0].ID != existing.ID {
		t.Fatalf("expected unconfirmed DuplicateError, got %v", err)
	}

	if f.reload(t, doc.ID).Status != model.StatusPendingApproval {
		t.Fatal("unconfirmed approval must not archive")
	}

	got, err := f.svc.Approve(ctx, doc.ID, "bob", true)
	if err != nil || got.Status != model.StatusArchived || got.FilePath != "archive/acme-jan-copy.pdf" {
		t.Fatalf("confirmed approve = %+v, %v", got, err)
	}
}

func TestApproveHardBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *configs.AppConfig) {
		c.Review.NearDuplicate.HardBlock = true
		c.Review.NearDuplicate.Threshold = 1
	})

	seedArchivedInvoice(t, f)
	blocked := seedPendingInvoice(t, f, "dup.pdf")
	other := seedPendingInvoice(t, f, "other.pdf")
	f.db.Model(&model.Document{}).Where("id = ?", other.ID).
		Updates(map[string]any{"party": "Beta LLC", "document_type": "Receipt"})

	res, err := f.svc.ApproveBatch(ctx, []string{blocked.ID, other.ID, "missing"}, "carol", true)
	if err != nil {
		t.Fatalf("approve batch: %v", err)
	}

	statuses := []string{res.Results[0].Status, res.Results[1].Status, res.Results[2].Status}
	want := []string{service.ApproveBlocked, service.ApproveArchived, service.ApproveError}

	if !slices.Equal(statuses, want) || res.Archived != 1 || res.Failed != 2 || res.Total != 3 {
		t.Fatalf("approve batch = %+v", res)
	}

	if len(res.Results[0].Duplicates) != 1 {
		t.Fatalf("blocked result should carry candidates: %+v", res.Results[0])
	}
}

func TestApproveRequiresPendingState(t *testing.T) {
	f := newFixture(t, nil)
	doc := seedArchivedInvoice(t, f)

	if _, err := f.svc.Approve(context.Background(), doc.ID, "", false); !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if _, err := f.svc.Approve(context.Background(), "missing", "", false); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEditRenormalizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	doc := seedPendingInvoice(t, f, "e.pdf")
	f.db.Model(&model.Document{}).Where("id = ?", doc.ID).Update("amount", 99.5)

	got, err := f.svc.Edit(ctx, doc.ID, types.EditRequest{
		DocumentTypeCategory: model.Ptr("contract"),
		ContractType:         model.Ptr("  NDA "),
		Party:                model.Ptr("  Acme   Holdings "),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if !got.IsContract || got.Amount != nil || model.Deref(got.ContractType) != "NDA" || model.Deref(got.Party) != "Acme Holdings" {
		t.Fatalf("edited = %+v", got)
	}

	row := f.reload(t, doc.ID)
	if row.Amount != nil || model.Deref(row.DocumentTypeCategory) != "contract" || model.Deref(row.DocumentDate) != "2025-01-16" {
		t.Fatalf("edited row = %+v", row)
	}

	if _, err := f.svc.Edit(ctx, doc.ID, types.EditRequest{DocumentTypeCategory: model.Ptr("memo")}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEditDateClearsLegacyDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *configs.AppConfig) { c.AI.SchemaVersion = configs.SchemaLegacy })

	testkit.PutObject(t, f.store, "review/letter.pdf", pdf("letter"))
	doc := testkit.InsertDocument(t, f.db, &model.Document{
		FilePath:             "review/letter.pdf",
		Status:               model.StatusPendingApproval,
		Source:               model.SourceUpload,
		DocumentTypeCategory: model.Ptr("document"),
		Party:                model.Ptr("Tax Office"),
		LetterDate:           model.Ptr("2024-03-01"),
		PeriodEndDate:        model.Ptr("2024-02-29"),
	})

	if _, err := f.svc.Edit(ctx, doc.ID, types.EditRequest{DocumentDate: model.Ptr("2025-05-10")}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	row := f.reload(t, doc.ID)
	if model.Deref(row.LetterDate) != "2025-05-10" || row.PeriodEndDate != nil {
		t.Fatalf("letter_date=%v period_end_date=%v", row.LetterDate, row.PeriodEndDate)
	}
}

func TestDeleteAndCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	doc := seedPendingInvoice(t, f, "gone.pdf")

	if err := f.svc.Delete(ctx, doc.ID, "dave"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.svc.Get(ctx, doc.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("deleted document still visible: %v", err)
	}

	if err := f.svc.Delete(ctx, doc.ID, "dave"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	list, err := f.svc.List(ctx, types.ListDocumentsRequest{Status: "deleted"})
	if err != nil || list.Total != 1 {
		t.Fatalf("list deleted = %+v, %v", list, err)
	}

	dry, err := f.svc.Cleanup(ctx, true)
	if err != nil || dry.Total != 1 || dry.Purged != 0 || dry.Candidates[0].DeletedAt == "" {
		t.Fatalf("dry cleanup = %+v, %v", dry, err)
	}

	res, err := f.svc.Cleanup(ctx, false)
	if err != nil || res.Purged != 1 {
		t.Fatalf("cleanup = %+v, %v", res, err)
	}

	if len(f.store.Keys()) != 0 {
		t.Fatalf("object not purged: %v", f.store.Keys())
	}

	again, err := f.svc.Cleanup(ctx, false)
	if err != nil || again.Total != 0 || again.Purged != 0 {
		t.Fatalf("second cleanup = %+v, %v", again, err)
	}
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	a := seedPendingInvoice(t, f, "a.pdf")
	up := testkit.InsertDocument(t, f.db, &model.Document{FilePath: "import/u.pdf", Status: model.StatusUploaded})

	res, err := f.svc.DeleteBatch(ctx, []string{a.ID, up.ID}, "")
	if err != nil {
		t.Fatalf("delete batch: %v", err)
	}

	if res.Deleted != 1 || res.Failed != 1 || !res.Results[0].Success || res.Results[1].Success {
		t.Fatalf("delete batch = %+v", res)
	}
}

func TestSearchValidatesQuery(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.Search(context.Background(), "  a "); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	res, err := f.svc.Search(context.Background(), "acme")
	if err != nil || res.Total != 0 || res.Results == nil {
		t.Fatalf("empty corpus search = %+v, %v", res, err)
	}
}

func TestStatsAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	seedArchivedInvoice(t, f)
	seedPendingInvoice(t, f, "p.pdf")
	testkit.InsertDocument(t, f.db, &model.Document{FilePath: "import/u.pdf", Status: model.StatusUploaded, Source: model.SourceUpload})

	stats, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.Total != 3 || stats.ByStatus["archived"] != 1 || stats.ByCategory["invoice"] != 2 || stats.ByCategory["unclassified"] != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	list, err := f.svc.List(ctx, types.ListDocumentsRequest{Category: "invoice", PageSize: 1})
	if err != nil || list.Total != 2 || len(list.Documents) != 1 || list.Page != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if _, err := f.svc.List(ctx, types.ListDocumentsRequest{Status: "bogus"}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
