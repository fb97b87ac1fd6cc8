package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/yeisme/docvault/pkg/internal/lifecycle"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/testkit"
	"github.com/yeisme/docvault/pkg/queue"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.DocumentStatus
		want     bool
	}{
		{model.StatusUploaded, model.StatusPendingApproval, true},
		{model.StatusPendingApproval, model.StatusArchived, true},
		{model.StatusPendingApproval, model.StatusDeleted, true},
		{model.StatusArchived, model.StatusDeleted, true},
		{model.StatusPendingApproval, model.StatusPendingApproval, false},
		{model.StatusUploaded, model.StatusArchived, false},
		{model.StatusUploaded, model.StatusDeleted, false},
		{model.StatusArchived, model.StatusPendingApproval, false},
		{model.StatusDeleted, model.StatusArchived, false},
		{model.StatusDeleted, model.StatusDeleted, false},
	}

	for _, tt := range tests {
		if got := lifecycle.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRelocated(t *testing.T) {
	f := lifecycle.DefaultFolders()

	tests := []struct {
		key  string
		to   model.DocumentStatus
		want string
	}{
		{"import/invoice123.pdf", model.StatusPendingApproval, "review/invoice123.pdf"},
		{"review/invoice123.pdf", model.StatusArchived, "archive/invoice123.pdf"},
		{"review/2025/a.pdf", model.StatusArchived, "archive/2025/a.pdf"},
		{"loose.pdf", model.StatusPendingApproval, "review/loose.pdf"},
		{"review/a.pdf", model.StatusDeleted, "review/a.pdf"},
	}

	for _, tt := range tests {
		if got := f.Relocated(tt.key, tt.to); got != tt.want {
			t.Errorf("Relocated(%q, %s) = %q, want %q", tt.key, tt.to, got, tt.want)
		}
	}

	if got := f.ImportKey(`C:\scans\invoice.pdf`); got != "import/invoice.pdf" {
		t.Errorf("ImportKey = %q", got)
	}

	if got := f.Unique("review/2025/a.pdf", "01J"); got != "review/2025/01J-a.pdf" {
		t.Errorf("Unique = %q", got)
	}

	if got := f.Unique("review/01J-a.pdf", "01J"); got != "review/01J-a.pdf" {
		t.Errorf("Unique must not prefix twice, got %q", got)
	}
}

func TestAdvanceMovesObjectAndRow(t *testing.T) {
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	emitter, events := testkit.NewEmitter()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), emitter)

	testkit.PutObject(t, store, "import/invoice123.pdf", []byte("%PDF-1.4"))
	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "import/invoice123.pdf", Status: model.StatusUploaded})

	err := m.Advance(context.Background(), doc, model.StatusPendingApproval, map[string]any{
		"ai_model_used": "primary",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if !slices.Equal(store.Keys(), []string{"review/invoice123.pdf"}) {
		t.Fatalf("keys = %v", store.Keys())
	}

	var got model.Document
	if err := db.First(&got, "id = ?", doc.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Status != model.StatusPendingApproval || got.FilePath != "review/invoice123.pdf" || model.Deref(got.AIModelUsed) != "primary" {
		t.Fatalf("row = %+v", got)
	}

	if doc.FilePath != got.FilePath || doc.Status != got.Status {
		t.Fatal("in-memory document not updated")
	}

	if events.Count(queue.TopicDocumentClassified) != 1 {
		t.Fatalf("topics = %v", events.Topics())
	}
}

func TestAdvanceRelocationFailureLeavesPathStale(t *testing.T) {
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	store.FailCopy = errors.New("storage offline")
	emitter, events := testkit.NewEmitter()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), emitter)

	testkit.PutObject(t, store, "review/a.pdf", []byte("%PDF-1.4"))
	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusPendingApproval})

	if err := m.Advance(context.Background(), doc, model.StatusArchived, nil); err != nil {
		t.Fatalf("advance must not fail on relocation error: %v", err)
	}

	var got model.Document
	_ = db.First(&got, "id = ?", doc.ID).Error

	if got.Status != model.StatusArchived || got.FilePath != "review/a.pdf" {
		t.Fatalf("row = %s %s", got.Status, got.FilePath)
	}

	if events.Count(queue.TopicDocumentRelocationFailed) != 1 || events.Count(queue.TopicDocumentArchived) != 1 {
		t.Fatalf("topics = %v", events.Topics())
	}
}

func TestAdvanceAlreadyRelocated(t *testing.T) {
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), nil)

	// 上一次迁移成功但行更新失败
	testkit.PutObject(t, store, "archive/a.pdf", []byte("%PDF-1.4"))
	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusPendingApproval})

	if err := m.Advance(context.Background(), doc, model.StatusArchived, nil); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if doc.FilePath != "archive/a.pdf" {
		t.Fatalf("path = %q", doc.FilePath)
	}
}

func TestAdvanceKeepsSameNameDocumentsApart(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), nil)

	testkit.PutObject(t, store, "review/scan.pdf", []byte("%PDF-1.4\nfirst"))
	first := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/scan.pdf", Status: model.StatusPendingApproval})

	testkit.PutObject(t, store, "import/scan.pdf", []byte("%PDF-1.4\nsecond, longer"))
	second := testkit.InsertDocument(t, db, &model.Document{FilePath: "import/scan.pdf", Status: model.StatusUploaded})

	if err := m.Advance(ctx, second, model.StatusPendingApproval, nil); err != nil {
		t.Fatalf("advance second: %v", err)
	}

	if want := "review/" + second.ID + "-scan.pdf"; second.FilePath != want {
		t.Fatalf("second path = %q, want %q", second.FilePath, want)
	}

	if err := m.Advance(ctx, first, model.StatusArchived, nil); err != nil {
		t.Fatalf("archive first: %v", err)
	}

	if err := m.Advance(ctx, second, model.StatusArchived, nil); err != nil {
		t.Fatalf("archive second: %v", err)
	}

	want := []string{"archive/" + second.ID + "-scan.pdf", "archive/scan.pdf"}
	slices.Sort(want)

	if keys := store.Keys(); !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	for key, body := range map[string]string{first.FilePath: "%PDF-1.4\nfirst", second.FilePath: "%PDF-1.4\nsecond, longer"} {
		rc, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}

		got, _ := io.ReadAll(rc)
		_ = rc.Close()

		if string(got) != body {
			t.Fatalf("%s holds %q, want %q", key, got, body)
		}
	}
}

func TestAdvanceAlreadyRelocatedIgnoresForeignObject(t *testing.T) {
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), nil)

	// archive/a.pdf 属于另一行，源对象又已丢失，不能被当成本文档的对象
	testkit.PutObject(t, store, "archive/a.pdf", []byte("%PDF-1.4"))
	testkit.InsertDocument(t, db, &model.Document{FilePath: "archive/a.pdf", Status: model.StatusArchived})
	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusPendingApproval})

	if err := m.Advance(context.Background(), doc, model.StatusArchived, nil); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if doc.FilePath != "review/a.pdf" {
		t.Fatalf("path = %q, want stale review/a.pdf", doc.FilePath)
	}
}

func TestAdvanceRejectsStaleStatus(t *testing.T) {
	db := testkit.NewDB(t)
	m := lifecycle.New(db, testkit.NewStore(), lifecycle.DefaultFolders(), nil)

	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusArchived})
	stale := *doc
	stale.Status = model.StatusPendingApproval

	err := m.Advance(context.Background(), &stale, model.StatusArchived, nil)
	if !errors.Is(err, lifecycle.ErrStatusChanged) {
		t.Fatalf("err = %v, want ErrStatusChanged", err)
	}
}

func TestAdvanceInvalidTransition(t *testing.T) {
	db := testkit.NewDB(t)
	m := lifecycle.New(db, testkit.NewStore(), lifecycle.DefaultFolders(), nil)

	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusPendingApproval})

	err := m.Advance(context.Background(), doc, model.StatusPendingApproval, nil)
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t)
	store := testkit.NewStore()
	emitter, events := testkit.NewEmitter()
	m := lifecycle.New(db, store, lifecycle.DefaultFolders(), emitter)

	testkit.PutObject(t, store, "archive/old.pdf", []byte("%PDF-1.4"))
	testkit.PutObject(t, store, "archive/keep.pdf", []byte("%PDF-1.4"))

	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "archive/old.pdf", Status: model.StatusArchived})
	testkit.InsertDocument(t, db, &model.Document{FilePath: "archive/keep.pdf", Status: model.StatusArchived})

	if err := m.SoftDelete(ctx, doc, "alice@example.com"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	var visible int64
	db.Model(&model.Document{}).Count(&visible)

	if visible != 1 {
		t.Fatalf("soft-deleted row still visible, count=%d", visible)
	}

	preview, err := m.Sweep(ctx, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if !preview.DryRun || len(preview.Candidates) != 1 || preview.Purged != 0 || len(store.Keys()) != 2 {
		t.Fatalf("dry run mutated state: %+v keys=%v", preview, store.Keys())
	}

	res, err := m.Sweep(ctx, false)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if res.Purged != 1 || !slices.Equal(store.Keys(), []string{"archive/keep.pdf"}) {
		t.Fatalf("sweep = %+v keys=%v", res, store.Keys())
	}

	var total int64
	db.Unscoped().Model(&model.Document{}).Count(&total)

	if total != 1 {
		t.Fatalf("rows after purge = %d", total)
	}

	again, err := m.Sweep(ctx, false)
	if err != nil || again.Purged != 0 || len(again.Candidates) != 0 {
		t.Fatalf("second sweep = %+v, %v", again, err)
	}

	if events.Count(queue.TopicDocumentDeleted) != 1 || events.Count(queue.TopicDocumentPurged) != 1 {
		t.Fatalf("topics = %v", events.Topics())
	}
}

func TestSoftDeleteRequiresReviewState(t *testing.T) {
	db := testkit.NewDB(t)
	m := lifecycle.New(db, testkit.NewStore(), lifecycle.DefaultFolders(), nil)

	doc := testkit.InsertDocument(t, db, &model.Document{FilePath: "import/a.pdf", Status: model.StatusUploaded})

	if err := m.SoftDelete(context.Background(), doc, ""); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
}
