package dedup_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/dedup"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/testkit"
)

var enabled = configs.NearDuplicateConfig{Enabled: true, Threshold: 1, MaxCandidates: 10, CacheTTL: time.Minute}

func TestHash(t *testing.T) {
	sum, n, err := dedup.Hash(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if sum != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" || n != 3 {
		t.Fatalf("Hash = %s, %d", sum, n)
	}
}

func TestFindLive(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t)
	d := dedup.New(db, nil, nil, enabled)

	live := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/a.pdf", Status: model.StatusPendingApproval, ContentHash: "h1"})
	testkit.InsertDocument(t, db, &model.Document{FilePath: "archive/b.pdf", Status: model.StatusDeleted, ContentHash: "h2"})

	got, err := d.FindLive(ctx, "h1")
	if err != nil || got == nil || got.ID != live.ID {
		t.Fatalf("FindLive(h1) = %v, %v", got, err)
	}

	for _, h := range []string{"h2", "missing", ""} {
		if got, err := d.FindLive(ctx, h); err != nil || got != nil {
			t.Fatalf("FindLive(%q) = %v, %v", h, got, err)
		}
	}
}

func seed(t *testing.T, db *gorm.DB) (subject, sameParty, sameTypeDate *model.Document) {
	t.Helper()

	sameParty = testkit.InsertDocument(t, db, &model.Document{
		FilePath: "archive/acme-jan.pdf", Status: model.StatusArchived,
		DocumentTypeCategory: model.Ptr("invoice"), Party: model.Ptr("ACME  Co"), DocumentType: model.Ptr("Invoice"),
		DueDate: model.Ptr("2025-01-31"),
	})
	sameTypeDate = testkit.InsertDocument(t, db, &model.Document{
		FilePath: "archive/beta.pdf", Status: model.StatusArchived,
		DocumentTypeCategory: model.Ptr("invoice"), Party: model.Ptr("Beta LLC"), DocumentType: model.Ptr("invoice"),
		DocumentDate: model.Ptr("2025-02-01"),
	})
	testkit.InsertDocument(t, db, &model.Document{
		FilePath: "archive/gamma.pdf", Status: model.StatusArchived,
		DocumentTypeCategory: model.Ptr("contract"), Party: model.Ptr("Gamma"), DocumentType: model.Ptr("NDA"),
		DocumentDate: model.Ptr("2025-02-01"),
	})
	testkit.InsertDocument(t, db, &model.Document{
		FilePath: "review/acme-pending.pdf", Status: model.StatusPendingApproval,
		Party: model.Ptr("Acme Co"), DocumentType: model.Ptr("Invoice"),
	})

	subject = testkit.InsertDocument(t, db, &model.Document{
		FilePath: "review/invoice123.pdf", Status: model.StatusPendingApproval,
		DocumentTypeCategory: model.Ptr("invoice"), Party: model.Ptr("acme co"), DocumentType: model.Ptr("Invoice"),
		DocumentDate: model.Ptr("2025-02-01"),
	})

	return subject, sameParty, sameTypeDate
}

func ids(cs []dedup.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}

	slices.Sort(out)

	return out
}

func TestNearDuplicatesBySignature(t *testing.T) {
	db := testkit.NewDB(t)
	subject, sameParty, sameTypeDate := seed(t, db)

	got, err := dedup.New(db, nil, nil, enabled).NearDuplicates(context.Background(), subject)
	if err != nil {
		t.Fatalf("near duplicates: %v", err)
	}

	want := []string{sameParty.ID, sameTypeDate.ID}
	slices.Sort(want)

	if !slices.Equal(ids(got), want) {
		t.Fatalf("candidates = %+v", got)
	}

	for _, c := range got {
		switch c.ID {
		case sameParty.ID:
			if c.Reason != "same party and document type" {
				t.Errorf("reason = %q", c.Reason)
			}
		case sameTypeDate.ID:
			if c.Reason != "same document type and date" {
				t.Errorf("reason = %q", c.Reason)
			}
		}
	}
}

func TestNearDuplicatesJudge(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t)
	store := kv.NewMemory()

	sameParty := testkit.InsertDocument(t, db, &model.Document{
		FilePath: "archive/acme-jan.pdf", Status: model.StatusArchived, Party: model.Ptr("Acme Co"),
	})
	subject := testkit.InsertDocument(t, db, &model.Document{
		FilePath: "review/invoice123.pdf", Status: model.StatusPendingApproval, Party: model.Ptr("Acme Co"),
	})

	judge := testkit.Reply("judge", `{"duplicates":[{"index":0,"reason":"same invoice number"},{"index":7},{"index":0}]}`)
	d := dedup.New(db, judge, cache.New(store, "near"), enabled)

	for range 2 {
		got, err := d.NearDuplicates(ctx, subject)
		if err != nil {
			t.Fatalf("near duplicates: %v", err)
		}

		if len(got) != 1 || got[0].ID != sameParty.ID || got[0].Reason != "same invoice number" {
			t.Fatalf("candidates = %+v", got)
		}
	}

	if judge.Calls() != 1 {
		t.Fatalf("judge called %d times, second lookup should hit the cache", judge.Calls())
	}

	if !strings.Contains(judge.Requests()[0].Prompt, "acme-jan.pdf") {
		t.Fatal("judge prompt should list candidates")
	}
}

func TestNearDuplicatesJudgeUnavailable(t *testing.T) {
	db := testkit.NewDB(t)
	subject, _, _ := seed(t, db)

	judge := testkit.Fail("judge", errors.New("timeout"))

	got, err := dedup.New(db, judge, nil, enabled).NearDuplicates(context.Background(), subject)
	if err != nil {
		t.Fatalf("near duplicates: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected signature fallback, got %+v", got)
	}
}

func TestNearDuplicatesDisabledOrEmptySignature(t *testing.T) {
	db := testkit.NewDB(t)
	subject, _, _ := seed(t, db)

	got, err := dedup.New(db, nil, nil, configs.NearDuplicateConfig{}).NearDuplicates(context.Background(), subject)
	if err != nil || got != nil {
		t.Fatalf("disabled detector returned %v, %v", got, err)
	}

	blank := testkit.InsertDocument(t, db, &model.Document{FilePath: "review/x.pdf", Status: model.StatusPendingApproval})

	got, err = dedup.New(db, nil, nil, enabled).NearDuplicates(context.Background(), blank)
	if err != nil || len(got) != 0 {
		t.Fatalf("blank signature returned %v, %v", got, err)
	}
}

func TestBlocks(t *testing.T) {
	two := []dedup.Candidate{{ID: "a"}, {ID: "b"}}

	tests := []struct {
		name string
		cfg  configs.NearDuplicateConfig
		want bool
	}{
		{name: "advisory", cfg: configs.NearDuplicateConfig{Threshold: 1}, want: false},
		{name: "hard block reached", cfg: configs.NearDuplicateConfig{HardBlock: true, Threshold: 2}, want: true},
		{name: "hard block below threshold", cfg: configs.NearDuplicateConfig{HardBlock: true, Threshold: 3}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedup.New(nil, nil, nil, tt.cfg).Blocks(two); got != tt.want {
				t.Fatalf("Blocks = %v", got)
			}
		})
	}
}
