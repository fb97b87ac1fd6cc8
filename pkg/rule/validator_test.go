package rule_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/docvault/pkg/rule"
)

type webhookLike struct {
	ID       string   `json:"id"       rule:"required,docid"`
	FilePath string   `json:"filePath" rule:"required,objectkey"`
	Source   string   `json:"source"   rule:"omitempty,oneof=email upload bucket-scan"`
	IDs      []string `json:"ids"      rule:"omitempty,max=2,dive,docid"`
}

func TestEngineIsShared(t *testing.T) {
	if rule.Engine() == nil || rule.Engine() != rule.Engine() {
		t.Fatal("Engine() should return one shared instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     webhookLike
		fields []string
	}{
		{"valid", webhookLike{ID: "01jh3k9q6f", FilePath: "import/a.pdf", Source: "email"}, nil},
		{"missing id", webhookLike{FilePath: "import/a.pdf"}, []string{"id"}},
		{"bad id", webhookLike{ID: "a b", FilePath: "import/a.pdf"}, []string{"id"}},
		{"escaping path", webhookLike{ID: "x", FilePath: "import/../secret.pdf"}, []string{"filePath"}},
		{"bad source", webhookLike{ID: "x", FilePath: "a.pdf", Source: "ftp"}, []string{"source"}},
		{"dive", webhookLike{ID: "x", FilePath: "a.pdf", IDs: []string{"ok", "not ok"}}, []string{"ids[1]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.ValidateStruct(tt.in)

			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			errs := rule.Errors(err)
			for _, f := range tt.fields {
				if _, ok := errs[f]; !ok {
					t.Fatalf("expected error on %q, got %v", f, errs)
				}
			}
		})
	}
}

func TestValidObjectKey(t *testing.T) {
	tests := map[string]bool{
		"import/a.pdf":         true,
		"archive/2025/inv.pdf": true,
		"":                     false,
		"/import/a.pdf":        false,
		"import//a.pdf":        false,
		"import/./a.pdf":       false,
		"../a.pdf":             false,
		`import\a.pdf`:         false,
	}

	for key, want := range tests {
		if got := rule.ValidObjectKey(key); got != want {
			t.Errorf("ValidObjectKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestErrorsIgnoresOtherErrors(t *testing.T) {
	if rule.Errors(nil) != nil {
		t.Fatal("nil error should give nil map")
	}

	if rule.Errors(errors.New("boom")) != nil {
		t.Fatal("non validation error should give nil map")
	}
}

func TestRegisterValidationAndAlias(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if rule.ValidateVar("test", "even_length") != nil || rule.ValidateVar("test1", "even_length") == nil {
		t.Fatal("even_length rule not applied")
	}

	rule.RegisterAlias("short_key", "required,max=8,objectkey")

	if rule.ValidateVar("a/b.pdf", "short_key") != nil {
		t.Fatal("alias should accept a short object key")
	}

	if rule.ValidateVar("../b.pdf", "short_key") == nil {
		t.Fatal("alias should reject an escaping key")
	}
}
