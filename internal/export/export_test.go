package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"Kanu Prajapati Portfolio", "Kanu-Prajapati-Portfolio"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "portfolio"},
		{"⚡ logo", "logo"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := sanitizeFilename(tt.input); result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := percentEncodeForDataURL(tt.input); result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPDF, "PDF": FormatPDF, "docx": FormatDOCX, " html ": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("odt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExportHTMLIncludesProjectDetails(t *testing.T) {
	svc := NewService()
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }

	profile := portfolio.DefaultProfile()
	projects := []portfolio.Project{{
		Title: "Weather <App>", Description: "Forecasts", Tags: []string{"Go", "Redis"},
		Status: portfolio.StatusLive, Links: portfolio.ProjectLinks{GitHub: "https://github.com/x/weather", Demo: "#"},
	}}
	res, err := svc.Export(context.Background(), Portfolio{
		Profile:  profile,
		Projects: projects,
		Skills:   []portfolio.Skill{{ID: 1, Name: "Go", Proficiency: 90}},
	}, FormatHTML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	html := string(res.Data)

	for _, want := range []string{
		profile.Name,
		"Weather &lt;App&gt;",
		"Go, Redis",
		"Completed 2024-05-06",
		`href="https://github.com/x/weather"`,
		"width: 90%",
		"Generated May 6, 2024",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(html, ">Demo<") {
		t.Error("placeholder links should not be rendered")
	}
	if res.Filename != "Kanu-Prajapati-Portfolio.html" || !strings.HasPrefix(res.MimeType, "text/html") {
		t.Fatalf("unexpected result metadata %q %q", res.Filename, res.MimeType)
	}
	if projects[0].FullDescription != "" {
		t.Fatal("export must not modify the caller's projects")
	}
}

func TestExportDelegatesToConverters(t *testing.T) {
	svc := NewService()
	var gotTitle string
	svc.pdf = func(_ context.Context, html, title string) (*Result, error) {
		gotTitle = title
		return &Result{Data: []byte("%PDF"), Filename: "x.pdf"}, nil
	}
	svc.docx = func(context.Context, string, string) (*Result, error) {
		return nil, ErrDOCXDependencyMissing
	}

	p := Portfolio{Profile: portfolio.Profile{Name: "Ada"}}
	if _, err := svc.Export(context.Background(), p, FormatPDF); err != nil || gotTitle != "Ada Portfolio" {
		t.Fatalf("pdf export: title %q err %v", gotTitle, err)
	}
	if _, err := svc.Export(context.Background(), p, FormatDOCX); !errors.Is(err, ErrDOCXDependencyMissing) {
		t.Fatalf("expected missing pandoc error, got %v", err)
	}
	if _, err := svc.Export(context.Background(), p, Format("odt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	open := func() *localstore.Store {
		s, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	src := open()
	_ = src.Set(ctx, portfolio.KeySkills, []byte(`[{"id":1,"name":"Go","proficiency":90}]`))
	_ = src.Set(ctx, portfolio.KeyGitSettings, []byte(`{"username":"octo"}`))

	snap, err := Take(ctx, src, portfolio.AllKeys, time.Now())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got := snap.Keys(); len(got) != 2 {
		t.Fatalf("expected only present keys, got %v", got)
	}

	var buf bytes.Buffer
	if _, err := snap.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	decoded, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	dst := open()
	n, err := Restore(ctx, dst, decoded)
	if err != nil || n != 2 {
		t.Fatalf("Restore: n=%d err=%v", n, err)
	}
	raw, ok, _ := dst.Get(ctx, portfolio.KeyGitSettings)
	if !ok || !strings.Contains(string(raw), "octo") {
		t.Fatalf("restored value missing: %s", raw)
	}
}

func TestReadSnapshotRejectsForeignFiles(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{"format":"other","version":1,"entries":{}}`,
		`{"format":"folio-backup","version":99,"entries":{}}`,
	} {
		if _, err := ReadSnapshot(strings.NewReader(in)); !errors.Is(err, ErrInvalidBackup) {
			t.Fatalf("ReadSnapshot(%q) = %v, want ErrInvalidBackup", in, err)
		}
	}
}
