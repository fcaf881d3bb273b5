package domain

import (
	"reflect"
	"testing"
)

func TestUserStruct_DefaultZeroValues(t *testing.T) {
	var u User

	if u.Role != "" {
		t.Fatalf("expected empty role")
	}
	if u.Verified {
		t.Fatalf("expected Verified=false")
	}
	if u.VerificationToken != nil {
		t.Fatalf("expected nil verification token")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.Com \t"); got != "a@x.com" {
		t.Fatalf("got %q", got)
	}
}

func TestMergeLinks_DedupKeepsOrder(t *testing.T) {
	got := MergeLinks([]string{"a", "b"}, []string{"b", "c", "a", "c"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestAttachmentsPatch_Apply(t *testing.T) {
	u := User{
		ResumeFiles:    []UploadedFile{{Filename: "old.pdf"}},
		PortfolioLinks: []string{"https://a.dev"},
	}
	p := AttachmentsPatch{
		ResumeFiles:    []UploadedFile{{Filename: "new.pdf"}},
		ProjectFiles:   []UploadedFile{{Filename: "p.zip"}},
		PortfolioLinks: []string{"https://a.dev", "https://b.dev"},
	}
	if p.Empty() {
		t.Fatalf("patch should not be empty")
	}

	p.Apply(&u)

	if len(u.ResumeFiles) != 2 || u.ResumeFiles[1].Filename != "new.pdf" {
		t.Fatalf("resume files not appended: %+v", u.ResumeFiles)
	}
	if len(u.ProjectFiles) != 1 {
		t.Fatalf("project files not appended")
	}
	if !reflect.DeepEqual(u.PortfolioLinks, []string{"https://a.dev", "https://b.dev"}) {
		t.Fatalf("links: %v", u.PortfolioLinks)
	}
	if !(AttachmentsPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}
