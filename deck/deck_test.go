package deck

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/slidecraft-project/slidecraft/llm"
	"github.com/slidecraft-project/slidecraft/storage"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error: %v", err)
	}
	return NewService(store), store
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	first, err := service.CreateProject(ctx, "Q3 review")
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if first.ID == "" || first.Name != "Q3 review" {
		t.Errorf("CreateProject() = %+v", first)
	}
	second, err := service.CreateProject(ctx, "pitch")
	if err != nil {
		t.Fatal(err)
	}

	projects, err := service.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("ListProjects() returned %d projects", len(projects))
	}

	// The persisted index document carries an update stamp.
	raw, err := store.Read(ctx, indexPath)
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	var index ProjectsIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		t.Fatalf("decoding index: %v", err)
	}
	if index.UpdatedAt.IsZero() {
		t.Error("index UpdatedAt not stamped")
	}

	if err := service.DeleteProject(ctx, first.ID); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}
	projects, err = service.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].ID != second.ID {
		t.Errorf("ListProjects() after delete = %+v", projects)
	}
}

func TestRecordRoundTripAndSlideByPage(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	record, err := service.LoadRecord(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadRecord() on fresh project error: %v", err)
	}
	if len(record.Slides) != 0 {
		t.Fatalf("fresh record has %d slides", len(record.Slides))
	}

	slide := record.SlideByPage(2)
	if slide.ID == "" || slide.PageIndex != 2 {
		t.Errorf("SlideByPage(2) = %+v", slide)
	}
	record.SlideByPage(0)
	if got := record.SlideByPage(2); got.ID != slide.ID {
		t.Errorf("SlideByPage(2) created a duplicate entry")
	}
	if record.Slides[0].PageIndex != 0 || record.Slides[1].PageIndex != 2 {
		t.Errorf("slides not ordered by page: %+v", record.Slides)
	}

	if err := service.SaveRecord(ctx, "p1", record); err != nil {
		t.Fatalf("SaveRecord() error: %v", err)
	}
	loaded, err := service.LoadRecord(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Slides) != 2 || loaded.Slides[1].ID != slide.ID {
		t.Errorf("LoadRecord() = %+v", loaded)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestSelectCandidate(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	record, _ := service.LoadRecord(ctx, "p1")
	slide := record.SlideByPage(0)
	slide.GeneratedCandidates = []Candidate{{ID: "cand-1", Prompt: "bluer"}}
	if err := service.SaveRecord(ctx, "p1", record); err != nil {
		t.Fatal(err)
	}

	if err := service.SelectCandidate(ctx, "p1", 0, "cand-1"); err != nil {
		t.Fatalf("SelectCandidate() error: %v", err)
	}
	loaded, _ := service.LoadRecord(ctx, "p1")
	if got := loaded.SlideByPage(0).CurrentGeneratedID; got != "cand-1" {
		t.Errorf("CurrentGeneratedID = %q", got)
	}

	if err := service.SelectCandidate(ctx, "p1", 0, "nope"); err == nil {
		t.Error("SelectCandidate() accepted an unknown candidate")
	}
	// Empty ID reverts to the original page image.
	if err := service.SelectCandidate(ctx, "p1", 0, ""); err != nil {
		t.Fatalf("SelectCandidate(\"\") error: %v", err)
	}
	loaded, _ = service.LoadRecord(ctx, "p1")
	if got := loaded.SlideByPage(0).CurrentGeneratedID; got != "" {
		t.Errorf("CurrentGeneratedID after revert = %q", got)
	}
}

func TestStorePageSourcePrefersSelectedCandidate(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	if err := store.Write(ctx, PagePath("p1", 0), []byte("original")); err != nil {
		t.Fatal(err)
	}
	record, _ := service.LoadRecord(ctx, "p1")
	slide := record.SlideByPage(0)
	slide.GeneratedCandidates = []Candidate{{ID: "c1"}}
	slide.CurrentGeneratedID = "c1"
	if err := store.Write(ctx, CandidatePath("p1", slide.ID, "c1"), []byte("variant")); err != nil {
		t.Fatal(err)
	}
	if err := service.SaveRecord(ctx, "p1", record); err != nil {
		t.Fatal(err)
	}

	source := &StorePageSource{Store: store, Service: service}
	data, err := source.Page(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	if string(data) != "variant" {
		t.Errorf("Page() = %q, want selected candidate", data)
	}

	// Other pages still read the original raster.
	if err := store.Write(ctx, PagePath("p1", 1), []byte("page two")); err != nil {
		t.Fatal(err)
	}
	data, err = source.Page(ctx, "p1", 1)
	if err != nil || string(data) != "page two" {
		t.Errorf("Page(1) = %q, %v", data, err)
	}
}

type fakeGenerator struct {
	images []llm.GeneratedImage
	err    error
}

func (g *fakeGenerator) GenerateVariants(_ context.Context, _ []byte, _ string, n int) ([]llm.GeneratedImage, error) {
	if g.err != nil {
		return nil, g.err
	}
	if len(g.images) > n {
		return g.images[:n], nil
	}
	return g.images, nil
}

type captureUsage struct {
	events []llm.Event
}

func (p *captureUsage) Publish(e llm.Event) { p.events = append(p.events, e) }

func TestGenerateStoresCandidates(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	if err := store.Write(ctx, PagePath("p1", 0), []byte("raster")); err != nil {
		t.Fatal(err)
	}

	usage := &captureUsage{}
	gen := &Generation{
		Generator: &fakeGenerator{images: []llm.GeneratedImage{
			{PNG: []byte("img-a"), Model: "dall-e-2"},
			{PNG: nil, Model: "dall-e-2"}, // unusable, dropped
			{PNG: []byte("img-b"), Model: "dall-e-2"},
		}},
		Pages:   &StorePageSource{Store: store, Service: service},
		Store:   store,
		Service: service,
		Usage:   usage,
	}

	candidates, err := gen.Generate(ctx, GenerateParams{
		ProjectID:   "p1",
		PageIndex:   0,
		Instruction: "make the title pop",
		Count:       3,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Generate() returned %d candidates, want 2", len(candidates))
	}

	record, _ := service.LoadRecord(ctx, "p1")
	slide := record.SlideByPage(0)
	if len(slide.GeneratedCandidates) != 2 {
		t.Errorf("record has %d candidates", len(slide.GeneratedCandidates))
	}
	if slide.LastPrompt != "make the title pop" {
		t.Errorf("LastPrompt = %q", slide.LastPrompt)
	}
	if slide.CurrentGeneratedID != candidates[0].ID {
		t.Errorf("CurrentGeneratedID = %q, want first candidate", slide.CurrentGeneratedID)
	}
	data, err := store.Read(ctx, CandidatePath("p1", slide.ID, candidates[0].ID))
	if err != nil || string(data) != "img-a" {
		t.Errorf("stored candidate = %q, %v", data, err)
	}

	// Each usable image bills its own usage event.
	if len(usage.events) != 2 {
		t.Fatalf("published %d usage events, want 2", len(usage.events))
	}
	for _, e := range usage.events {
		if e.Operation != "generate" || e.Model != "dall-e-2" || e.ProjectID != "p1" {
			t.Errorf("usage event = %+v", e)
		}
		if e.CostUSD != llm.GenerationCostUSD(llm.GeneratedImage{Model: "dall-e-2"}) {
			t.Errorf("usage event not priced: %+v", e)
		}
	}
}

func TestGenerateRejectsEmptyInstruction(t *testing.T) {
	gen := &Generation{Generator: &fakeGenerator{}}
	_, err := gen.Generate(context.Background(), GenerateParams{ProjectID: "p1"})
	if !errors.Is(err, ErrEmptyInstruction) {
		t.Errorf("Generate() error = %v, want ErrEmptyInstruction", err)
	}
}

func TestGenerateFailsWithoutUsableImages(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	if err := store.Write(ctx, PagePath("p1", 0), []byte("raster")); err != nil {
		t.Fatal(err)
	}
	gen := &Generation{
		Generator: &fakeGenerator{images: []llm.GeneratedImage{{PNG: nil}}},
		Pages:     &StorePageSource{Store: store, Service: service},
		Store:     store,
		Service:   service,
	}
	_, err := gen.Generate(ctx, GenerateParams{ProjectID: "p1", Instruction: "x"})
	if err == nil || !strings.Contains(err.Error(), "generation failed") {
		t.Errorf("Generate() error = %v, want generation failure", err)
	}
}
