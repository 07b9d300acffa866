// Package deck persists per-project deck metadata and drives the
// slide-to-presentation export pipeline.
package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/slidecraft-project/slidecraft/pkg/utils"
	"github.com/slidecraft-project/slidecraft/storage"
)

// Candidate is one generated slide-image variant.
type Candidate struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// Slide is the per-page metadata tracked for a deck.
type Slide struct {
	ID                  string      `json:"id"`
	PageIndex           int         `json:"pageIndex"`
	LastPrompt          string      `json:"lastPrompt,omitempty"`
	GeneratedCandidates []Candidate `json:"generatedCandidates,omitempty"`
	// CurrentGeneratedID selects which candidate replaces the original
	// page image. Empty means the original page is current.
	CurrentGeneratedID string `json:"currentGeneratedId,omitempty"`
}

// Record is the deck metadata document stored alongside a project.
type Record struct {
	Slides    []Slide   `json:"slides"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project is one entry in the projects index.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectsIndex lists every known project.
type ProjectsIndex struct {
	Projects  []Project `json:"projects"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageSource yields the rendered PNG for one page of a project. Pages are
// rasterized by the client before upload; the server only reads blobs.
type PageSource interface {
	Page(ctx context.Context, projectID string, pageIndex int) ([]byte, error)
}

const (
	projectsRoot = "projects"
	indexPath    = projectsRoot + "/index.json"
)

func projectPath(projectID string) string {
	return projectsRoot + "/" + projectID
}

func deckPath(projectID string) string {
	return projectPath(projectID) + "/deck.json"
}

// PagePath is where uploaded page rasters live.
func PagePath(projectID string, pageIndex int) string {
	return fmt.Sprintf("%s/pages/page-%d.png", projectPath(projectID), pageIndex)
}

// CandidatePath is where generated variant images live.
func CandidatePath(projectID, slideID, candidateID string) string {
	return fmt.Sprintf("%s/candidates/%s/%s.png", projectPath(projectID), slideID, candidateID)
}

// Service reads and writes deck metadata and the projects index.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// LoadRecord returns the deck record, or an empty record when none has been
// written yet.
func (s *Service) LoadRecord(ctx context.Context, projectID string) (*Record, error) {
	data, err := s.store.Read(ctx, deckPath(projectID))
	if errors.Is(err, storage.ErrNotFound) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deck record: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode deck record: %w", err)
	}
	return &record, nil
}

// SaveRecord stamps UpdatedAt and persists the record as indented JSON.
func (s *Service) SaveRecord(ctx context.Context, projectID string, record *Record) error {
	record.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deck record: %w", err)
	}
	return s.store.Write(ctx, deckPath(projectID), data)
}

// SlideByPage finds the slide entry for a page, creating one on first use.
func (r *Record) SlideByPage(pageIndex int) *Slide {
	for i := range r.Slides {
		if r.Slides[i].PageIndex == pageIndex {
			return &r.Slides[i]
		}
	}
	r.Slides = append(r.Slides, Slide{ID: uuid.New().String(), PageIndex: pageIndex})
	sort.Slice(r.Slides, func(i, j int) bool {
		return r.Slides[i].PageIndex < r.Slides[j].PageIndex
	})
	return r.SlideByPage(pageIndex)
}

// CreateProject registers a project in the index.
func (s *Service) CreateProject(ctx context.Context, name string) (*Project, error) {
	index, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	project := Project{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	index.Projects = append(index.Projects, project)
	if err := s.saveIndex(ctx, index); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the index entries, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	index, err := s.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(index.Projects, func(i, j int) bool {
		return index.Projects[i].CreatedAt.After(index.Projects[j].CreatedAt)
	})
	return index.Projects, nil
}

// DeleteProject removes the project tree and its index entry.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.store.DeleteTree(ctx, projectPath(projectID)); err != nil {
		return fmt.Errorf("failed to delete project storage: %w", err)
	}
	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	index.Projects = utils.Filter(index.Projects, func(p Project) bool {
		return p.ID != projectID
	})
	return s.saveIndex(ctx, index)
}

// SelectCandidate marks a generated candidate as the slide's current image.
// An empty candidateID reverts to the original page.
func (s *Service) SelectCandidate(ctx context.Context, projectID string, pageIndex int, candidateID string) error {
	record, err := s.LoadRecord(ctx, projectID)
	if err != nil {
		return err
	}
	slide := record.SlideByPage(pageIndex)
	if candidateID != "" && !slide.hasCandidate(candidateID) {
		return fmt.Errorf("unknown candidate %s for page %d", candidateID, pageIndex)
	}
	slide.CurrentGeneratedID = candidateID
	return s.SaveRecord(ctx, projectID, record)
}

func (sl *Slide) hasCandidate(candidateID string) bool {
	_, ok := utils.Find(sl.GeneratedCandidates, func(c Candidate) bool {
		return c.ID == candidateID
	})
	return ok
}

func (s *Service) loadIndex(ctx context.Context) (*ProjectsIndex, error) {
	data, err := s.store.Read(ctx, indexPath)
	if errors.Is(err, storage.ErrNotFound) {
		return &ProjectsIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load projects index: %w", err)
	}
	var index ProjectsIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode projects index: %w", err)
	}
	return &index, nil
}

func (s *Service) saveIndex(ctx context.Context, index *ProjectsIndex) error {
	index.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projects index: %w", err)
	}
	return s.store.Write(ctx, indexPath, data)
}

// StorePageSource reads page rasters straight from the blob store, honoring
// a slide's selected generated candidate when one is set.
type StorePageSource struct {
	Store   storage.Store
	Service *Service
}

func (s *StorePageSource) Page(ctx context.Context, projectID string, pageIndex int) ([]byte, error) {
	if s.Service != nil {
		record, err := s.Service.LoadRecord(ctx, projectID)
		if err != nil {
			return nil, err
		}
		for _, slide := range record.Slides {
			if slide.PageIndex == pageIndex && slide.CurrentGeneratedID != "" {
				return s.Store.Read(ctx, CandidatePath(projectID, slide.ID, slide.CurrentGeneratedID))
			}
		}
	}
	return s.Store.Read(ctx, PagePath(projectID, pageIndex))
}
