// Package scaffold writes boilerplate full-stack project files to a temp
// directory and keeps track of generated projects. Deployment never happens
// here; preview URLs are descriptive placeholders.
package scaffold

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// Generator creates project scaffolds under baseDir
type Generator struct {
	projects sync.Map // projectID -> *models.Project
	baseDir  string
}

// NewGenerator creates a generator rooted at baseDir (a temp dir when empty)
func NewGenerator(baseDir string) (*Generator, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "browserpilot-projects")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scaffold directory: %w", err)
	}
	return &Generator{baseDir: baseDir}, nil
}

var nameSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// Generate writes the template files for a new project derived from the
// user's message and records its metadata.
func (g *Generator) Generate(message string) (*models.Project, error) {
	name := deriveName(message)
	id := uuid.New().String()
	dir := filepath.Join(g.baseDir, fmt.Sprintf("%s-%s", name, id[:8]))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	files := templateFiles(name, message)
	written := make([]string, 0, len(files))
	for relPath, content := range files {
		path := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(relPath), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", relPath, err)
		}
		written = append(written, relPath)
	}

	project := &models.Project{
		ID:         id,
		Name:       name,
		Stack:      "html/css/js + node",
		Path:       dir,
		Files:      written,
		PreviewURL: fmt.Sprintf("https://preview.invalid/%s", name),
		CreatedAt:  time.Now(),
	}
	g.projects.Store(id, project)

	log.Info("scaffold: project generated", "name", name, "files", len(written), "dir", dir)
	return project, nil
}

// Get returns a generated project's metadata
func (g *Generator) Get(id string) (*models.Project, error) {
	value, ok := g.projects.Load(id)
	if !ok {
		return nil, fmt.Errorf("project not found")
	}
	return value.(*models.Project), nil
}

// List returns all generated projects
func (g *Generator) List() []*models.Project {
	var projects []*models.Project
	g.projects.Range(func(_, value interface{}) bool {
		projects = append(projects, value.(*models.Project))
		return true
	})
	return projects
}

// Export writes a tar.gz of the project to w
func (g *Generator) Export(id string, w io.Writer) error {
	project, err := g.Get(id)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(w)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	return filepath.Walk(project.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, err := filepath.Rel(project.Path, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = relPath
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
}

// deriveName extracts a usable slug from the user's message
func deriveName(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, prefix := range []string{"build me", "create an", "create a", "make me", "make a"} {
		lower = strings.TrimSpace(strings.TrimPrefix(lower, prefix))
	}
	for _, article := range []string{"a ", "an "} {
		lower = strings.TrimPrefix(lower, article)
	}

	slug := nameSanitizer.ReplaceAllString(strings.TrimSpace(lower), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "app"
	}
	return slug
}
