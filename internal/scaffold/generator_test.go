package scaffold

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWritesTemplateFiles(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	project, err := g.Generate("build me a todo web app")
	require.NoError(t, err)

	assert.Equal(t, "todo-web-app", project.Name)
	assert.NotEmpty(t, project.ID)
	assert.Contains(t, project.Files, "public/index.html")
	assert.Contains(t, project.Files, "server.js")

	content, err := os.ReadFile(filepath.Join(project.Path, "public/index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "todo-web-app")

	got, err := g.Get(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)
}

func TestDeriveName(t *testing.T) {
	cases := map[string]string{
		"build me a todo web app":    "todo-web-app",
		"Create a Landing Page!":     "landing-page",
		"":                           "app",
		"make me $$$":                "app",
		"create an expense tracker":  "expense-tracker",
	}
	for message, want := range cases {
		assert.Equal(t, want, deriveName(message), "message %q", message)
	}
}

func TestExportRoundTrip(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	project, err := g.Generate("create a notes app")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.Export(project.ID, &buf))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	names := map[string]bool{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names[header.Name] = true
	}

	for _, want := range project.Files {
		assert.True(t, names[filepath.FromSlash(want)] || names[want], "archive missing %s", want)
	}
}

func TestExportUnknownProject(t *testing.T) {
	g, err := NewGenerator(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, g.Export("nope", &buf))
}
