package templates

import (
	"encoding/json"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty-ras/start/internal/fileops"
)

var (
	dataValidations = []string{"io-ts", "runtypes", "zod"}
	componentsAll   = []string{"be", "fe", "be-and-fe"}
)

func TestEmbeddedTemplatesExist(t *testing.T) {
	m := NewManager()

	for _, dv := range dataValidations {
		for _, components := range componentsAll {
			p, err := m.GetTemplatePath(dv, components)
			require.NoError(t, err, "%s/%s", dv, components)

			manifests, err := fileops.FindFiles(m.FS(), p, "**/package.json")
			require.NoError(t, err)
			want := 1
			if components == "be-and-fe" {
				want = 4
			}
			assert.Len(t, manifests, want, "%s/%s", dv, components)
		}
		for _, component := range []string{ComponentBackend, ComponentFrontend} {
			_, err := m.GetComponentPath(dv, component)
			assert.NoError(t, err, "%s/%s", dv, component)
		}
	}

	shared, err := m.GetSharedPath()
	require.NoError(t, err)
	files, err := fileops.ListFiles(m.FS(), shared)
	require.NoError(t, err)
	assert.Contains(t, files, ".gitignore")
}

func TestEmbeddedFullStackRootDeclaresWorkspaces(t *testing.T) {
	m := NewManager()
	p, err := m.GetTemplatePath("zod", "be-and-fe")
	require.NoError(t, err)

	data, err := afero.ReadFile(m.FS(), path.Join(p, "package.json"))
	require.NoError(t, err)

	var root struct {
		Workspaces []string `json:"workspaces"`
	}
	require.NoError(t, json.Unmarshal(data, &root))
	assert.ElementsMatch(t, []string{
		"components/protocol",
		"components/backend",
		"components/frontend",
	}, root.Workspaces)
}

func TestUnknownTemplates(t *testing.T) {
	m := NewManager()

	_, err := m.GetTemplatePath("yup", "be")
	assert.EqualError(t, err, "template not found: yup/be")

	_, err = m.GetComponentPath("zod", "database")
	assert.EqualError(t, err, "component template not found: zod/database")
}

func TestManagerFromCustomFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tpl/zod/fe/package.json", []byte("{}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tpl/zod/be/package.json", []byte("{}"), 0o644))
	m := NewManagerFrom(fs, "/tpl")

	p, err := m.GetTemplatePath("zod", "fe")
	require.NoError(t, err)
	assert.Equal(t, "/tpl/zod/fe", p)

	// A file where a tree is expected is not a template.
	_, err = m.GetTemplatePath("zod", "be/package.json")
	assert.Error(t, err)

	_, err = m.GetSharedPath()
	assert.EqualError(t, err, "shared templates not found")
}
