package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeServiceLoadsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"basics":{"name":"Ada"},"work":[{"company":"Engines Ltd","position":"Analyst","startDate":"1842-01"}]}`), 0o644))
	resume, err := NewResumeService(jsonPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "Ada", resume.Basics.Name)
	require.Len(t, resume.Work, 1)
	assert.Equal(t, "Engines Ltd", resume.Work[0].Employer())

	yamlPath := filepath.Join(dir, "resume.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("basics:\n  name: Grace\nskills:\n  - name: COBOL\n    keywords: [compilers]\n"), 0o644))
	resume, err = NewResumeService(yamlPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "Grace", resume.Basics.Name)
	assert.Equal(t, []string{"compilers"}, resume.Skills[0].Keywords)

	_, err = NewResumeService(filepath.Join(dir, "missing.yaml")).Load()
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeDate(t *testing.T) {
	assert.Equal(t, "Present", ResumeDate(""))
	assert.Equal(t, "Mar 2010", ResumeDate("2010-03-15"))
	assert.Equal(t, "Mar 2010", ResumeDate("2010-03"))
	assert.Equal(t, "2010", ResumeDate("2010"))
}
