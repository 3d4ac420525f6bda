package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedOutputPathDefault(t *testing.T) {
	job := HarvestJobSpec{FolderPath: "/data/tethys"}
	assert.Equal(t, filepath.Join("/data/tethys", "tethys-merged.tsv"), job.ResolvedOutputPath())

	job.OutputPath = "/tmp/out.tsv"
	assert.Equal(t, "/tmp/out.tsv", job.ResolvedOutputPath())
}

func TestResolvedKeyFieldsDefault(t *testing.T) {
	job := HarvestJobSpec{}
	assert.Equal(t, DefaultKeyFields, job.ResolvedKeyFields())

	job.KeyFields = []string{"paper_url"}
	assert.Equal(t, []string{"paper_url"}, job.ResolvedKeyFields())
}

func TestFetchWorkersDefault(t *testing.T) {
	job := HarvestJobSpec{}
	assert.Equal(t, 4, job.FetchWorkers())

	job.Concurrency.Workers.Fetch = 2
	assert.Equal(t, 2, job.FetchWorkers())
}

func TestDeduplicatedSetKeysSorted(t *testing.T) {
	set := &DeduplicatedSet{Records: map[string]Record{
		"zeta": {}, "alpha": {}, "mid": {},
	}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, set.Keys())
}
