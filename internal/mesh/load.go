package mesh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk decomposition: one entry per rank.
type File struct {
	Ranks []RankSpec `yaml:"ranks"`
}

// RankSpec is one rank's entry in a decomposition file.
type RankSpec struct {
	OwnedNodes []int     `yaml:"owned_nodes"`
	GhostNodes []int     `yaml:"ghost_nodes"`
	Elements   []Element `yaml:"elements"`
}

// Load reads a decomposition file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a decomposition from YAML bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing mesh file: %w", err)
	}
	if len(f.Ranks) == 0 {
		return nil, fmt.Errorf("mesh file declares no ranks")
	}
	return &f, nil
}

// ForRank builds the decomposition for rank out of a job of size ranks.
func (f *File) ForRank(rank, size int) (*Decomposition, error) {
	if len(f.Ranks) != size {
		return nil, fmt.Errorf("mesh file declares %d ranks but the job has %d", len(f.Ranks), size)
	}
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("rank %d out of range for %d ranks", rank, size)
	}
	part := f.Ranks[rank]
	return New(rank, part.OwnedNodes, part.GhostNodes, part.Elements)
}
