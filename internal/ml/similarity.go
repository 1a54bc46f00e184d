package ml

import (
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/temcen/chessrecs/internal/catalog"
)

// SimilarityMatrix is the precomputed opening x opening similarity table.
// Rows and columns share the same name index. Immutable after load.
type SimilarityMatrix struct {
	names []string
	index map[string]int
	data  *mat.Dense
}

type similarityDocument struct {
	OpeningNames []string    `json:"opening_names"`
	Matrix       [][]float64 `json:"matrix"`
}

// NewSimilarityMatrix builds a matrix from names and square row data.
func NewSimilarityMatrix(names []string, rows [][]float64) (*SimilarityMatrix, error) {
	n := len(names)
	if n == 0 {
		return nil, fmt.Errorf("similarity matrix has no openings")
	}
	if len(rows) != n {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d openings", len(rows), n)
	}

	index := make(map[string]int, n)
	normalized := make([]string, n)
	for i, name := range names {
		name = catalog.NormalizeName(name)
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate opening %q in similarity matrix", name)
		}
		index[name] = i
		normalized[i] = name
	}

	backing := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("similarity row %d has %d columns, want %d", i, len(row), n)
		}
		backing = append(backing, row...)
	}

	return &SimilarityMatrix{
		names: normalized,
		index: index,
		data:  mat.NewDense(n, n, backing),
	}, nil
}

// ParseSimilarity validates and decodes a similarity artifact.
func ParseSimilarity(sv *SchemaValidator, raw []byte) (*SimilarityMatrix, error) {
	if err := sv.Validate(SchemaSimilarity, raw); err != nil {
		return nil, err
	}

	var doc similarityDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode similarity matrix: %w", err)
	}

	return NewSimilarityMatrix(doc.OpeningNames, doc.Matrix)
}

// Has reports whether name is part of the matrix vocabulary.
func (s *SimilarityMatrix) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the vocabulary in matrix order.
func (s *SimilarityMatrix) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *SimilarityMatrix) Len() int {
	return len(s.names)
}

// ColumnMean returns, for every row opening, the mean of its similarity to
// the given column openings. Unknown columns are ignored; ok is false if none
// are known.
func (s *SimilarityMatrix) ColumnMean(columns []string) (means []float64, ok bool) {
	var idx []int
	for _, name := range columns {
		if i, known := s.index[name]; known {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, false
	}

	n := len(s.names)
	sum := mat.NewVecDense(n, nil)
	for _, j := range idx {
		sum.AddVec(sum, s.data.ColView(j))
	}
	sum.ScaleVec(1/float64(len(idx)), sum)

	means = make([]float64, n)
	for i := range means {
		means[i] = sum.AtVec(i)
	}
	return means, true
}
