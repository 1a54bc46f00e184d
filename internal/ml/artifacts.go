package ml

import (
	"crypto/sha256"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// ArtifactPaths locates the model artifacts on disk.
type ArtifactPaths struct {
	Similarity    string
	Collaborative string
	Model         string
}

// Artifacts bundles everything the scorers read. All fields are immutable.
type Artifacts struct {
	Similarity    *SimilarityMatrix
	Collaborative *CollaborativeData
	Model         *EmbeddingModel

	// Fingerprint identifies this exact set of collaborative inputs so that
	// shared caches never mix distributions from different models.
	Fingerprint string
	LoadedAt    time.Time
}

// LoadArtifacts reads, validates and decodes every artifact. Any failure is
// returned; nothing is partially installed.
func LoadArtifacts(paths ArtifactPaths, logger *logrus.Logger) (*Artifacts, error) {
	sv, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	simRaw, err := os.ReadFile(paths.Similarity)
	if err != nil {
		return nil, fmt.Errorf("failed to read similarity matrix: %w", err)
	}
	similarity, err := ParseSimilarity(sv, simRaw)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"path":     paths.Similarity,
		"openings": similarity.Len(),
	}).Info("Similarity matrix loaded")

	collabRaw, err := os.ReadFile(paths.Collaborative)
	if err != nil {
		return nil, fmt.Errorf("failed to read collaborative data: %w", err)
	}
	collaborative, err := ParseCollaborative(sv, collabRaw)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"path":       paths.Collaborative,
		"players":    len(collaborative.Players),
		"affinities": len(collaborative.Affinities),
	}).Info("Collaborative data loaded")

	modelRaw, err := os.ReadFile(paths.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding model: %w", err)
	}
	model, err := ParseEmbeddingModel(sv, modelRaw)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"path":       paths.Model,
		"players":    model.Players(),
		"openings":   model.Openings(),
		"dimensions": model.Dimensions(),
	}).Info("Embedding model loaded")

	if err := CheckCompatible(collaborative, model); err != nil {
		return nil, err
	}

	return &Artifacts{
		Similarity:    similarity,
		Collaborative: collaborative,
		Model:         model,
		Fingerprint:   Fingerprint(collabRaw, modelRaw),
		LoadedAt:      time.Now(),
	}, nil
}

// CheckCompatible verifies that the encoders address rows that exist in the model.
func CheckCompatible(data *CollaborativeData, model *EmbeddingModel) error {
	if data.PlayerEncoder.Len() > model.Players() {
		return fmt.Errorf("player encoder has %d classes but model only %d players",
			data.PlayerEncoder.Len(), model.Players())
	}
	if data.OpeningEncoder.Len() > model.Openings() {
		return fmt.Errorf("opening encoder has %d classes but model only %d openings",
			data.OpeningEncoder.Len(), model.Openings())
	}
	return nil
}

// Fingerprint hashes artifact contents into a short version tag.
func Fingerprint(contents ...[]byte) string {
	hasher := sha256.New()
	for _, c := range contents {
		hasher.Write(c)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil))[:16]
}
