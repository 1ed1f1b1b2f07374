package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/tagger/internal/catalog"
	"github.com/lehigh-university-libraries/tagger/internal/classifier"
	"github.com/lehigh-university-libraries/tagger/internal/colors"
	"github.com/lehigh-university-libraries/tagger/internal/imaging"
	"github.com/lehigh-university-libraries/tagger/internal/keywords"
)

const fullConfidence = "100.00%"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// Service walks a media library and keeps its catalog up to date
type Service struct {
	store      catalog.Store
	classifier classifier.Classifier
	now        func() time.Time
}

// NewService returns a new tagging Service
func NewService(store catalog.Store, c classifier.Classifier) *Service {
	return &Service{
		store:      store,
		classifier: c,
		now:        time.Now,
	}
}

// Summary describes a single scan run
type Summary struct {
	Root      string
	Processed map[string]int
	Skipped   int
	Errors    []string
	Duration  time.Duration
}

// ProcessDirectory scans the immediate children of root and writes the
// updated catalog back through the store. Per-file errors are logged
// and collected on the summary; they never abort the run.
func (s *Service) ProcessDirectory(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		Root:      root,
		Processed: map[string]int{},
	}

	cat, err := s.store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load catalog: %w", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return summary, fmt.Errorf("failed to read library root: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := entry.Name()
		switch {
		case entry.IsDir():
			s.processBundle(cat, root, name, summary)
		case imageExtensions[strings.ToLower(filepath.Ext(name))]:
			s.processImage(ctx, cat, root, name, summary)
		case strings.ToLower(filepath.Ext(name)) == ".txt":
			s.processText(cat, root, name, summary)
		case strings.ToLower(filepath.Ext(name)) == ".glb":
			s.processModel(cat, root, name, summary)
		default:
			summary.Skipped++
		}
	}

	if err := s.store.Save(ctx, cat); err != nil {
		return summary, fmt.Errorf("failed to save catalog: %w", err)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// processBundle handles a model folder: a directory holding a .glb
// plus an optional thumbnail and an optional tag text file.
func (s *Service) processBundle(cat *catalog.Catalog, root, dirName string, summary *Summary) {
	slog.Info("Processing model folder", "name", dirName)

	children, err := os.ReadDir(filepath.Join(root, dirName))
	if err != nil {
		s.fileError(summary, dirName, fmt.Errorf("failed to read model folder: %w", err))
		return
	}

	var modelName, thumbName, textName string
	for _, child := range children {
		if child.IsDir() {
			continue
		}
		name := child.Name()
		if modelName == "" && strings.HasSuffix(name, ".glb") {
			modelName = name
		}
		if thumbName == "" && strings.HasPrefix(name, "thumbnail.") {
			thumbName = name
		}
		if textName == "" && strings.HasSuffix(name, ".txt") {
			textName = name
		}
	}

	if modelName == "" {
		slog.Warn("No model files found", "folder", dirName)
		summary.Skipped++
		return
	}

	modelPath := filepath.Join(root, dirName, modelName)
	info, err := os.Stat(modelPath)
	if err != nil {
		s.fileError(summary, dirName, fmt.Errorf("failed to stat model file: %w", err))
		return
	}

	var tags []catalog.Tag
	if textName != "" {
		tags, err = keywords.Analyze(filepath.Join(root, dirName, textName))
		if err != nil {
			slog.Warn("Keyword analysis failed", "path", path.Join(dirName, textName), "error", err)
			tags = nil
		}
	}

	rel := path.Join(dirName, modelName)
	candidates := append(tags, s.syntheticTags(info.ModTime(), catalog.Type3D, strings.ToLower(dirName))...)

	newEntry := catalog.Entry{
		Type:         catalog.Type3D,
		Tags:         finalTags(cat.Files[rel], candidates),
		LastAnalyzed: s.timestamp(),
		FileSize:     info.Size(),
	}
	if thumbName != "" {
		thumb := path.Join(dirName, thumbName)
		newEntry.Thumbnail = &thumb
	}

	cat.Files[rel] = newEntry
	summary.Processed[catalog.Type3D]++
}

// processImage classifies an image and records its entry. A file that
// cannot be decoded gets no entry at all; a classifier failure only
// costs the predictions.
func (s *Service) processImage(ctx context.Context, cat *catalog.Catalog, root, name string, summary *Summary) {
	slog.Info("Processing image", "path", name)

	fullPath := filepath.Join(root, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		s.fileError(summary, name, fmt.Errorf("failed to stat image: %w", err))
		return
	}

	img, err := imaging.Decode(fullPath)
	if err != nil {
		s.fileError(summary, name, fmt.Errorf("failed to decode image: %w", err))
		return
	}

	predictions, err := s.classifier.Classify(ctx, fullPath)
	if err != nil {
		slog.Warn("Classification failed, using synthetic tags only", "path", name, "error", err)
		predictions = nil
	}

	dominant, err := colors.Dominant(fullPath)
	if err != nil {
		slog.Warn("Could not determine dominant color", "path", name, "error", err)
	}

	candidates := predictionTags(predictions)
	candidates = append(candidates, syntheticTag(dominant))
	candidates = append(candidates, s.syntheticTags(info.ModTime(), catalog.TypeImage, stemOf(name))...)

	bounds := img.Bounds()
	cat.Files[name] = catalog.Entry{
		Type:         catalog.TypeImage,
		Tags:         finalTags(cat.Files[name], candidates),
		Color:        dominant,
		Dimensions:   fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		LastAnalyzed: s.timestamp(),
		FileSize:     info.Size(),
	}
	summary.Processed[catalog.TypeImage]++
}

func (s *Service) processText(cat *catalog.Catalog, root, name string, summary *Summary) {
	slog.Info("Processing text", "path", name)

	fullPath := filepath.Join(root, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		s.fileError(summary, name, fmt.Errorf("failed to stat text file: %w", err))
		return
	}

	tags, err := keywords.Analyze(fullPath)
	if err != nil {
		slog.Warn("Keyword analysis failed", "path", name, "error", err)
		tags = nil
	}

	candidates := append(tags, s.syntheticTags(info.ModTime(), catalog.TypeText, stemOf(name))...)

	cat.Files[name] = catalog.Entry{
		Type:         catalog.TypeText,
		Tags:         finalTags(cat.Files[name], candidates),
		LastAnalyzed: s.timestamp(),
		FileSize:     info.Size(),
	}
	summary.Processed[catalog.TypeText]++
}

// processModel handles a standalone .glb at the library root. A text
// file sharing its stem contributes keywords when present.
func (s *Service) processModel(cat *catalog.Catalog, root, name string, summary *Summary) {
	slog.Info("Processing standalone 3D model", "path", name)

	fullPath := filepath.Join(root, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		s.fileError(summary, name, fmt.Errorf("failed to stat model file: %w", err))
		return
	}

	var tags []catalog.Tag
	companion := strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + ".txt"
	if _, err := os.Stat(companion); err == nil {
		tags, err = keywords.Analyze(companion)
		if err != nil {
			slog.Warn("Keyword analysis failed", "path", name, "error", err)
			tags = nil
		}
	}

	candidates := append(tags, s.syntheticTags(info.ModTime(), catalog.Type3D, stemOf(name))...)

	cat.Files[name] = catalog.Entry{
		Type:         catalog.Type3D,
		Tags:         finalTags(cat.Files[name], candidates),
		LastAnalyzed: s.timestamp(),
		FileSize:     info.Size(),
	}
	summary.Processed[catalog.Type3D]++
}

func (s *Service) fileError(summary *Summary, name string, err error) {
	slog.Error("Failed to process file", "path", name, "error", err)
	summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", name, err))
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

// syntheticTags builds the year, month, type and name tags every entry
// gets as candidates. Year and month come from the file's modification
// time.
func (s *Service) syntheticTags(mod time.Time, fileType, name string) []catalog.Tag {
	return []catalog.Tag{
		syntheticTag(strconv.Itoa(mod.Year())),
		syntheticTag(strings.ToLower(mod.Month().String())),
		syntheticTag(fileType),
		syntheticTag(name),
	}
}

func syntheticTag(value string) catalog.Tag {
	return catalog.Tag{Tag: value, Confidence: fullConfidence}
}

func predictionTags(predictions []classifier.Prediction) []catalog.Tag {
	tags := make([]catalog.Tag, 0, len(predictions))
	for _, p := range predictions {
		tags = append(tags, catalog.Tag{
			Tag:        p.Label,
			Confidence: fmt.Sprintf("%.2f%%", p.Confidence),
		})
	}
	return tags
}

// finalTags applies the preservation rule: an entry that already has
// tags keeps them untouched, only the metadata fields refresh.
func finalTags(existing catalog.Entry, candidates []catalog.Tag) []catalog.Tag {
	if len(existing.Tags) > 0 {
		return existing.Tags
	}
	return candidates
}

func stemOf(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
}
