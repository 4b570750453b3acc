package config

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/utils/safe"
	"gopkg.in/yaml.v3"
)

const gcsScheme = "gs://"

// KnowledgeSeed is the on-disk form of knowledge entries
type KnowledgeSeed struct {
	Entries []KnowledgeSeedEntry `toml:"knowledge" yaml:"knowledge"`
}

// KnowledgeSeedEntry is one article in a seed file. Omitted is_active means active.
type KnowledgeSeedEntry struct {
	Key             string   `toml:"key" yaml:"key"`
	Category        string   `toml:"category" yaml:"category"`
	Platform        string   `toml:"platform" yaml:"platform"`
	Locale          string   `toml:"locale" yaml:"locale"`
	Title           string   `toml:"title" yaml:"title"`
	Description     string   `toml:"description" yaml:"description"`
	StepsWeb        []string `toml:"steps_web" yaml:"steps_web"`
	StepsMobile     []string `toml:"steps_mobile" yaml:"steps_mobile"`
	Tips            []string `toml:"tips" yaml:"tips"`
	Notes           []string `toml:"notes" yaml:"notes"`
	CommonErrors    []string `toml:"common_errors" yaml:"common_errors"`
	ImagesWeb       []string `toml:"images_web" yaml:"images_web"`
	ImagesMobile    []string `toml:"images_mobile" yaml:"images_mobile"`
	VideoURL        string   `toml:"video_url" yaml:"video_url"`
	SearchableText  string   `toml:"searchable_text" yaml:"searchable_text"`
	Keywords        []string `toml:"keywords" yaml:"keywords"`
	SampleQuestions []string `toml:"sample_questions" yaml:"sample_questions"`
	RelatedKeys     []string `toml:"related_keys" yaml:"related_keys"`
	Priority        int      `toml:"priority" yaml:"priority"`
	IsActive        *bool    `toml:"is_active" yaml:"is_active"`
}

// ToModel converts the seed entry. An empty platform means all platforms and an empty
// locale means the default locale.
func (s *KnowledgeSeedEntry) ToModel() *model.KnowledgeEntry {
	platform := types.Platform(strings.ToLower(strings.TrimSpace(s.Platform)))
	if platform == "" {
		platform = types.PlatformAll
	}
	locale := types.Locale(strings.ToLower(strings.TrimSpace(s.Locale)))
	if locale == "" {
		locale = types.DefaultLocale
	}
	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}

	related := make([]model.KnowledgeKey, len(s.RelatedKeys))
	for i, k := range s.RelatedKeys {
		related[i] = model.KnowledgeKey(k)
	}

	return &model.KnowledgeEntry{
		Key:      model.KnowledgeKey(s.Key),
		Category: s.Category,
		Platform: platform,
		Locale:   locale,
		Title:    s.Title,
		Content: model.KnowledgeContent{
			Description: s.Description,
			Steps: model.PlatformSteps{
				Web:    s.StepsWeb,
				Mobile: s.StepsMobile,
			},
			Tips:         s.Tips,
			Notes:        s.Notes,
			CommonErrors: s.CommonErrors,
			Media: model.KnowledgeMedia{
				Images: model.PlatformImages{
					Web:    s.ImagesWeb,
					Mobile: s.ImagesMobile,
				},
				VideoURL: s.VideoURL,
			},
		},
		SearchableText:  s.SearchableText,
		Keywords:        s.Keywords,
		SampleQuestions: s.SampleQuestions,
		RelatedKeys:     related,
		Priority:        s.Priority,
		IsActive:        active,
	}
}

// ParseKnowledgeSeed decodes data as "toml" or "yaml"
func ParseKnowledgeSeed(data []byte, format string) ([]*model.KnowledgeEntry, error) {
	var seed KnowledgeSeed
	switch format {
	case "toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&seed); err != nil {
			return nil, goerr.Wrap(ErrInvalidSeed, err.Error(), goerr.V("format", format))
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(ErrInvalidSeed, err.Error(), goerr.V("format", format))
		}
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "seed format must be toml or yaml", goerr.V("format", format))
	}

	entries := make([]*model.KnowledgeEntry, len(seed.Entries))
	for i := range seed.Entries {
		entries[i] = seed.Entries[i].ToModel()
	}
	return entries, nil
}

// SeedFormat derives the format from the file extension
func SeedFormat(p string) (string, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", goerr.Wrap(ErrUnsupportedFormat, "seed file must end with .toml, .yaml or .yml", goerr.V(SeedPathKey, p))
	}
}

// LoadKnowledgeSeed reads a local seed file, or a gs://bucket/object path from Cloud
// Storage, and decodes it by extension
func LoadKnowledgeSeed(ctx context.Context, p string) ([]*model.KnowledgeEntry, error) {
	format, err := SeedFormat(p)
	if err != nil {
		return nil, err
	}

	var data []byte
	if strings.HasPrefix(p, gcsScheme) {
		data, err = readGCSObject(ctx, p)
	} else {
		data, err = readLocalFile(p)
	}
	if err != nil {
		return nil, err
	}

	entries, err := ParseKnowledgeSeed(data, format)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed file", goerr.V(SeedPathKey, p))
	}
	return entries, nil
}

func readLocalFile(p string) ([]byte, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrSeedNotFound, "seed file does not exist", goerr.V(SeedPathKey, p))
		}
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(SeedPathKey, p))
	}
	return data, nil
}

// ParseGCSPath splits gs://bucket/object
func ParseGCSPath(p string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(p, gcsScheme)
	if !ok {
		return "", "", goerr.Wrap(ErrInvalidConfig, "not a gs:// path", goerr.V(SeedPathKey, p))
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.Wrap(ErrInvalidConfig, "gs:// path must name a bucket and an object", goerr.V(SeedPathKey, p))
	}
	return bucket, object, nil
}

func readGCSObject(ctx context.Context, p string) ([]byte, error) {
	bucket, object, err := ParseGCSPath(p)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cloud storage client")
	}
	defer safe.Close(ctx, client)

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrSeedNotFound, "seed object does not exist", goerr.V(SeedPathKey, p))
		}
		return nil, goerr.Wrap(err, "failed to open seed object", goerr.V(SeedPathKey, p))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed object", goerr.V(SeedPathKey, p))
	}
	return data, nil
}
