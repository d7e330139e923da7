// Package transcript implements the built-in transcription tool: it applies
// the tool's glossary to raw transcripts and writes corrected text,
// replacement logs, markdown and subtitle files.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mintutil/mint/pkg/glossary"
	"github.com/mintutil/mint/pkg/tool"
)

// HandlerName is the builtin handler name tools reference in tool.hcl
const HandlerName = "transcription"

const (
	defaultGlossaryPath = "config/glossary.json"
	defaultInputDir     = "data/raw"
	defaultOutputDir    = "data/fixed"

	segmentsSuffix = ".segments.json"
)

// Recorder receives the number of glossary replacements per processed file
type Recorder interface {
	RecordReplacements(toolID string, count int)
}

// Option configures the transcription factory
type Option func(*factoryConfig)

type factoryConfig struct {
	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time
	defaults *glossary.Glossary
}

// WithLogger sets the logger used by created tools
func WithLogger(logger zerolog.Logger) Option {
	return func(c *factoryConfig) {
		c.logger = logger
	}
}

// WithRecorder reports replacement counts to r
func WithRecorder(r Recorder) Option {
	return func(c *factoryConfig) {
		c.recorder = r
	}
}

// WithClock overrides the time source used for markdown headers
func WithClock(now func() time.Time) Option {
	return func(c *factoryConfig) {
		c.now = now
	}
}

// WithDefaultGlossary sets the glossary used when a tool has none on disk
func WithDefaultGlossary(g *glossary.Glossary) Option {
	return func(c *factoryConfig) {
		c.defaults = g
	}
}

// Register adds the transcription handler to builtins
func Register(builtins *tool.BuiltinOpener, opts ...Option) error {
	return builtins.Register(HandlerName, NewFactory(opts...))
}

// NewFactory returns the tool.Factory for the transcription handler.
//
// Recognised settings, all relative to the tool directory:
//
//	glossary         glossary file (default config/glossary.json)
//	input            directory of raw *.txt and *.segments.json files (default data/raw)
//	output           directory for results (default data/fixed)
//	title            markdown title (default "Transcript")
//	paragraph_words  approximate words per markdown paragraph (default 100)
func NewFactory(opts ...Option) tool.Factory {
	cfg := factoryConfig{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}

	return func(ctx context.Context, entry *tool.Entry) (any, error) {
		p := &Processor{
			logger:         cfg.logger.With().Str("component", "transcription").Str("tool", entry.ID).Logger(),
			toolID:         entry.ID,
			inputDir:       resolve(entry.Dir, entry.SettingString("input", defaultInputDir)),
			outputDir:      resolve(entry.Dir, entry.SettingString("output", defaultOutputDir)),
			title:          entry.SettingString("title", ""),
			paragraphWords: DefaultParagraphWords,
			recorder:       cfg.recorder,
			now:            cfg.now,
		}

		if raw, ok := entry.Settings["paragraph_words"]; ok {
			n, ok := raw.(float64)
			if !ok || n < 1 {
				return nil, fmt.Errorf("paragraph_words must be a positive number")
			}
			p.paragraphWords = int(n)
		}

		var storeOpts []glossary.StoreOption
		if cfg.defaults != nil {
			storeOpts = append(storeOpts, glossary.WithDefaults(cfg.defaults))
		}
		p.store = glossary.NewStore(cfg.logger, GlossaryPath(entry), storeOpts...)

		return p, nil
	}
}

// GlossaryPath returns the glossary file a transcription tool reads
func GlossaryPath(entry *tool.Entry) string {
	return resolve(entry.Dir, entry.SettingString("glossary", defaultGlossaryPath))
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Processor corrects every transcript in its input directory
type Processor struct {
	logger         zerolog.Logger
	toolID         string
	store          *glossary.Store
	inputDir       string
	outputDir      string
	title          string
	paragraphWords int
	recorder       Recorder
	now            func() time.Time
}

// replacementLog is the JSON document written next to a corrected transcript
type replacementLog struct {
	Source       string                 `json:"source"`
	CreatedAt    time.Time              `json:"created_at"`
	Count        int                    `json:"count"`
	Replacements []glossary.Replacement `json:"replacements"`
}

// Render runs one correction pass. The glossary is read once at the start.
func (p *Processor) Render(ctx context.Context) error {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Info().Str("dir", p.inputDir).Msg("No input directory, nothing to process")
			return nil
		}
		return fmt.Errorf("failed to read input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.HasSuffix(e.Name(), ".txt") || strings.HasSuffix(e.Name(), segmentsSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		p.logger.Info().Str("dir", p.inputDir).Msg("No transcripts found")
		return nil
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	corrector := glossary.NewCorrector(p.store.Load())

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if strings.HasSuffix(name, segmentsSuffix) {
			err = p.processSegments(corrector, name)
		} else {
			err = p.processText(corrector, name)
		}
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", name, err)
		}
	}

	p.logger.Info().Int("files", len(names)).Msg("Transcripts processed")
	return nil
}

func (p *Processor) processText(corrector *glossary.Corrector, name string) error {
	data, err := os.ReadFile(filepath.Join(p.inputDir, name))
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	base := strings.TrimSuffix(name, ".txt")
	corrected, records := corrector.Correct(string(data))
	p.record(len(records))

	if err := p.write(base+".fixed.txt", []byte(corrected)); err != nil {
		return err
	}

	if len(records) > 0 {
		if err := p.writeJSON(base+".replacements.json", replacementLog{
			Source:       name,
			CreatedAt:    p.now(),
			Count:        len(records),
			Replacements: records,
		}); err != nil {
			return err
		}
	}

	markdown := RenderMarkdown(Document{
		Title:          p.title,
		Source:         name,
		Text:           CleanText(corrected),
		Replacements:   len(records),
		CreatedAt:      p.now(),
		ParagraphWords: p.paragraphWords,
	})
	if err := p.write(base+".md", []byte(markdown)); err != nil {
		return err
	}

	p.logger.Debug().
		Str("file", name).
		Int("replacements", len(records)).
		Msg("Transcript corrected")
	return nil
}

func (p *Processor) processSegments(corrector *glossary.Corrector, name string) error {
	data, err := os.ReadFile(filepath.Join(p.inputDir, name))
	if err != nil {
		return fmt.Errorf("failed to read segments: %w", err)
	}

	var doc struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse segments: %w", err)
	}
	if doc.Segments == nil {
		return fmt.Errorf("no segments found")
	}

	total := 0
	for i := range doc.Segments {
		corrected, records := corrector.Correct(doc.Segments[i].Text)
		doc.Segments[i].Text = corrected
		total += len(records)
	}
	p.record(total)

	base := strings.TrimSuffix(name, segmentsSuffix)
	return p.write(base+".srt", []byte(RenderSRT(doc.Segments)))
}

func (p *Processor) record(count int) {
	if p.recorder != nil {
		p.recorder.RecordReplacements(p.toolID, count)
	}
}

func (p *Processor) write(name string, data []byte) error {
	path := filepath.Join(p.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (p *Processor) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return p.write(name, append(data, '\n'))
}
