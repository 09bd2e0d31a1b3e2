package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/postalign/internal/codonalign"
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/fasta"
	"github.com/inodb/postalign/internal/minimap2"
	"github.com/inodb/postalign/internal/output"
	"github.com/inodb/postalign/internal/paf"
	"github.com/inodb/postalign/internal/pipeline"
	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
	"github.com/inodb/postalign/internal/store"
)

// Input formats accepted by process.
const (
	FormatMSA      = "msa"
	FormatPAF      = "paf"
	FormatMinimap2 = "minimap2"
)

// processConfig is the resolved configuration of one process run.
type processConfig struct {
	Input     string
	Format    string
	Reference string
	RefHeader string
	PAF       string
	Output    string
	Strict    bool

	Frameshifts       string
	TrimByRef         bool
	CodonAlignment    bool
	RefStart          int
	RefEnd            int
	MinGapDistance    int
	GapPlacementScore string
	CheckBoundary     bool

	Pairwise      bool
	PreserveOrder bool
	Modifiers     bool

	Workers         int
	Minimap2Path    string
	Minimap2Opts    string
	Minimap2Timeout time.Duration

	DBPath       string
	MessagesPath string
}

// processSummary reports what a run produced.
type processSummary struct {
	Pairs    int
	States   map[paf.State]int
	Messages []diag.Message
	RunID    int64
}

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Assemble and refine alignments",
		Long: `Read an MSA, a PAF file or run minimap2, assemble each query against the
reference and apply the selected processors in a fixed order:
apply-frameshift, trim-by-ref, codon-alignment.`,
		Example: `  postalign process -f msa -i aligned.fas -o out.fas --codon-alignment
  postalign process -f paf -i queries.fas -r ref.fas --paf aln.paf --trim-by-ref
  postalign process -f minimap2 -i queries.fas -r ref.fas --codon-alignment --ref-start 2253 --ref-end 2549
  postalign process -f minimap2 -i queries.fas -r ref.fas --db results.duckdb --messages messages.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := processConfigFromViper()
			if err := cfg.validate(); err != nil {
				return err
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			out := cmd.OutOrStdout()
			if cfg.Output != "" && cfg.Output != "-" {
				f, err := os.Create(cfg.Output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			start := time.Now()
			summary, err := runProcess(cmd.Context(), cfg, out, logger)
			if err != nil {
				return err
			}
			logSummary(logger, summary, time.Since(start))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", "", "Input FASTA (queries) or MSA file, '-' for stdin")
	f.StringP("format", "f", FormatMinimap2, "Input format: msa, paf, minimap2")
	f.StringP("reference", "r", "", "Reference FASTA (paf and minimap2 formats)")
	f.String("ref-header", "", "Reference header (default: first record)")
	f.String("paf", "", "PAF file with cg:Z: CIGAR tags (paf format)")
	f.StringP("output", "o", "", "Output FASTA file (default: stdout)")
	f.Bool("strict", false, "Reject sequences with invalid notations instead of dropping them")

	f.String("apply-frameshift", "", "Frameshifts to apply, e.g. 100-1,250+2")
	f.Bool("trim-by-ref", false, "Trim columns outside the reference")
	f.Bool("codon-alignment", false, "Move indels onto codon boundaries")
	f.Int("ref-start", 1, "First reference position of the codon alignment window")
	f.Int("ref-end", -1, "Last reference position of the codon alignment window (<=0: end of reference)")
	f.Int("min-gap-distance", codonalign.DefaultMinGapDistance, "Merge gap runs closer than this many columns")
	f.String("gap-placement-score", "", "Extra placement scores, e.g. 210ins:-3,330/6del:5")
	f.Bool("check-boundary", true, "Fail when the codon window boundary lands on a reference gap")

	f.Bool("pairwise", false, "Write the reference before every query")
	f.Bool("preserve-order", false, "Write the reference where it appeared in the input")
	f.Bool("modifiers", true, "Append provenance (MOD::) to output headers")
	f.Bool("no-modifiers", false, "Do not append provenance to output headers")

	f.Int("workers", 0, "Number of worker goroutines (0: number of CPUs)")
	f.String("minimap2-path", "minimap2", "minimap2 executable")
	f.String("minimap2-opts", "", "Extra minimap2 arguments")
	f.Duration("minimap2-timeout", minimap2.DefaultTimeout, "Timeout of one minimap2 invocation")

	f.String("db", "", "DuckDB file to store alignments and messages")
	f.String("messages", "", "Write diagnostic messages as TSV to this file")

	for key, flag := range map[string]string{
		"input":                     "input",
		"format":                    "format",
		"reference":                 "reference",
		"ref-header":                "ref-header",
		"paf":                       "paf",
		"output":                    "output",
		"strict":                    "strict",
		"processors.frameshift":     "apply-frameshift",
		"processors.trim-by-ref":    "trim-by-ref",
		"processors.codon":          "codon-alignment",
		"codon.ref-start":           "ref-start",
		"codon.ref-end":             "ref-end",
		"codon.min-gap-distance":    "min-gap-distance",
		"codon.gap-placement-score": "gap-placement-score",
		"codon.check-boundary":      "check-boundary",
		"fasta.pairwise":            "pairwise",
		"fasta.preserve-order":      "preserve-order",
		"fasta.modifiers":           "modifiers",
		"fasta.no-modifiers":        "no-modifiers",
		"workers":                   "workers",
		"minimap2.path":             "minimap2-path",
		"minimap2.opts":             "minimap2-opts",
		"minimap2.timeout":          "minimap2-timeout",
		"db":                        "db",
		"messages":                  "messages",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	return cmd
}

func processConfigFromViper() processConfig {
	return processConfig{
		Input:             viper.GetString("input"),
		Format:            strings.ToLower(viper.GetString("format")),
		Reference:         viper.GetString("reference"),
		RefHeader:         viper.GetString("ref-header"),
		PAF:               viper.GetString("paf"),
		Output:            viper.GetString("output"),
		Strict:            viper.GetBool("strict"),
		Frameshifts:       viper.GetString("processors.frameshift"),
		TrimByRef:         viper.GetBool("processors.trim-by-ref"),
		CodonAlignment:    viper.GetBool("processors.codon"),
		RefStart:          viper.GetInt("codon.ref-start"),
		RefEnd:            viper.GetInt("codon.ref-end"),
		MinGapDistance:    viper.GetInt("codon.min-gap-distance"),
		GapPlacementScore: viper.GetString("codon.gap-placement-score"),
		CheckBoundary:     viper.GetBool("codon.check-boundary"),
		Pairwise:          viper.GetBool("fasta.pairwise"),
		PreserveOrder:     viper.GetBool("fasta.preserve-order"),
		Modifiers:         viper.GetBool("fasta.modifiers") && !viper.GetBool("fasta.no-modifiers"),
		Workers:           viper.GetInt("workers"),
		Minimap2Path:      viper.GetString("minimap2.path"),
		Minimap2Opts:      viper.GetString("minimap2.opts"),
		Minimap2Timeout:   viper.GetDuration("minimap2.timeout"),
		DBPath:            viper.GetString("db"),
		MessagesPath:      viper.GetString("messages"),
	}
}

func (c processConfig) validate() error {
	if c.Input == "" {
		return fmt.Errorf("--input is required")
	}
	switch c.Format {
	case FormatMSA:
	case FormatPAF:
		if c.PAF == "" {
			return fmt.Errorf("--paf is required for the %s format", FormatPAF)
		}
		fallthrough
	case FormatMinimap2:
		if c.Reference == "" {
			return fmt.Errorf("--reference is required for the %s format", c.Format)
		}
	default:
		return fmt.Errorf("unknown input format %q (want msa, paf or minimap2)", c.Format)
	}
	return nil
}

// buildProcessors turns the configuration into pipeline steps.
func buildProcessors(c processConfig, logger *zap.Logger) ([]pipeline.Processor, error) {
	var procs []pipeline.Processor
	if c.Frameshifts != "" {
		shifts, err := pipeline.ParseFrameshifts(c.Frameshifts)
		if err != nil {
			return nil, err
		}
		procs = append(procs, pipeline.ApplyFrameshift{Shifts: shifts})
	}
	if c.TrimByRef {
		procs = append(procs, pipeline.TrimByRef{})
	}
	if c.CodonAlignment {
		scores, err := codonalign.ParseGapPlacementScore(c.GapPlacementScore)
		if err != nil {
			return nil, err
		}
		step, err := pipeline.NewCodonAlignment(codonalign.Options{
			RefStart:       c.RefStart,
			RefEnd:         c.RefEnd,
			MinGapDistance: c.MinGapDistance,
			Scores:         scores,
			CheckBoundary:  c.CheckBoundary,
		})
		if err != nil {
			return nil, err
		}
		step.Aligner.SetLogger(logger)
		procs = append(procs, step)
	}
	return procs, nil
}

// loadItems reads the inputs and returns the work items in output order.
func loadItems(ctx context.Context, c processConfig, logger *zap.Logger) ([]pipeline.WorkItem, error) {
	opts := fasta.Options{Type: position.NA, Strict: c.Strict}

	if c.Format == FormatMSA {
		pairs, err := fasta.LoadMSA(c.Input, c.RefHeader, opts)
		if err != nil {
			return nil, fmt.Errorf("load MSA: %w", err)
		}
		items := make([]pipeline.WorkItem, len(pairs))
		for i, p := range pairs {
			items[i] = pipeline.WorkItem{Seq: i, Pair: p}
		}
		return items, nil
	}

	opts.RemoveGaps = true
	ref, err := loadReference(c.Reference, c.RefHeader, opts)
	if err != nil {
		return nil, err
	}
	queries, err := fasta.Load(c.Input, opts)
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}

	var idx paf.Index
	switch c.Format {
	case FormatPAF:
		p, err := paf.NewParser(c.PAF)
		if err != nil {
			return nil, err
		}
		defer p.Close()
		if idx, err = paf.ReadIndex(p); err != nil {
			return nil, fmt.Errorf("read PAF: %w", err)
		}
	case FormatMinimap2:
		runner := minimap2.NewRunner(c.Minimap2Path, c.Minimap2Opts)
		runner.Timeout = c.Minimap2Timeout
		runner.SetLogger(logger)
		if idx, err = runner.Align(ctx, ref, queries); err != nil {
			return nil, err
		}
	}

	items := make([]pipeline.WorkItem, len(queries))
	for i, q := range queries {
		items[i] = pipeline.WorkItem{
			Seq:      i,
			Pair:     sequence.Pair{Ref: ref, Query: q},
			Records:  idx.For(q),
			Assemble: true,
		}
	}
	return items, nil
}

// loadReference returns the reference record with id 0 so it sorts before
// every query.
func loadReference(path, header string, opts fasta.Options) (*sequence.Sequence, error) {
	seqs, err := fasta.Load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("reference %s has no sequence", path)
	}
	ref := seqs[0]
	if header != "" {
		i := slices.IndexFunc(seqs, func(s *sequence.Sequence) bool { return s.Header == header })
		if i < 0 {
			return nil, fmt.Errorf("unable to locate reference %q", header)
		}
		ref = seqs[i]
	}
	ref.ID = 0
	return ref, nil
}

// runProcess runs the pipeline and writes FASTA to out.
func runProcess(ctx context.Context, c processConfig, out io.Writer, logger *zap.Logger) (processSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	summary := processSummary{States: make(map[paf.State]int)}

	procs, err := buildProcessors(c, logger)
	if err != nil {
		return summary, err
	}

	items, err := loadItems(ctx, c, logger)
	if err != nil {
		return summary, err
	}
	logger.Info("loaded inputs",
		zap.String("format", c.Format),
		zap.String("pairs", humanize.Comma(int64(len(items)))))

	msgs := &diag.List{}
	p := pipeline.New(msgs, procs...)
	p.SetLogger(logger)

	itemCh := make(chan pipeline.WorkItem, 2*max(c.Workers, 1))
	go func() {
		defer close(itemCh)
		for _, it := range items {
			itemCh <- it
		}
	}()

	fw := output.NewFastaWriter(out, output.FastaOptions{
		Pairwise:      c.Pairwise,
		PreserveOrder: c.PreserveOrder,
		Modifiers:     c.Modifiers,
	})
	headers := make(map[int]string, len(items))
	var rows []store.AlignmentRow

	err = pipeline.OrderedCollect(p.Run(itemCh, c.Workers), func(r pipeline.WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("sequence %d: %w", items[r.Seq].Pair.Query.ID, r.Err)
		}
		summary.States[r.State]++
		headers[r.Pair.Query.ID] = r.Pair.Query.Header
		if c.DBPath != "" {
			rows = append(rows, store.RowFromPair(r.Pair, r.State.String()))
		}
		return fw.Write(r.Pair)
	})
	if err != nil {
		return summary, err
	}
	if err := fw.Flush(); err != nil {
		return summary, fmt.Errorf("flush output: %w", err)
	}
	summary.Pairs = fw.Count()

	summary.Messages = msgs.All()
	slices.SortStableFunc(summary.Messages, func(a, b diag.Message) int { return a.SeqID - b.SeqID })

	if c.MessagesPath != "" {
		if err := writeMessages(c.MessagesPath, headers, summary.Messages); err != nil {
			return summary, err
		}
	}
	if c.DBPath != "" {
		if summary.RunID, err = saveRun(c, rows, summary.Messages); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func writeMessages(path string, headers map[int]string, msgs []diag.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create messages file: %w", err)
	}
	defer f.Close()

	tw := output.NewTabWriter(f, headers)
	if err := tw.WriteAll(msgs); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	return tw.Flush()
}

// saveRun stores the results of the run in DuckDB.
func saveRun(c processConfig, rows []store.AlignmentRow, msgs []diag.Message) (int64, error) {
	s, err := store.Open(c.DBPath)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	var inputs []store.FileFingerprint
	for _, in := range []struct{ role, path string }{
		{"input", c.Input},
		{"reference", c.Reference},
		{"paf", c.PAF},
	} {
		if in.path == "" || in.path == "-" {
			continue
		}
		fp, err := store.StatFile(in.role, in.path)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", in.role, err)
		}
		inputs = append(inputs, fp)
	}

	runID, err := s.BeginRun("process --format "+c.Format, inputs)
	if err != nil {
		return 0, err
	}
	if err := s.WriteAlignments(runID, rows); err != nil {
		return 0, fmt.Errorf("store alignments: %w", err)
	}
	if err := s.WriteMessages(runID, msgs); err != nil {
		return 0, fmt.Errorf("store messages: %w", err)
	}
	if err := s.FinishRun(runID, int64(len(rows))); err != nil {
		return 0, fmt.Errorf("finish run: %w", err)
	}
	return runID, nil
}

// logSummary logs every diagnostic message at its level and a run summary.
func logSummary(logger *zap.Logger, s processSummary, elapsed time.Duration) {
	for _, m := range s.Messages {
		fields := []zap.Field{zap.Int("seqid", m.SeqID)}
		switch m.Level {
		case diag.Error:
			logger.Error(m.Text, fields...)
		case diag.Warning:
			logger.Warn(m.Text, fields...)
		default:
			logger.Debug(m.Text, fields...)
		}
	}

	fields := []zap.Field{
		zap.String("pairs", humanize.Comma(int64(s.Pairs))),
		zap.Duration("elapsed", elapsed.Round(time.Millisecond)),
	}
	for state, n := range s.States {
		if state != paf.Done {
			fields = append(fields, zap.Int(state.String(), n))
		}
	}
	if s.RunID > 0 {
		fields = append(fields, zap.Int64("run", s.RunID))
	}
	logger.Info("processing complete", fields...)
}
