package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/paf"
	"github.com/inodb/postalign/internal/sequence"
)

// WorkItem holds one reference/query pair ready for processing.
type WorkItem struct {
	Seq  int
	Pair sequence.Pair
	// Records, when Assemble is set, are the PAF records of the query; the
	// pair is assembled from them before the processors run.
	Records  []*paf.Record
	Assemble bool
}

// WorkResult holds the processed pair of a single item.
type WorkResult struct {
	Seq   int
	Pair  sequence.Pair
	State paf.State
	Err   error
}

// Pipeline applies processors to pairs.
type Pipeline struct {
	processors []Processor
	assembler  *paf.Assembler
	messages   *diag.List
	logger     *zap.Logger
}

// New creates a pipeline reporting to messages. Processors are run in
// the fixed Order.
func New(messages *diag.List, processors ...Processor) *Pipeline {
	if messages == nil {
		messages = &diag.List{}
	}
	return &Pipeline{
		processors: Sort(processors),
		assembler:  paf.NewAssembler(messages),
		messages:   messages,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for the pipeline and its assembler.
func (p *Pipeline) SetLogger(logger *zap.Logger) {
	p.logger = logger
	p.assembler.SetLogger(logger)
}

// Messages returns the diagnostic list the pipeline reports to.
func (p *Pipeline) Messages() *diag.List {
	return p.messages
}

// Processors returns the processors in run order.
func (p *Pipeline) Processors() []Processor {
	return p.processors
}

// Process runs one item through assembly and every processor.
func (p *Pipeline) Process(item WorkItem) WorkResult {
	res := WorkResult{Seq: item.Seq, State: paf.Done}
	pair := sequence.Pair{Ref: item.Pair.Ref.Fork(), Query: item.Pair.Query.Fork()}

	if item.Assemble {
		assembled, err := p.assembler.Assemble(pair.Ref, pair.Query, item.Records)
		if err != nil {
			res.Err = fmt.Errorf("assemble %s: %w", pair.Query.Header, err)
			return res
		}
		pair, res.State = assembled.Pair, assembled.State
	}

	for _, proc := range p.processors {
		next, err := proc.Process(pair, p.messages)
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", proc.Name(), err)
			res.Pair = pair
			return res
		}
		pair = next
	}
	res.Pair = pair
	p.logger.Debug("processed pair",
		zap.Int("seq", item.Seq),
		zap.Int("seqid", pair.Query.ID),
		zap.Int("columns", pair.Query.Len()))
	return res
}

// Run processes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (p *Pipeline) Run(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- p.Process(item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// Collect calls fn for each result as it arrives.
func Collect(results <-chan WorkResult, fn func(WorkResult) error) error {
	for r := range results {
		if err := fn(r); err != nil {
			for range results {
			}
			return err
		}
	}
	return nil
}
