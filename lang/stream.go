package lang

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/klauspost/readahead"
)

// Results executes the blocks of document in order and yields each block
// with its result. Stopping the iteration skips the remaining blocks.
func (in *Interpreter) Results(ctx context.Context, document string) iter.Seq2[Block, string] {
	return func(yield func(Block, string) bool) {
		for _, b := range Extract(document, in.opts.label) {
			if ctx.Err() != nil {
				yield(b, FormatError(context.Cause(ctx)))

				return
			}

			in.logger.DebugContext(ctx, "block",
				slog.Int("index", b.Index),
				slog.Int("line", b.Line),
				slog.String("lang", b.Lang),
			)

			if !yield(b, in.ExecuteBlock(ctx, b.Code)) {
				return
			}
		}
	}
}

// ExecuteReader reads a whole document from r and executes it.
func (in *Interpreter) ExecuteReader(ctx context.Context, r io.Reader) string {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		in.logger.WarnContext(ctx, "read document", slog.Any("error", err))

		return FormatError(ErrReadInput.Wrap(err))
	}

	in.logger.TraceContext(ctx, "read document", slog.Int("bytes", len(data)))

	return in.Execute(ctx, string(data))
}
