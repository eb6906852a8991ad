package sanitize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vdomkit/bridge"
	"vdomkit/state"
	"vdomkit/vdom"
)

func prepare(ctx context.Context, cmd *cli.Command, name string) (*state.LocalEnv, *bridge.Block, *zap.Logger, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	env := state.EnvFromContext(ctx)
	if env.Sanitizer == nil {
		env.PrepareSanitizer()
	}
	log := env.Log.Named(name)
	block := bridge.NewBlock(namespace(cmd, log), env.Sanitizer, env.Log)
	return env, block, log, nil
}

func elapsed(log *zap.Logger, start time.Time) {
	log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
}

// RunCSS sanitizes block stylesheet.
func RunCSS(ctx context.Context, cmd *cli.Command) error {
	env, block, log, err := prepare(ctx, cmd, "css")
	if err != nil {
		return err
	}
	defer elapsed(log, time.Now())

	data, err := readSource(cmd, env.Rpt, log)
	if err != nil {
		return err
	}

	class := cmd.String("class")
	if len(class) == 0 {
		class = block.ScopeClass()
	}
	log.Info("Sanitizing stylesheet", zap.String("block", block.ID()), zap.String("class", class))

	out, err := env.Sanitizer.SanitizeStylesheet(block.ID(), string(data), class)
	if err != nil {
		return fmt.Errorf("stylesheet cannot be used, block must be rendered unstyled: %w", err)
	}
	return writeDestination(cmd, "sanitized.css", []byte(out+"\n"), env.Rpt, log)
}

// RunStyle sanitizes inline style map given as JSON object. Values which
// could not be processed are kept and reported, command fails only when
// nothing could be processed.
func RunStyle(ctx context.Context, cmd *cli.Command) error {
	env, block, log, err := prepare(ctx, cmd, "style")
	if err != nil {
		return err
	}
	defer elapsed(log, time.Now())

	data, err := readSource(cmd, env.Rpt, log)
	if err != nil {
		return err
	}

	var style map[string]any
	if err := sonic.ConfigStd.Unmarshal(data, &style); err != nil {
		return fmt.Errorf("unable to decode style map: %w", err)
	}
	if style == nil {
		return errors.New("style map is empty")
	}

	out, err := env.Sanitizer.SanitizeStyleMap(block.ID(), style)
	for _, e := range multierr.Errors(err) {
		log.Warn("Style value kept as is", zap.Error(e))
	}

	res, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode style map: %w", err)
	}
	return writeDestination(cmd, "style.json", append(res, '\n'), env.Rpt, log)
}

// RunTree rebuilds element trees from flat snapshot, sanitizes inline styles
// and outputs either tree dump or nested JSON.
func RunTree(ctx context.Context, cmd *cli.Command) error {
	env, block, log, err := prepare(ctx, cmd, "tree")
	if err != nil {
		return err
	}
	defer elapsed(log, time.Now())

	data, err := readSource(cmd, env.Rpt, log)
	if err != nil {
		return err
	}

	roots, err := block.Snapshot(data)
	if err != nil {
		return err
	}
	log.Info("Snapshot reconstructed", zap.String("block", block.ID()), zap.Int("roots", len(roots)))

	dump := vdom.Dump(roots)
	if !cmd.Bool("json") {
		return writeDestination(cmd, "tree.txt", []byte(dump), env.Rpt, log)
	}

	// dump is easier to read in debug report
	env.Rpt.StoreData("output/tree.txt", []byte(dump))
	res, err := sonic.ConfigStd.MarshalIndent(roots, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode element trees: %w", err)
	}
	return writeDestination(cmd, "tree.json", append(res, '\n'), env.Rpt, log)
}
