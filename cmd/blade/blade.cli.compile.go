package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	blade "github.com/itsatony/go-blade"
)

// compileConfig holds parsed compile command configuration
type compileConfig struct {
	template string
	name     string
	output   string
	outDir   string
	all      bool
	watch    bool
}

func (a *app) compileCommand() *cobra.Command {
	cfg := &compileConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameCompile + " [name...]",
		Short: HelpCompileShort,
		Long:  HelpCompileLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompile(cmd.Context(), cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.template, FlagTemplate, FlagTemplateSh, "", HelpFlagTemplate)
	flags.StringVar(&cfg.name, FlagName, "", HelpFlagName)
	flags.StringVarP(&cfg.output, FlagOutput, FlagOutputShort, FlagDefaultOutput, HelpFlagOutput)
	flags.StringVar(&cfg.outDir, FlagOutDir, "", HelpFlagOutDir)
	flags.BoolVar(&cfg.all, FlagAll, false, HelpFlagAll)
	flags.BoolVar(&cfg.watch, FlagWatch, false, HelpFlagWatch)
	return cmd
}

func (cfg *compileConfig) check(names []string) error {
	switch {
	case cfg.template != "" && (len(names) > 0 || cfg.all):
		return usageError(ErrMsgConflictingInput)
	case cfg.template == "" && len(names) == 0 && !cfg.all:
		return usageError(ErrMsgNoInput)
	case cfg.watch && cfg.outDir == "":
		return usageError(ErrMsgWatchNeedsOutDir)
	case (cfg.all || len(names) > 1) && cfg.outDir == "":
		return usageError(ErrMsgMultipleNeedOutDir)
	}
	return nil
}

func (a *app) runCompile(ctx context.Context, cfg *compileConfig, names []string) error {
	if err := cfg.check(names); err != nil {
		return err
	}
	if cfg.all {
		names = nil
	}

	var extra []blade.Option
	if cfg.watch && a.settings().Cache == nil {
		extra = append(extra, blade.WithCache(blade.DefaultCacheConfig()))
	}
	compiler, cleanup, err := a.newCompiler(extra...)
	if err != nil {
		return err
	}
	defer cleanup()

	switch {
	case cfg.template != "":
		source, err := readInput(cfg.template, a.stdin)
		if err != nil {
			return newCLIError(ExitCodeInputError, ErrMsgReadInputFailed, err)
		}
		out, err := compiler.CompileString(ctx, string(source), displayNameFor(cfg.template, cfg.name))
		if err != nil {
			return compileFailure(err)
		}
		return a.write(cfg.output, out)

	case cfg.outDir == "":
		out, err := compiler.CompileTemplate(ctx, names[0])
		if err != nil {
			return compileFailure(err)
		}
		return a.write(cfg.output, out)
	}

	if err := a.compileInto(ctx, compiler, names, cfg.outDir); err != nil {
		return err
	}
	if cfg.watch {
		return a.watch(ctx, compiler, names, cfg.outDir)
	}
	return nil
}

// compileInto compiles names, or every template when names is empty, into dir
func (a *app) compileInto(ctx context.Context, compiler *blade.Compiler, names []string, dir string) error {
	results, err := compiler.CompileAll(ctx, names...)
	if err != nil {
		return compileFailure(err)
	}

	for _, name := range slices.Sorted(maps.Keys(results)) {
		path, err := outputPath(dir, name)
		if err != nil {
			return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
		if err := os.WriteFile(path, []byte(results[name]), FilePermissions); err != nil {
			return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
		fmt.Fprintf(a.stdout, FmtWrote, path)
	}
	return nil
}

// watch recompiles into dir on every template change until ctx is done
func (a *app) watch(ctx context.Context, compiler *blade.Compiler, names []string, dir string) error {
	w, err := blade.WatchStorage(compiler.Storage(), blade.WatcherConfig{Logger: a.logger})
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgWatchFailed, err)
	}
	defer w.Close()

	w.OnChange(func(_ []blade.ChangeEvent) error {
		if err := a.compileInto(ctx, compiler, names, dir); err != nil {
			fmt.Fprintln(a.stderr, err)
		}
		return nil
	})
	if err := w.Start(ctx); err != nil {
		return newCLIError(ExitCodeError, ErrMsgWatchFailed, err)
	}

	<-ctx.Done()
	return nil
}

func (a *app) write(path, out string) error {
	if err := writeOutput(path, []byte(out), a.stdout); err != nil {
		return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}

// compileFailure maps a compile error to its exit code
func compileFailure(err error) *cliError {
	if blade.IsTemplateNotFound(err) {
		return newCLIError(ExitCodeInputError, ErrMsgCompileFailed, err)
	}
	return newCLIError(ExitCodeError, ErrMsgCompileFailed, err)
}
