package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	blade "github.com/itsatony/go-blade"
)

// tokensConfig holds parsed tokens command configuration
type tokensConfig struct {
	template string
	format   string
}

// tokenOutput represents one token in JSON output
type tokenOutput struct {
	Kind   string `json:"kind"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

func (a *app) tokensCommand() *cobra.Command {
	cfg := &tokensConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameTokens + " [name]",
		Short: HelpTokensShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTokens(cmd.Context(), cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.template, FlagTemplate, FlagTemplateSh, "", HelpFlagTemplate)
	flags.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, HelpFlagFormat)
	return cmd
}

func (a *app) runTokens(ctx context.Context, cfg *tokensConfig, args []string) error {
	if err := checkFormat(cfg.format); err != nil {
		return err
	}

	var source string
	switch {
	case cfg.template != "" && len(args) > 0:
		return usageError(ErrMsgConflictingInput)
	case cfg.template != "":
		data, err := readInput(cfg.template, a.stdin)
		if err != nil {
			return newCLIError(ExitCodeInputError, ErrMsgReadInputFailed, err)
		}
		source = string(data)
	case len(args) == 1:
		s, err := a.readStored(ctx, args[0])
		if err != nil {
			return err
		}
		source = s
	default:
		return usageError(ErrMsgNoInput)
	}

	tokens := blade.Tokenize(source)
	if cfg.format == OutputFormatJSON {
		out := make([]tokenOutput, len(tokens))
		for i, t := range tokens {
			out[i] = tokenOutput{Kind: t.Kind.String(), Offset: t.Offset, Text: t.Text}
		}
		return a.printJSON(out)
	}
	for _, t := range tokens {
		fmt.Fprintf(a.stdout, FmtToken, t.Kind, t.Offset, t.Text)
	}
	return nil
}

// readStored reads the source of a named template from the configured storage
func (a *app) readStored(ctx context.Context, name string) (string, error) {
	compiler, cleanup, err := a.newCompiler()
	if err != nil {
		return "", err
	}
	defer cleanup()

	storage := compiler.Storage()
	path, err := storage.Resolve(ctx, name)
	if err != nil {
		return "", compileFailure(err)
	}
	src, err := storage.Read(ctx, path)
	if err != nil {
		return "", compileFailure(err)
	}
	return src.Source, nil
}
