package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	blade "github.com/itsatony/go-blade"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	template string
	name     string
	format   string
}

// validationResult is the outcome for one template
type validationResult struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Kind   string   `json:"kind,omitempty"`
	Error  string   `json:"error,omitempty"`
	Line   int      `json:"line,omitempty"`
	Column int      `json:"column,omitempty"`
	Chain  []string `json:"chain,omitempty"`
}

func (a *app) validateCommand() *cobra.Command {
	cfg := &validateConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameValidate + " [name...]",
		Short: HelpValidateShort,
		Long:  HelpValidateLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.template, FlagTemplate, FlagTemplateSh, "", HelpFlagTemplate)
	flags.StringVar(&cfg.name, FlagName, "", HelpFlagName)
	flags.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, HelpFlagFormat)
	return cmd
}

func (a *app) runValidate(ctx context.Context, cfg *validateConfig, names []string) error {
	if err := checkFormat(cfg.format); err != nil {
		return err
	}
	if cfg.template != "" && len(names) > 0 {
		return usageError(ErrMsgConflictingInput)
	}

	compiler, cleanup, err := a.newCompiler()
	if err != nil {
		return err
	}
	defer cleanup()

	var results []validationResult
	if cfg.template != "" {
		source, err := readInput(cfg.template, a.stdin)
		if err != nil {
			return newCLIError(ExitCodeInputError, ErrMsgReadInputFailed, err)
		}
		display := displayNameFor(cfg.template, cfg.name)
		_, err = compiler.CompileString(ctx, string(source), display)
		results = append(results, newValidationResult(display, err))
	} else {
		if len(names) == 0 {
			names, err = compiler.Storage().List(ctx)
			if err != nil {
				return newCLIError(ExitCodeError, ErrMsgValidationFailed, err)
			}
		}
		for _, name := range names {
			_, err := compiler.CompileTemplate(ctx, name)
			results = append(results, newValidationResult(name, err))
		}
	}

	if err := a.printValidation(cfg.format, results); err != nil {
		return err
	}
	for _, r := range results {
		if r.Status != ValidationStatusOK {
			return &cliError{code: ExitCodeValidationError, msg: ErrMsgValidationFailed, reported: true}
		}
	}
	return nil
}

func newValidationResult(name string, err error) validationResult {
	if err == nil {
		return validationResult{Name: name, Status: ValidationStatusOK}
	}
	r := validationResult{
		Name:   name,
		Status: ValidationStatusFail,
		Error:  err.Error(),
		Chain:  blade.ErrorChain(err),
	}
	if kind, ok := blade.ErrorKindOf(err); ok {
		r.Kind = string(kind)
	}
	if pos, ok := blade.ErrorPosition(err); ok {
		r.Line, r.Column = pos.Line, pos.Column
	}
	return r
}

func (a *app) printValidation(format string, results []validationResult) error {
	if format == OutputFormatJSON {
		return a.printJSON(results)
	}
	for _, r := range results {
		if r.Status == ValidationStatusOK {
			fmt.Fprintf(a.stdout, FmtValidationOK, r.Name)
			continue
		}
		fmt.Fprintf(a.stdout, FmtValidationError, r.Name, r.Error)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", JSONIndent)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgEncodeFailed, err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

func checkFormat(format string) error {
	if format != OutputFormatText && format != OutputFormatJSON {
		return usageError(ErrMsgInvalidFormat)
	}
	return nil
}
