package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/SscSPs/stack_budget/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// withApp builds the app for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, logLevel string, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), logLevel)
	if err != nil {
		return err
	}
	defer a.Close()
	cmd.SetContext(middleware.WithLogger(cmd.Context(), a.logger))
	return fn(a)
}

func syncCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store",
	}

	var createNew bool
	push := &cobra.Command{
		Use:   "push",
		Short: "Push the local document to the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				err := a.services.Sync.Save(cmd.Context(), dto.SaveOptions{CreateNew: createNew})
				return printStatus(cmd.OutOrStdout(), a.services.Sync.Status(cmd.Context()), err)
			})
		},
	}
	push.Flags().BoolVar(&createNew, "create-new", false, "Create a new remote document instead of replacing the cached one")

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local document with the remote one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				err := a.services.Sync.Load(cmd.Context(), dto.LoadOptions{})
				return printStatus(cmd.OutOrStdout(), a.services.Sync.Status(cmd.Context()), err)
			})
		},
	}

	var creds dto.Credentials
	login := &cobra.Command{
		Use:   "credentials",
		Short: "Cache the remote document id and access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				if err := a.services.Sync.SetCredentials(cmd.Context(), creds); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Credentials saved")
				return nil
			})
		},
	}
	login.Flags().StringVar(&creds.DocumentID, "id", "", "Remote document id")
	login.Flags().StringVar(&creds.Token, "token", "", "Access token")

	var format string
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the cached sync configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				st := a.services.Sync.Status(cmd.Context())
				if format == formatText {
					return printStatus(cmd.OutOrStdout(), st, nil)
				}
				return render(cmd.OutOrStdout(), format, st)
			})
		},
	}
	status.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")

	cmd.AddCommand(push, pull, login, status)
	return cmd
}

func exportCmd(logLevel *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the document to a dated backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				res, err := a.services.Backup.Export(cmd.Context())
				if err != nil {
					return err
				}
				if output == "-" {
					_, err = cmd.OutOrStdout().Write(res.Content)
					return err
				}
				path := output
				if path == "" {
					path = res.Filename
				} else if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, res.Filename)
				}
				if err := os.WriteFile(path, res.Content, 0o600); err != nil {
					return fmt.Errorf("failed to write backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory; - for stdout")
	return cmd
}

func importCmd(logLevel *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a backup file into the document",
		Long: `Import replaces every top-level key present in the file and keeps the
rest of the document. It needs --yes because it overwrites data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			return withApp(cmd, *logLevel, func(a *app) error {
				if err := a.services.Backup.Import(cmd.Context(), data, yes); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Imported")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm overwriting the keys present in the file")
	return cmd
}

func totalsCmd(logLevel *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Print the section totals and the available funds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *logLevel, func(a *app) error {
				totals := a.services.Budget.Totals(cmd.Context())
				if format == formatText {
					return printTotals(cmd.OutOrStdout(), totals)
				}
				return render(cmd.OutOrStdout(), format, totals)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the local API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.APISecret == "" {
				return errors.New("API_SECRET is not set; the API runs without authentication")
			}
			token, err := utils.GenerateJWT(device, cfg.APISecret, cfg.APITokenExpiryDuration, utils.TokenIssuer)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "default", "Device name written into the token subject")
	return cmd
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printTotals(w io.Writer, t derivation.Totals) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Accounts", utils.FormatDollars(t.Accounts)},
		{"Budget", utils.FormatDollars(t.Budget)},
		{"Bills", utils.FormatDollars(t.Bills)},
		{"Goals", utils.FormatDollars(t.Goals)},
		{"Available", utils.FormatDollars(t.Available)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value)
	}
	return tw.Flush()
}

// printStatus prints the status line and passes err through.
func printStatus(w io.Writer, st dto.SyncStatus, err error) error {
	if st.Message != "" {
		fmt.Fprintln(w, st.Message)
	}
	if st.DocumentID != "" {
		fmt.Fprintf(w, "Document: %s\n", st.DocumentID)
	}
	if !st.HasToken {
		fmt.Fprintln(w, "No access token cached")
	}
	return err
}
