package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/brizzai/discord-verify/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// errNotAuthorized is returned by records get for an unknown user
var errNotAuthorized = errors.New("not authorized yet")

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect the stored authorization records",
	}

	var listOutput, getOutput string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print every stored record, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, _ *config.Config, st store.Store) error {
				records, err := st.List(ctx)
				if err != nil {
					return err
				}
				return renderRecords(cmd.OutOrStdout(), records, listOutput)
			})
		},
	}
	list.Flags().StringVarP(&listOutput, "output", "o", outputTable, "Output format (table|json|yaml)")

	get := &cobra.Command{
		Use:   "get <user-id>",
		Short: "Print the record of one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, _ *config.Config, st store.Store) error {
				rec, err := st.Get(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%s: %w", args[0], errNotAuthorized)
				}
				if err != nil {
					return err
				}
				return renderRecords(cmd.OutOrStdout(), []models.AuthorizationRecord{rec}, getOutput)
			})
		},
	}
	get.Flags().StringVarP(&getOutput, "output", "o", outputYAML, "Output format (table|json|yaml)")

	browse := &cobra.Command{
		Use:   "browse",
		Short: "Browse the stored records in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, cfg *config.Config, st store.Store) error {
				records, err := st.List(ctx)
				if err != nil {
					return err
				}

				source := cfg.Store.Path
				if cfg.Store.Driver == config.StoreDriverRedis {
					source = cfg.Store.RedisPrefix
				}

				p := tea.NewProgram(tui.NewAppModel(records, source, cfg.Discord.CDNBaseURL), tea.WithAltScreen())
				m, err := p.Run()
				if err != nil {
					return fmt.Errorf("error running program: %w", err)
				}
				if n := m.(tui.AppModel).Exported(); n > 0 {
					pterm.Info.Printfln("Exported %s of %s records.",
						pterm.LightGreen(n),
						pterm.White(len(records)))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, get, browse)
	return cmd
}

// withStore loads the store settings, opens the backend and closes it after fn
func withStore(cmd *cobra.Command, fn func(context.Context, *config.Config, store.Store) error) error {
	cfg, err := config.LoadStore(cmd.Flags())
	if err != nil {
		return err
	}
	// keep stdout clean for json and yaml output
	cfg.Logging.Level = "warn"
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	return fn(ctx, cfg, st)
}

// recordOutput is the serialized form of a record, with the user id inlined
type recordOutput struct {
	UserID string `json:"user_id"`
	models.AuthorizationRecord
}

func renderRecords(w io.Writer, records []models.AuthorizationRecord, format string) error {
	switch format {
	case outputTable:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No user has authorized yet.")
			return err
		}
		data := pterm.TableData{{"User ID", "Username", "Email", "Guilds", "Authorized At"}}
		for _, rec := range records {
			data = append(data, []string{
				rec.UserID,
				rec.Profile.Username,
				rec.Profile.Email,
				strconv.Itoa(len(rec.Guilds)),
				rec.AuthorizedAt.UTC().Format(time.RFC3339),
			})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, table)
		return err

	case outputJSON:
		out := make([]recordOutput, len(records))
		for i, rec := range records {
			out[i] = recordOutput{UserID: rec.UserID, AuthorizationRecord: rec}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputTable, outputJSON, outputYAML)
	}
}
