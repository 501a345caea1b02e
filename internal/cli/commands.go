package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rebeliceyang/lazyca/internal/admin"
	"github.com/rebeliceyang/lazyca/internal/alert"
	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/auth"
	"github.com/rebeliceyang/lazyca/internal/download"
	"github.com/rebeliceyang/lazyca/internal/export"
	"github.com/rebeliceyang/lazyca/internal/history"
	"github.com/rebeliceyang/lazyca/internal/i18n"
	"github.com/rebeliceyang/lazyca/internal/jsonfmt"
	"github.com/rebeliceyang/lazyca/internal/listview"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rebeliceyang/lazyca/internal/presets"
	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newLoginCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the credentials in the keyring",
		Long:  `Reads the password from stdin, exchanges it for a token and stores both in the OS keyring.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := env.Config
			if cfg.Auth.User == "" {
				return fmt.Errorf("a user is required, set auth.user or pass --user")
			}
			if env.Secrets == nil {
				return fmt.Errorf("keyring unavailable")
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", cfg.Auth.User)
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}

			token, err := env.Client.Authenticate(cmd.Context(), cfg.Auth.User, password)
			if err != nil {
				return err
			}
			if err := env.Secrets.Save(cfg.Server.BaseURL, cfg.Auth.User, auth.KindPassword, password); err != nil {
				return err
			}
			if err := env.Secrets.Save(cfg.Server.BaseURL, cfg.Auth.User, auth.KindToken, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", cfg.Auth.User)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no password given")
	}
	return strings.TrimRight(scanner.Text(), "\r\n"), nil
}

func newNotifyCmd(env *Env) *cobra.Command {
	names := make([]string, 0, len(api.Notifications))
	for _, n := range api.Notifications {
		names = append(names, string(n))
	}

	return &cobra.Command{
		Use:       "notify <notification> [id]",
		Short:     "Trigger a notification",
		Long:      "Triggers one of: " + strings.Join(names, ", "),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := api.ParseNotification(args[0])
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 2 {
				id = args[1]
			}
			if err := env.requireAuth(cmd.Context()); err != nil {
				return err
			}

			problem, err := env.Client.Notify(cmd.Context(), n, id)
			entry := history.Entry{Kind: history.KindNotification, Endpoint: string(n), TargetID: id, Success: err == nil && problem.IsEmpty()}
			if err != nil {
				entry.ErrorMessage = err.Error()
			} else if !problem.IsEmpty() {
				entry.ErrorMessage = problem.Title
			}
			env.record(cmd, entry)

			if err != nil {
				return err
			}
			if !problem.IsEmpty() {
				return fmt.Errorf("%s: %s", problem.Title, problem.Detail)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notification %s sent\n", n)
			return nil
		},
	}
}

func newDownloadCmd(env *Env) *cobra.Command {
	var (
		format   string
		keystore string
		opts     download.KeystoreOptions
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "download <certificate-id>",
		Short: "Download a certificate or its keystore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := env.requireAuth(ctx); err != nil {
				return err
			}
			cert, err := env.Client.Certificate(ctx, args[0])
			if err != nil {
				return err
			}

			var req download.Request
			if keystore != "" {
				uiConfig, err := env.Client.UIConfig(ctx)
				if err != nil {
					env.Logger.Warn().Err(err).Msg("ui config unavailable, using keystore defaults")
				}
				opts.Type = download.KeystoreType(keystore)
				req, err = download.KeystoreRequest(*cert, opts, uiConfig)
				if err != nil {
					return err
				}
			} else {
				f, err := download.ParseFormat(format)
				if err != nil {
					return err
				}
				if req, err = download.CertificateRequest(*cert, f); err != nil {
					return err
				}
			}

			if dir == "" {
				dir = env.Config.Downloads.Dir
			}
			path, err := download.New(env.Client, dir, env.Logger).Fetch(ctx, req)
			entry := history.Entry{Kind: history.KindDownload, Endpoint: req.URL, TargetID: args[0], ResultID: path, Success: err == nil}
			if err != nil {
				entry.ErrorMessage = err.Error()
			}
			env.record(cmd, entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(download.PEM), "certificate format (pkix, pem, pemPart, pemFull)")
	cmd.Flags().StringVarP(&keystore, "keystore", "k", "", "download a keystore instead (p12, jks)")
	cmd.Flags().StringVar(&opts.Alias, "alias", download.DefaultAlias, "keystore entry alias")
	cmd.Flags().StringVar(&opts.PBEAlgo, "pbe", "", "keystore PBE algorithm (default from the backend)")
	cmd.Flags().BoolVar(&opts.KeyEx, "key-ex", false, "mark the key for key exchange")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "target directory (default downloads.dir)")
	return cmd
}

// parseListKind accepts the user-facing list names
func parseListKind(name string) (models.ListKind, error) {
	switch strings.ToLower(name) {
	case "requests", "csr", "csrs", "csrlist":
		return models.CSRList, nil
	case "certificates", "cert", "certs", "certlist":
		return models.CertList, nil
	}
	return "", fmt.Errorf("unknown list %q, expected requests or certificates", name)
}

func newCSVCmd(env *Env) *cobra.Command {
	var presetName string

	cmd := &cobra.Command{
		Use:   "csv <requests|certificates>",
		Short: "Export a list as CSV using the stored filters or a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseListKind(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := env.requireAuth(ctx); err != nil {
				return err
			}

			endpoint, _ := api.ListEndpoint(kind)
			ctrl := listview.NewCSRController(endpoint, env.Logger)
			if kind == models.CertList {
				ctrl = listview.NewCertificateController(endpoint, env.Logger)
			}
			result := ctrl.Load(ctx, env.Client)
			for part, err := range result.Errors {
				env.Logger.Warn().Err(err).Str("part", part).Msg("list load incomplete")
			}

			if presetName != "" {
				m, err := presets.NewManager(env.Config.Filters.PresetsFile)
				if err != nil {
					return err
				}
				p, err := m.Get(presetName)
				if err != nil {
					return err
				}
				if err := ctrl.SetFilters(p.Filters); err != nil {
					return err
				}
			}
			if _, err := ctrl.Submit(); err != nil {
				return err
			}

			data, err := env.Client.ListCSV(ctx, kind, ctrl.AccessQuery(), download.CSVColumns)
			if err != nil {
				return err
			}
			name := "csrList.csv"
			if kind == models.CertList {
				name = "certList.csv"
			}
			path, err := download.New(env.Client, env.Config.Downloads.Dir, env.Logger).Save(name, data)
			env.record(cmd, history.Entry{Kind: history.KindCSVExport, Endpoint: ctrl.AccessURL(), ResultID: path, Success: err == nil})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&presetName, "preset", "p", "", "apply a saved preset instead of the stored filters")
	return cmd
}

var adminKinds = []admin.Kind{
	admin.AcceptCSR, admin.RejectCSR, admin.UpdateCSR, admin.WithdrawCSR,
	admin.UpdateCertificate, admin.UpdateCRL, admin.RevokeCertificate, admin.RemoveFromCRL,
	admin.SelfAdminister, admin.WithdrawCertificate,
}

func parseAdminKind(name string) (admin.Kind, error) {
	for _, k := range adminKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", admin.ErrUnknownAction, name)
}

func isCSRKind(k admin.Kind) bool {
	switch k {
	case admin.AcceptCSR, admin.RejectCSR, admin.UpdateCSR, admin.WithdrawCSR:
		return true
	}
	return false
}

// printNavigator reports where the UI would have moved after an action
type printNavigator struct {
	w io.Writer
}

func (n printNavigator) ShowCertificate(id string) {
	fmt.Fprintf(n.w, "certificate %s\n", id)
}

func (n printNavigator) Back() {}

type noBusy struct{}

func (noBusy) SetBusy(bool) {}

// printSink writes alerts to stderr
type printSink struct {
	w io.Writer
}

func (s printSink) ShowAlert(message string, level alert.Level) {
	fmt.Fprintf(s.w, "%s: %s\n", level, message)
}

func newAdminCmd(env *Env) *cobra.Command {
	var (
		reason  string
		comment string
		trusted bool
	)
	names := make([]string, 0, len(adminKinds))
	for _, k := range adminKinds {
		names = append(names, string(k))
	}

	cmd := &cobra.Command{
		Use:       "admin <action> <id>",
		Short:     "Run an administration action on a request or certificate",
		Long:      "Actions: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseAdminKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}

			action := admin.Action{Kind: kind, Comment: comment}
			if isCSRKind(kind) {
				action.CSRID = id
				action.RejectionReason = reason
			} else {
				action.CertificateID = id
				action.RevocationReason = reason
				if cmd.Flags().Changed("trusted") {
					action.Trusted = &trusted
				}
			}
			if kind == admin.RevokeCertificate && reason == "" {
				action.RevocationReason = models.RevocationReasons[0]
			}

			ctx := cmd.Context()
			if err := env.requireAuth(ctx); err != nil {
				return err
			}
			store, err := env.openHistory()
			if err != nil {
				env.Logger.Warn().Err(err).Msg("history unavailable")
			}
			var recorder admin.Recorder
			if store != nil {
				defer func() { _ = store.Close() }()
				recorder = store
			}

			d := admin.NewDispatcher(env.Client, printNavigator{w: cmd.OutOrStdout()}, noBusy{},
				printSink{w: cmd.ErrOrStderr()}, i18n.New(env.Config.UI.Language), recorder, env.Logger)
			outcome := d.Dispatch(ctx, action)
			if outcome.Err != nil {
				return outcome.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d: status %d\n", kind, id, outcome.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "rejection or revocation reason")
	cmd.Flags().StringVar(&comment, "comment", "", "administration comment")
	cmd.Flags().BoolVar(&trusted, "trusted", false, "trust flag of a self-signed certificate")
	return cmd
}

func newPresetsCmd(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved filter presets",
	}

	list := &cobra.Command{
		Use:   "list [requests|certificates]",
		Short: "List presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := presets.NewManager(env.Config.Filters.PresetsFile)
			if err != nil {
				return err
			}
			items := m.GetAll()
			if len(args) == 1 {
				kind, err := parseListKind(args[0])
				if err != nil {
					return err
				}
				items = m.ForList(kind)
			}
			if output == outputJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLIST\tUSED\tFILTERS")
			for _, p := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.List, p.UsageCount, export.FormatFilters(p.Filters))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, json)")

	exportCmd := &cobra.Command{
		Use:   "export <csv|json> [path]",
		Short: "Export presets to a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := presets.NewManager(env.Config.Filters.PresetsFile)
			if err != nil {
				return err
			}
			var paths []string
			if len(args) == 2 {
				paths = append(paths, args[1])
			}
			var path string
			switch args[0] {
			case "csv":
				path, err = m.ExportToCSV(paths...)
			case "json":
				path, err = m.ExportToJSON(paths...)
			default:
				return fmt.Errorf("unknown export format %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := presets.NewManager(env.Config.Filters.PresetsFile)
			if err != nil {
				return err
			}
			p, err := m.Get(args[0])
			if err != nil {
				return err
			}
			return m.Delete(p.ID)
		},
	}

	cmd.AddCommand(list, exportCmd, del)
	return cmd
}

func newHistoryCmd(env *Env) *cobra.Command {
	var (
		limit  int
		target string
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local action history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := env.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("history is disabled")
			}
			defer func() { _ = store.Close() }()

			var entries []history.Entry
			if target != "" {
				entries, err = store.ForTarget(cmd.Context(), target, limit)
			} else {
				entries, err = store.GetRecent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if output == outputJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tKIND\tTARGET\tSTATUS\tRESULT")
			for _, e := range entries {
				result := e.ResultID
				if !e.Success {
					result = e.ErrorMessage
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.ExecutedAt.Format("2006-01-02 15:04:05"), e.Kind, e.TargetID, e.Status, result)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries")
	cmd.Flags().StringVar(&target, "target", "", "only entries for this request or certificate id")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, json)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	out, err := jsonfmt.Format(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// record adds a history entry, logging failures only
func (e *Env) record(cmd *cobra.Command, entry history.Entry) {
	store, err := e.openHistory()
	if err != nil || store == nil {
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Add(cmd.Context(), entry); err != nil {
		e.Logger.Debug().Err(err).Msg("failed to record history")
	}
}
