package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/shadowtab/internal/cli/model"
	"github.com/bnema/shadowtab/internal/domain/entity"
)

var sessionsJSON bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage private browsing sessions",
	Long: `View, rename, and manage recorded private browsing sessions.

Sessions are recorded automatically while the backend runs. You can
list past sessions and inspect their tabs.

Run without arguments to open the interactive session browser.`,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	m := model.NewSessionsModel(app.Ctx(), app.Theme, app.Manager)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// sessions list
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions",
	Long: `List all recorded private browsing sessions.

The current session (if the backend is running) is marked with ●.`,
	RunE: runSessionsList,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsListCmd.Flags().BoolVar(&sessionsJSON, "json", false, "output as JSON")
}

func runSessionsList(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	store, err := app.Manager.ListSessions(app.Ctx())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(store.Sessions)
	}

	return outputSessionsTable(store)
}

func outputSessionsTable(store *entity.SessionStore) error {
	if len(store.Sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tSESSION ID\tNAME\tTABS\tCLOSED\tLAST UPDATED")

	for _, sess := range store.Sessions {
		status := " "
		if sess.ID == store.CurrentSessionID {
			status = "●"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			status,
			sess.ID,
			sess.Name,
			len(sess.Tabs),
			len(sess.ClosedTabs),
			sess.Modified.Format("2006-01-02 15:04"),
		)
	}

	return w.Flush()
}

// sessions delete <id>
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a recorded session",
	Long: `Delete a recorded session and its tab history.

You can use a short suffix of the session ID as long as it's unique.

Example:
  shadowtab sessions delete 20260831_143022_ab12
  shadowtab sessions delete ab12`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsDelete(_ *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	id, err := findSessionByIDOrSuffix(args[0])
	if err != nil {
		return err
	}

	if err := app.Manager.DeleteSession(app.Ctx(), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	fmt.Printf("Session %s deleted.\n", id)
	return nil
}

// sessions rename <id> <name>
var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <name>",
	Short: "Rename a recorded session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionsRename,
}

func init() {
	sessionsCmd.AddCommand(sessionsRenameCmd)
}

func runSessionsRename(_ *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	id, err := findSessionByIDOrSuffix(args[0])
	if err != nil {
		return err
	}

	if err := app.Manager.RenameSession(app.Ctx(), id, args[1]); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}

	fmt.Printf("Session %s renamed to %q.\n", id, args[1])
	return nil
}

// sessions export
var sessionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all sessions as JSON",
	Long:  `Write the full session record to stdout as JSON, for backup or transfer.`,
	RunE:  runSessionsExport,
}

func init() {
	sessionsCmd.AddCommand(sessionsExportCmd)
}

func runSessionsExport(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	store, err := app.Manager.ExportStore(app.Ctx())
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(store)
}

// sessions import <file>
var sessionsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import sessions from a JSON export",
	Long: `Replace the session record with the contents of a JSON export.

This overwrites the existing record; export first if you want a backup.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsImport,
}

func init() {
	sessionsCmd.AddCommand(sessionsImportCmd)
}

func runSessionsImport(_ *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var store entity.SessionStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	if err := app.Manager.ImportStore(app.Ctx(), &store); err != nil {
		return fmt.Errorf("import sessions: %w", err)
	}

	fmt.Printf("Imported %d sessions.\n", len(store.Sessions))
	return nil
}

// findSessionByIDOrSuffix finds a session by exact ID or unique suffix.
// Users typically identify sessions by the last few characters.
func findSessionByIDOrSuffix(idOrSuffix string) (entity.SessionID, error) {
	app := GetApp()
	if app == nil {
		return "", fmt.Errorf("app not initialized")
	}

	store, err := app.Manager.ListSessions(app.Ctx())
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}

	var matches []entity.SessionID
	for _, sess := range store.Sessions {
		if string(sess.ID) == idOrSuffix {
			return sess.ID, nil
		}
		if strings.HasSuffix(string(sess.ID), idOrSuffix) {
			matches = append(matches, sess.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no session found matching '%s'", idOrSuffix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous session ID '%s' matches %d sessions - be more specific", idOrSuffix, len(matches))
	}
}
