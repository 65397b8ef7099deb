package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3pilot/internal/ui"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag string
	walletYesFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the built-in signer's accounts",
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key into the keychain",
	Long: `Import a hex private key. The key is stored in the OS keychain (or an
encrypted file keyring) and only the address is written to wallets.json.

Without --key the key is read from the first line of stdin:
  pass show eth/dev | w3pilot wallet import dev`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := walletKeyFlag
		if key == "" {
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("no private key given; use --key or pipe it on stdin")
		}
		book, err := newBook()
		if err != nil {
			return err
		}
		acct, err := book.Import(args[0], key)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Account %q imported: %s", acct.Name, ui.Addr(acct.Address.Hex()))))
		if !acct.IsDefault {
			fmt.Fprintln(out, ui.Hint("make it the default with: w3pilot wallet use "+acct.Name))
		}
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := newBook()
		if err != nil {
			return err
		}
		accounts, err := book.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(accounts) == 0 {
			fmt.Fprintln(out, ui.Info("No accounts yet."))
			fmt.Fprintln(out, ui.Hint("import one with: w3pilot wallet import <name> --key <hex>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Default", Width: 7},
		})
		for _, a := range accounts {
			def := ""
			if a.IsDefault {
				def = "✓"
			}
			t.AddRow(a.Name, a.Address.Hex(), def)
		}
		fmt.Fprint(out, t.Render())
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()
		if !walletYesFlag && !ui.Confirm(cmd.InOrStdin(), out, fmt.Sprintf("Remove account %q and delete its key?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		book, err := newBook()
		if err != nil {
			return err
		}
		if err := book.Remove(name); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Account %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default signing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := newBook()
		if err != nil {
			return err
		}
		if err := book.SetDefault(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default account set to %q.", args[0])))
		return nil
	},
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key")
	walletRemoveCmd.Flags().BoolVarP(&walletYesFlag, "yes", "y", false, "skip the confirmation prompt")
	walletCmd.AddCommand(walletImportCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}
