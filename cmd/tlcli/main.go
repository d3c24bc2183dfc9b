package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trustlayer/trustlayer/cmd/trustlayer/config"
	"github.com/trustlayer/trustlayer/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "tlcli",
	Short: "tlcli can help you manage your trustlayer instance",
	Long:  "tlcli can help you manage your trustlayer instance",
}

var configFile string
var backends model.Backends

func loadConfig() error {
	config.Load(configFile)
	c := config.Get()

	var err error
	backends, err = config.LoadStorageBackends(c.Storage, c.API.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}
	return nil
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userAddAdmin bool

var userAddCmd = &cobra.Command{
	Use:   "add <username> <password> [display name]",
	Short: "Add an API user",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var displayName string
		if len(args) > 2 {
			displayName = args[2]
		}
		u, err := backends.Users.Create(args[0], args[1], displayName, userAddAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("created user %s\n", u.Username)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API users",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		users, err := backends.Users.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tDISPLAY NAME\tADMIN\tDISABLED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", u.Username, u.DisplayName, u.Admin, u.Disabled)
		}
		return w.Flush()
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an API user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := backends.Users.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted user %s\n", args[0])
		return nil
	},
}

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Manage reconciliation debts",
	Long: "Reconciliation debts record certificates whose registry state " +
		"diverged from the ledger, e.g. a revocation that could not be " +
		"anchored. They must be settled manually.",
}

var debtListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open reconciliation debts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		debts, err := backends.Debts.Open()
		if err != nil {
			return err
		}
		if len(debts) == 0 {
			fmt.Println("no open debts")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCERT\tOPERATION\tSINCE\tDETAIL")
		for _, d := range debts {
			fmt.Fprintf(
				w, "%d\t%s\t%s\t%s\t%s\n",
				d.ID, d.CertID, d.Operation, d.CreatedAt.Format("2006-01-02 15:04"), d.Detail,
			)
		}
		return w.Flush()
	},
}

var debtResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark a reconciliation debt as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var id uint
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid debt id %q", args[0])
		}
		if err := backends.Debts.Resolve(id); err != nil {
			return err
		}
		fmt.Printf("resolved debt %d\n", id)
		return nil
	},
}

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Manage runtime settings stored in the registry",
	Long: "Runtime settings override their config file counterparts at service start.\n" +
		"Known settings: verification/verdict_cache_ttl (duration), issuance/verify_base_url, /instance_name.",
}

var settingSetCmd = &cobra.Command{
	Use:   "set <scope> <key> <value>",
	Short: "Set a runtime setting",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		scope, key, value := args[0], args[1], args[2]
		if key == model.KeyValueKeyVerdictCacheTTL {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("%s must be a duration like 30s: %w", key, err)
			}
		}
		if err := backends.KV.SetAny(scope, key, value); err != nil {
			return err
		}
		fmt.Printf("set %s/%s\n", scope, key)
		return nil
	},
}

var settingGetCmd = &cobra.Command{
	Use:   "get <scope> <key>",
	Short: "Show a runtime setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		raw, err := backends.KV.Get(args[0], args[1])
		if err != nil {
			return err
		}
		if raw == nil {
			return fmt.Errorf("setting %s/%s is not set", args[0], args[1])
		}
		fmt.Println(string(raw))
		return nil
	},
}

var settingUnsetCmd = &cobra.Command{
	Use:   "unset <scope> <key>",
	Short: "Remove a runtime setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := backends.KV.Delete(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("unset %s/%s\n", args[0], args[1])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show issuance statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var instance string
		if found, err := backends.KV.GetAs(
			model.KeyValueScopeGlobal, model.KeyValueKeyInstanceName, &instance,
		); err != nil {
			return err
		} else if found {
			fmt.Printf("instance:     %s\n", instance)
		}
		total, err := backends.Certificates.Count(model.CertificateFilter{})
		if err != nil {
			return err
		}
		revoked := true
		revokedCount, err := backends.Certificates.Count(model.CertificateFilter{Revoked: &revoked})
		if err != nil {
			return err
		}
		debts, err := backends.Debts.Open()
		if err != nil {
			return err
		}
		fmt.Printf("certificates: %d\nrevoked:      %d\nopen debts:   %d\n", total, revokedCount, len(debts))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	userAddCmd.Flags().BoolVar(&userAddAdmin, "admin", false, "grant admin privileges")
	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd)
	debtCmd.AddCommand(debtListCmd, debtResolveCmd)
	settingCmd.AddCommand(settingSetCmd, settingGetCmd, settingUnsetCmd)
	rootCmd.AddCommand(userCmd, debtCmd, settingCmd, statsCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
