// Command ipn-replay подписывает или шифрует тестовое уведомление так же,
// как это делает платёжный провайдер, и отправляет его на ipn-server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "ipn-replay",
		Short:        "Send signed JVZoo or encrypted ClickBank notifications to ipn-server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "ipn-server base URL")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().Bool("dry-run", false, "print the request body instead of sending it")

	rootCmd.AddCommand(jvzooCmd())
	rootCmd.AddCommand(clickBankCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func jvzooCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jvzoo",
		Short: "Sign a JVZoo form with cverify and post it to /ipn/jvzoo",
		Example: `  ipn-replay jvzoo -f ccustemail=john@example.com -f ccustname="John Doe" \
    -f ctransaction=SALE -f ctransreceipt=R1 -f cproditem=1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, _ := cmd.Flags().GetStringArray("field")
			secret, _ := cmd.Flags().GetString("secret")

			body, err := jvzooBody(fields, secret)
			if err != nil {
				return err
			}
			return run(cmd, "/ipn/jvzoo", jvzooContentType, body)
		},
	}

	cmd.Flags().StringArrayP("field", "f", nil, "form field as key=value, repeatable")
	cmd.Flags().String("secret", os.Getenv("JVZOO_SECRET_KEY"), "JVZoo secret key")

	return cmd
}

func clickBankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clickbank [notification.json]",
		Short: "Encrypt a ClickBank notification and post it to /ipn/clickbank",
		Long: `Encrypt a ClickBank notification and post it to /ipn/clickbank.
The notification is read from the given file or from stdin when the argument is "-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			encoding, _ := cmd.Flags().GetString("encoding")

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			notification, err := readNotification(cmd, path)
			if err != nil {
				return err
			}

			body, err := clickBankBody(notification, secret, encoding)
			if err != nil {
				return err
			}
			return run(cmd, "/ipn/clickbank", clickBankContentType, body)
		},
	}

	cmd.Flags().String("secret", os.Getenv("CLICKBANK_SECRET_KEY"), "ClickBank secret key")
	cmd.Flags().String("encoding", "hex", "ClickBank key encoding (hex or ascii)")

	return cmd
}

func run(cmd *cobra.Command, path, contentType string, body []byte) error {
	baseURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}

	status, reply, err := send(cmd.Context(), newClient(timeout), baseURL+path, contentType, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, reply)
	return nil
}
