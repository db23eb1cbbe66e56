// AngelaMos | 2026
// keygen.go

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/bloghub/internal/auth"
)

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Write a new ES256 key pair for session signing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			private, _ := cmd.Flags().GetString("private") //nolint:errcheck // flag is registered below
			public, _ := cmd.Flags().GetString("public")   //nolint:errcheck // flag is registered below
			force, _ := cmd.Flags().GetBool("force")       //nolint:errcheck // flag is registered below

			if !force {
				for _, p := range []string{private, public} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s exists, pass --force to overwrite", p)
					}
				}
			}

			for _, p := range []string{private, public} {
				if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
					return fmt.Errorf("create key directory: %w", err)
				}
			}

			if err := auth.GenerateKeyPair(private, public); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", private, public)
			return nil
		},
	}

	cmd.Flags().String("private", "keys/private.pem", "private key output path")
	cmd.Flags().String("public", "keys/public.pem", "public key output path")
	cmd.Flags().Bool("force", false, "overwrite existing key files")

	return cmd
}
