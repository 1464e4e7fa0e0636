package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/devsetup/internal/domain/sshkey"
)

type keygenOptions struct {
	bits    int
	comment string
	dir     string
	force   bool
}

var keygenOpts keygenOptions

var keygenCmd = &cobra.Command{
	Use:   "keygen <name>",
	Short: "Generate an RSA key pair",
	Long: `Generate an RSA key pair the way setup-git-ssh does: <name>.prv holds the
PKCS#1 private key and <name>.pub the OpenSSH public key line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKeygen(cmd.OutOrStdout(), args[0], keygenOpts)
	},
}

func init() {
	keygenCmd.Flags().IntVar(&keygenOpts.bits, "bits", sshkey.DefaultBits, "modulus size in bits")
	keygenCmd.Flags().StringVarP(&keygenOpts.comment, "comment", "C", "", "public key comment (default: <name>)")
	keygenCmd.Flags().StringVar(&keygenOpts.dir, "dir", ".", "output directory")
	keygenCmd.Flags().BoolVarP(&keygenOpts.force, "force", "f", false, "overwrite existing files")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(out io.Writer, name string, opts keygenOptions) error {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("invalid key name %q: must be a plain file name", name)
	}
	comment := opts.comment
	if comment == "" {
		comment = name
	}

	priv := filepath.Join(opts.dir, name+".prv")
	pub := filepath.Join(opts.dir, name+".pub")
	if !opts.force {
		for _, path := range []string{priv, pub} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}

	pair, err := sshkey.NewGenerator(opts.bits).Generate(comment)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", opts.dir, err)
	}
	if err := os.WriteFile(priv, []byte(pair.PrivateKey), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(pub, []byte(pair.PublicKey+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	fingerprint, err := pair.Fingerprint()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Private key: %s\n", priv)
	_, _ = fmt.Fprintf(out, "Public key:  %s\n", pub)
	_, _ = fmt.Fprintf(out, "Fingerprint: %s\n", fingerprint)
	return nil
}
