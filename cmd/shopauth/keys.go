package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/shopauth/internal/config"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	"github.com/dropDatabas3/shopauth/internal/http/server"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
)

// newKeysCommand arma el grupo `shopauth keys` para operar el registro de
// claves sin pasar por la API HTTP. Reutiliza el mismo wiring que serve, así
// los cambios quedan persistidos en el storage configurado.
func newKeysCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Administra el registro de claves de firma",
	}

	withKeystore := func(fn func(ctx context.Context, keys *jwtx.KeyStore) error) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		srv, err := server.Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer srv.Close()
		return fn(ctx, srv.Keys)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las claves registradas con su estado",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeystore(func(ctx context.Context, keys *jwtx.KeyStore) error {
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KID\tALG\tSTATUS\tCREATED")
				for _, k := range keys.List() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						k.KID, k.Alg, k.Status, k.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}

	var genBits int
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera y registra un par RSA nuevo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeystore(func(ctx context.Context, keys *jwtx.KeyStore) error {
				priv, err := jwtx.GenerateRSA(genBits)
				if err != nil {
					return err
				}
				pubPEM, err := jwtx.EncodePublicKeyPEM(&priv.PublicKey)
				if err != nil {
					return err
				}
				privPEM, err := jwtx.EncodePrivateKeyPEM(priv)
				if err != nil {
					return err
				}
				kid, err := keys.Register(ctx, pubPEM, privPEM, jwtx.AlgRS256, jwtx.UseSig)
				if err != nil {
					return err
				}
				fmt.Printf("kid=%s status=%s\n", kid, repository.KeyActive)
				return nil
			})
		},
	}
	generateCmd.Flags().IntVar(&genBits, "bits", 2048, "tamaño del módulo RSA")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <kid>",
		Short: "Desactiva una clave (deja de firmar y de publicarse, sigue verificando)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeystore(func(ctx context.Context, keys *jwtx.KeyStore) error {
				if err := keys.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("kid=%s status=%s\n", args[0], repository.KeyInactive)
				return nil
			})
		},
	}

	activateCmd := &cobra.Command{
		Use:   "activate <kid>",
		Short: "Reactiva una clave desactivada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeystore(func(ctx context.Context, keys *jwtx.KeyStore) error {
				if err := keys.Activate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("kid=%s status=%s\n", args[0], repository.KeyActive)
				return nil
			})
		},
	}

	keysCmd.AddCommand(listCmd, generateCmd, deactivateCmd, activateCmd)
	return keysCmd
}
