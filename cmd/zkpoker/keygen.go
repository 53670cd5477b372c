package main

import (
	"strconv"

	"github.com/luca-patrignani/zkpoker/circuit"
	"github.com/luca-patrignani/zkpoker/ledger"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newKeygenCmd(root *rootOptions) *cobra.Command {
	var dir, signerPath string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Run a development Groth16 setup and create the journal key",
		Long: `keygen compiles every circuit, runs a single-party Groth16 setup and
writes the constraint systems, proving keys and snarkjs verification keys.
Whoever runs this setup can forge proofs: use it for development only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Keys.Dir
			}
			if signerPath == "" {
				signerPath = cfg.Keys.Signer
			}
			return keygen(dir, signerPath)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "key directory, overrides keys.dir")
	cmd.Flags().StringVar(&signerPath, "signer", "", "journal key file, overrides keys.signer")
	return cmd
}

func keygen(dir, signerPath string) error {
	rows := pterm.TableData{{"Circuit", "Public signals", "Verification key"}}
	for _, id := range zk.Circuits {
		spinner, _ := pterm.DefaultSpinner.Start("Setting up " + string(id) + "...")
		k, err := circuit.Setup(id)
		if err != nil {
			spinner.Fail()
			return err
		}
		if err := k.Save(dir); err != nil {
			spinner.Fail()
			return err
		}
		vk, err := k.VerificationKey()
		if err != nil {
			spinner.Fail()
			return err
		}
		spinner.Success(string(id) + " ready")
		rows = append(rows, []string{string(id), strconv.Itoa(vk.NumPublic()), circuit.VerificationKeyFile(dir, id)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}

	signer, created, err := loadSigner(signerPath)
	if err != nil {
		return err
	}
	pub, err := ledger.PublicHex(signer.Public())
	if err != nil {
		return err
	}
	if created {
		pterm.Success.Printfln("Journal key written to %s", signerPath)
	} else {
		pterm.Info.Printfln("Journal key %s kept", signerPath)
	}
	pterm.Info.Printfln("Journal public key: %s", pub)
	return nil
}
