package main

import (
	"os"

	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var vkPath, proofPath, publicPath string
	cmd := &cobra.Command{
		Use:   "verify <circuit>",
		Short: "Check a snarkjs proof against a verification key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := verifyFiles(zk.CircuitID(args[0]), vkPath, proofPath, publicPath); err != nil {
				return err
			}
			pterm.Success.Printfln("%s proof verified", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&vkPath, "vk", "verification_key.json", "snarkjs verification key")
	cmd.Flags().StringVar(&proofPath, "proof", "proof.json", "snarkjs proof")
	cmd.Flags().StringVar(&publicPath, "public", "public.json", "snarkjs public signals")
	return cmd
}

// verifyFiles runs the same checks the engine applies to a submitted proof.
func verifyFiles(id zk.CircuitID, vkPath, proofPath, publicPath string) error {
	read := func(path string) ([]byte, error) {
		b, err := os.ReadFile(path)
		return b, errors.Wrapf(err, "reading %s", path)
	}
	raw, err := read(vkPath)
	if err != nil {
		return err
	}
	vk, err := zk.ParseSnarkJSVerificationKey(raw)
	if err != nil {
		return err
	}
	if raw, err = read(proofPath); err != nil {
		return err
	}
	proof, err := zk.ParseSnarkJSProof(raw)
	if err != nil {
		return err
	}
	if raw, err = read(publicPath); err != nil {
		return err
	}
	signals, err := zk.ParseSnarkJSPublicSignals(raw)
	if err != nil {
		return err
	}
	reg := zk.NewRegistry()
	if err := reg.Set(id, vk); err != nil {
		return err
	}
	return reg.Check(id, proof, signals)
}
