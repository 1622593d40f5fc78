// Package sshkey ensures the deployment SSH key pair exists before the
// infrastructure that consumes its public half is applied.
package sshkey

import (
	"fmt"
	"os"

	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/util/keygen"
)

const keyBits = 4096

// Step generates the configured SSH key pair when it is missing. With
// no key file configured there is nothing to manage and the step is
// skipped.
func Step() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "ssh key",
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			path := ctx.Config.SSH.KeyFile
			if path == "" {
				return false, nil
			}
			_, err := os.Stat(path)
			if err == nil {
				return true, nil
			}
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("checking SSH key %s: %w", path, err)
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			path := ctx.Config.SSH.KeyFile
			if path == "" {
				return provisioning.ErrSkipped
			}
			kp, err := keygen.GenerateRSAKeyPair(keyBits)
			if err != nil {
				return err
			}
			return kp.WriteFiles(path)
		},
	}
}
