// Package terraform drives the infrastructure-as-code tool as an opaque
// subprocess: init, validate, plan, apply, and output. Only the JSON
// output document is parsed; everything the tool does internally is its
// own business.
package terraform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/skylift/skylift/internal/execer"
	"github.com/skylift/skylift/internal/provisioning"
	"github.com/skylift/skylift/internal/state"
)

const planFile = "tfplan"

// ApplyStep provisions the infrastructure and persists the output
// document to the state store. Applying infrastructure incurs cost, so
// the step is gated like a destructive one.
func ApplyStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "infrastructure apply",
		IsDestr:  true,
		ApplyFn: func(ctx *provisioning.Context) error {
			sequences := [][]string{
				{"init", "-input=false"},
				{"validate"},
				{"plan", "-input=false", "-out=" + planFile, "-var", "project_id=" + ctx.Config.ProjectID,
					"-var", "region=" + ctx.Config.Region, "-var", "zone=" + ctx.Config.Zone},
				{"apply", "-input=false", planFile},
			}
			for _, args := range sequences {
				if err := runTerraform(ctx, args...); err != nil {
					return err
				}
			}

			doc, err := Output(ctx)
			if err != nil {
				return err
			}
			if err := ctx.Store.Save(doc); err != nil {
				return fmt.Errorf("persisting infrastructure state: %w", err)
			}
			return nil
		},
	}
}

// DestroyStep tears down the terraform-managed infrastructure. With no
// persisted state there is nothing to destroy and the step reports the
// desired state as already reached.
func DestroyStep() provisioning.Step {
	return &provisioning.FuncStep{
		StepName: "infrastructure destroy",
		IsDestr:  true,
		ExistsFn: func(ctx *provisioning.Context) (bool, error) {
			if ctx.Store == nil {
				return false, nil
			}
			if _, err := ctx.Store.Load(); err != nil {
				if errors.Is(err, state.ErrInfraNotProvisioned) {
					return true, nil
				}
				return false, err
			}
			return false, nil
		},
		ApplyFn: func(ctx *provisioning.Context) error {
			err := runTerraform(ctx, "destroy", "-auto-approve", "-input=false",
				"-var", "project_id="+ctx.Config.ProjectID,
				"-var", "region="+ctx.Config.Region,
				"-var", "zone="+ctx.Config.Zone)
			if err != nil {
				return err
			}
			if ctx.Store != nil {
				if err := ctx.Store.Remove(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Output runs `terraform output -json` and converts the document into
// the persisted state shape.
func Output(ctx *provisioning.Context) (state.Document, error) {
	result, err := run(ctx, "output", "-json")
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, &execer.CommandError{Command: "terraform output -json", Stderr: result.Stderr, Code: result.ExitCode}
	}
	return parseOutput([]byte(result.Stdout))
}

// tfOutput is one entry of the `terraform output -json` document.
type tfOutput struct {
	Value json.RawMessage `json:"value"`
}

// parseOutput maps terraform outputs onto logical resources. Each
// output is expected to be an object of string attributes; outputs of
// other shapes are ignored rather than rejected, since the terraform
// module may expose extras.
func parseOutput(data []byte) (state.Document, error) {
	var outputs map[string]tfOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("parsing terraform output: %w", err)
	}

	doc := make(state.Document, len(outputs))
	for name, out := range outputs {
		var attrs map[string]any
		if err := json.Unmarshal(out.Value, &attrs); err != nil {
			continue
		}

		res := state.Resource{Attributes: make(map[string]string)}
		for k, v := range attrs {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprintf("%v", v)
			}
			switch k {
			case "name":
				res.Name = s
			case "zone":
				res.Zone = s
			case "external_ip", "external_address":
				res.ExternalIP = s
			default:
				res.Attributes[k] = s
			}
		}
		if len(res.Attributes) == 0 {
			res.Attributes = nil
		}
		doc[name] = res
	}
	return doc, nil
}

func run(ctx *provisioning.Context, args ...string) (execer.Result, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.TerraformApply)
	defer cancel()

	args = append([]string{"-chdir=" + ctx.Config.Terraform.Dir}, args...)
	return ctx.Runner.Run(cmdCtx, "terraform", args...)
}

func runTerraform(ctx *provisioning.Context, args ...string) error {
	result, err := run(ctx, args...)
	if err != nil {
		return err
	}
	if execer.Classify(execer.FamilyTerraform, result) == execer.ClassFailed {
		return &execer.CommandError{
			Command: "terraform " + strings.Join(args, " "),
			Stderr:  result.Stderr,
			Code:    result.ExitCode,
		}
	}
	return nil
}
