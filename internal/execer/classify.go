package execer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Family identifies a command family for error classification.
// Each family has its own set of stderr patterns that mean
// "the resource already exists" rather than "the command failed".
type Family string

const (
	// FamilyProjects covers gcloud projects create/describe.
	FamilyProjects Family = "gcloud.projects"
	// FamilyServices covers gcloud services enable.
	FamilyServices Family = "gcloud.services"
	// FamilyIAM covers gcloud iam service-accounts and policy bindings.
	FamilyIAM Family = "gcloud.iam"
	// FamilyBilling covers gcloud billing link and budget commands.
	FamilyBilling Family = "gcloud.billing"
	// FamilyTerraform covers terraform subcommands.
	FamilyTerraform Family = "terraform"
)

// Class is the interpretation of a completed command.
type Class int

const (
	// ClassOK means the command succeeded.
	ClassOK Class = iota
	// ClassAlreadyExists means the command failed only because the
	// resource it would create is already present. Treated as success.
	ClassAlreadyExists
	// ClassFailed means the command failed for real.
	ClassFailed
)

// CommandError reports a command that failed with no recognizable
// idempotency marker in its stderr.
type CommandError struct {
	Command string
	Stderr  string
	Code    int
}

func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = "no output"
	}
	return fmt.Sprintf("%s failed (exit %d): %s", e.Command, e.Code, detail)
}

// IsCommandError reports whether err is a CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// rule maps a stderr pattern within a command family to ClassAlreadyExists.
type rule struct {
	family  Family
	pattern *regexp.Regexp
}

// alreadyExistsRules is the classification table. Patterns are matched
// case-insensitively against the whole stderr of a failed command.
// Isolated here so each command family's markers are covered by unit
// tests rather than scattered through step code.
var alreadyExistsRules = []rule{
	{FamilyProjects, regexp.MustCompile(`(?i)project .* already exists`)},
	{FamilyProjects, regexp.MustCompile(`(?i)requested entity already exists`)},
	{FamilyServices, regexp.MustCompile(`(?i)service .* is already enabled`)},
	{FamilyIAM, regexp.MustCompile(`(?i)service account .* already exists`)},
	{FamilyIAM, regexp.MustCompile(`(?i)alreadyExists`)},
	{FamilyIAM, regexp.MustCompile(`(?i)role .* is already a member`)},
	{FamilyBilling, regexp.MustCompile(`(?i)budget .* already exists`)},
	{FamilyBilling, regexp.MustCompile(`(?i)billing account .* is already linked`)},
	{FamilyTerraform, regexp.MustCompile(`(?i)resource already managed`)},
}

// Classify interprets a completed command for the given family.
func Classify(family Family, result Result) Class {
	if result.Success() {
		return ClassOK
	}
	for _, r := range alreadyExistsRules {
		if r.family == family && r.pattern.MatchString(result.Stderr) {
			return ClassAlreadyExists
		}
	}
	return ClassFailed
}
