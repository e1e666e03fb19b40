package report

import (
	"strings"

	"ghasreport/internal/config"
	"ghasreport/internal/types"
)

// ResolveTargets expands a project's configuration into the flat target list:
// all organizations first, then all repositories with the project's owner.
// Blank entries are skipped silently; order is preserved within each kind.
func ResolveTargets(project config.Project) []types.Target {
	targets := make([]types.Target, 0, len(project.Organizations)+len(project.Repositories))

	for _, org := range project.Organizations {
		if strings.TrimSpace(org) == "" {
			continue
		}
		targets = append(targets, types.Target{Kind: types.KindOrganization, Name: org})
	}
	for _, repo := range project.Repositories {
		if strings.TrimSpace(repo) == "" {
			continue
		}
		targets = append(targets, types.Target{Kind: types.KindRepository, Name: repo, Owner: project.Owner})
	}

	return targets
}
