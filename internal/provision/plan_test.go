package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/deployerra/internal/report"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

func TestPlanFreshHost(t *testing.T) {
	t.Parallel()

	runner := freshHost("sudo apt-get update", "sudo apt-get install -y docker.io")
	plan, err := newExecutor(t, runner, ubuntu, testOptions{}).Plan(context.Background())
	require.NoError(t, err)

	var actions []Action
	for _, a := range plan.Actions {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []Action{
		ActionRefreshRepositories,
		ActionInstallRuntime,
		ActionEnableService,
		ActionGrantGroup,
		ActionRestartService,
		ActionInstallCompose,
	}, actions)
	assert.Equal(t, "alice", plan.User)
	assert.Equal(t, composeCmd, plan.Actions[len(plan.Actions)-1].Command)

	for _, call := range runner.Calls() {
		assert.False(t, call.Stream, call.Command)
		assert.NotContains(t, call.Command, "sudo", call.Command)
	}
}

func TestPlanProvisionedHostIsEmpty(t *testing.T) {
	t.Parallel()

	plan, err := newExecutor(t, provisionedHost(), ubuntu, testOptions{}).Plan(context.Background())
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.True(t, plan.Findings.Complete())

	summary := plan.Summary()
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, report.StatusSkipped, summary.Entries[0].Status)
}

func TestPlanPartialHost(t *testing.T) {
	t.Parallel()

	runner := provisionedHost().Set(probeGroups, hostexectest.OK("alice : alice"))
	plan, err := newExecutor(t, runner, ubuntu, testOptions{}).Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ActionGrantGroup, plan.Actions[0].Action)
	assert.Equal(t, grantCmd, plan.Actions[0].Command)
	assert.Equal(t, report.StatusPlanned, plan.Summary().Entries[0].Status)
}

func TestPlanSurfacesUnsupportedVariant(t *testing.T) {
	t.Parallel()

	runner := freshHost("sudo yum update -y", "unused")
	_, err := newExecutor(t, runner, amzn, testOptions{release: "Amazon Linux AMI release 2018.03"}).Plan(context.Background())
	require.Error(t, err)
	assert.Equal(t, deperrors.UnsupportedPlatformVariant, kindOf(t, err))
}
