package privilege

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

func TestInterpret(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		res  hostexec.Result
		err  error
		want State
	}{
		{"success", hostexec.Result{}, nil, Available},
		{"password required", hostexec.Result{ExitCode: 1, Stderr: "sudo: a password is required"}, nil, RequiresPassword},
		{"password diagnostic beats exit status", hostexec.Result{Stderr: "sudo: a terminal is required to read the password"}, nil, RequiresPassword},
		{"not in sudoers", hostexec.Result{ExitCode: 1, Stderr: "alice is not in the sudoers file."}, nil, Denied},
		{"sudo missing", hostexec.Result{ExitCode: 127, Stderr: "sh: 1: sudo: not found"}, nil, Denied},
		{"could not start", hostexec.Result{ExitCode: -1}, errors.New("exec: \"sh\": not found"), Denied},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Interpret(tc.res, tc.err), tc.name)
	}
}

func TestCheckUsesNonInteractiveProbe(t *testing.T) {
	t.Parallel()

	runner := hostexectest.New().On("sudo -n true", hostexectest.OK(""))
	v := NewVerifier(runner, logger.Nop())

	require.Equal(t, Available, v.Check(context.Background()))
	require.Equal(t, []string{"sudo -n true"}, runner.Commands())
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	t.Run("available needs nothing else", func(t *testing.T) {
		runner := hostexectest.New().On("sudo -n true", hostexectest.OK(""))
		require.NoError(t, NewVerifier(runner, nil).Ensure(context.Background(), ""))
		require.Len(t, runner.Calls(), 1)
	})

	t.Run("requires password without credential halts", func(t *testing.T) {
		runner := hostexectest.New().On("sudo -n true", hostexectest.Exit(1, "sudo: a password is required"))
		err := NewVerifier(runner, nil).Ensure(context.Background(), "")

		var privErr *deperrors.PrivilegeError
		require.ErrorAs(t, err, &privErr)
		require.Equal(t, "requires-password", privErr.State)
		require.Equal(t, []string{"sudo -n true"}, runner.Commands())
	})

	t.Run("denied ignores credential", func(t *testing.T) {
		runner := hostexectest.New().On("sudo -n true", hostexectest.Exit(1, "bob is not in the sudoers file."))
		err := NewVerifier(runner, nil).Ensure(context.Background(), "hunter2")

		var privErr *deperrors.PrivilegeError
		require.ErrorAs(t, err, &privErr)
		require.Equal(t, "denied", privErr.State)
		require.False(t, runner.Ran("sudo -S"))
	})

	t.Run("valid credential unlocks elevation", func(t *testing.T) {
		runner := hostexectest.New().
			On("sudo -n true", hostexectest.Exit(1, "sudo: a password is required"), hostexectest.OK("")).
			On(authenticateCommand, hostexectest.OK(""))

		require.NoError(t, NewVerifier(runner, nil).Ensure(context.Background(), "hunter2"))

		calls := runner.Calls()
		require.Len(t, calls, 3)
		require.Equal(t, authenticateCommand, calls[1].Command)
		require.Equal(t, "hunter2\n", calls[1].Stdin)
	})

	t.Run("rejected credential halts", func(t *testing.T) {
		runner := hostexectest.New().
			On("sudo -n true", hostexectest.Exit(1, "sudo: a password is required")).
			On(authenticateCommand, hostexectest.Exit(1, "Sorry, try again."))

		err := NewVerifier(runner, nil).Ensure(context.Background(), "wrong")
		var privErr *deperrors.PrivilegeError
		require.ErrorAs(t, err, &privErr)
		require.Contains(t, err.Error(), "rejected")
	})
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "available", Available.String())
	require.Equal(t, "requires-password", RequiresPassword.String())
	require.Equal(t, "denied", Denied.String())
}
