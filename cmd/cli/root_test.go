/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloud-nimbus/chronoguard/cmd/cli"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	rootCmd := cli.NewRootCmd()

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	require.True(t, names["serve"])
	require.True(t, names["reload"])
	require.True(t, names["clear"])
	require.True(t, names["version"])
}

func TestNewRootCmd_Use(t *testing.T) {
	rootCmd := cli.NewRootCmd()
	require.Equal(t, "chronoguard", rootCmd.Use)
}

func TestNewRootCmd_HelpRuns(t *testing.T) {
	rootCmd := cli.NewRootCmd()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"--help"})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "chronoguard")
}
