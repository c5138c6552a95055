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

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloud-nimbus/chronoguard/internal/config"
	"github.com/cloud-nimbus/chronoguard/internal/store"
)

// newClearCmd creates the admin command that empties every alarm row from
// the durable store. Scheduler.Clear only empties the in-memory index;
// this command is for operators who need to wipe the store too, e.g.
// before a fresh Reload in a test environment.
func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every alarm row from the durable store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), cfg, cmd)
		},
	}
}

func runClear(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	st, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		URL:      cfg.Store.URL,
		MinConns: cfg.Store.MinConns,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer st.Close()

	rows, err := st.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	removed := 0
	for _, a := range rows {
		n, err := st.Delete(ctx, a.CodeID, a.Email, a.LocalTime)
		if err != nil {
			return fmt.Errorf("clear: delete %s: %w", a.ID(), err)
		}
		removed += int(n)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cleared %d alarms\n", removed)
	return nil
}
