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

	"github.com/cloud-nimbus/chronoguard/internal/clock"
	"github.com/cloud-nimbus/chronoguard/internal/config"
	"github.com/cloud-nimbus/chronoguard/internal/scheduler"
	"github.com/cloud-nimbus/chronoguard/internal/store"
)

// newReloadCmd creates the one-shot admin command that is the CLI
// counterpart of POST /reload: it connects to the store directly, builds a
// throwaway scheduler, and forces a Reload, reporting the resulting count.
// A running serve daemon's scheduler is not affected. Exits 0 on success,
// nonzero on a store or scheduler error.
func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Load every alarm from the store into a fresh scheduler and report the count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReload(cmd.Context(), cfg, cmd)
		},
	}
}

func runReload(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	st, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		URL:      cfg.Store.URL,
		MinConns: cfg.Store.MinConns,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	defer st.Close()

	sched := scheduler.New(st, noopPublisher{}, clock.New(), cfg.Scheduler.DefaultTimezone, nil)
	if err := sched.Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reloaded %d alarms\n", sched.Count())
	return nil
}

// noopPublisher satisfies scheduler.Publisher for admin commands that never
// start the tick loop and so never call Publish.
type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, topic, payload string) error { return nil }
