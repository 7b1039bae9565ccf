package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/araddon/dateparse"
	"github.com/coreybb/readings/datastore"
	"github.com/coreybb/readings/datekeys"
	"github.com/coreybb/readings/models"
	"github.com/coreybb/readings/readingplan"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type assignmentWriter interface {
	PutAssignment(ctx context.Context, dateKey string, assignment models.ReadingAssignment) error
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	var file, builtin string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a reading plan into the assignment database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.dbDriver == driverStatic {
				return errors.New("seed needs a database; DB_DRIVER is static")
			}

			plan, err := loadPlan(file, builtin)
			if err != nil {
				return err
			}

			db, err := datastore.Open(cfg.dbDriver, cfg.databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := datastore.NewAssignmentRepository(db, cfg.dbDriver)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			n, err := seedAssignments(cmd.Context(), repo, plan, cfg.keyFormat)
			if err != nil {
				return err
			}
			slog.Info("Seeded reading assignments", "count", n, "key_format", cfg.keyFormat)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML or JSON file mapping dates to {OT, NT}")
	cmd.Flags().StringVar(&builtin, "builtin", "", "name of a compiled-in plan (2021)")
	cmd.Flags().String("key-format", string(datekeys.FormatMonthDay), "date key format to write: month-day or iso")
	_ = v.BindPFlag(keyDateKeyFormat, cmd.Flags().Lookup("key-format"))
	cmd.MarkFlagsMutuallyExclusive("file", "builtin")
	cmd.MarkFlagsOneRequired("file", "builtin")

	return cmd
}

func loadPlan(file, builtin string) (map[string]models.ReadingAssignment, error) {
	if builtin != "" {
		return readingplan.Builtin(builtin)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return parsePlan(data)
}

// parsePlan decodes a plan document. JSON plans decode too, since YAML is a
// superset of JSON.
func parsePlan(data []byte) (map[string]models.ReadingAssignment, error) {
	var plan map[string]models.ReadingAssignment
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if len(plan) == 0 {
		return nil, errors.New("plan has no assignments")
	}
	return plan, nil
}

// normalizeKey rewrites a plan key into format. Keys already in format pass
// through unchanged; anything else dateparse understands is re-keyed.
func normalizeKey(raw string, format datekeys.Format) (string, error) {
	if _, err := format.Parse(raw, datekeys.ReferenceYear); err == nil {
		return raw, nil
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", fmt.Errorf("unrecognized date %q: %w", raw, err)
	}
	return format.Key(t), nil
}

// seedAssignments writes plan under format's keys in key order and returns the
// number written. Two plan entries landing on the same key is an error.
func seedAssignments(ctx context.Context, w assignmentWriter, plan map[string]models.ReadingAssignment, format datekeys.Format) (int, error) {
	keyed := make(map[string]models.ReadingAssignment, len(plan))
	sources := make(map[string]string, len(plan))
	for raw, assignment := range plan {
		key, err := normalizeKey(raw, format)
		if err != nil {
			return 0, err
		}
		if prev, dup := sources[key]; dup {
			return 0, fmt.Errorf("plan dates %q and %q both map to key %q", prev, raw, key)
		}
		sources[key] = raw
		keyed[key] = assignment
	}

	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		if err := w.PutAssignment(ctx, key, keyed[key]); err != nil {
			return i, fmt.Errorf("failed to store %q: %w", key, err)
		}
	}
	return len(keys), nil
}
