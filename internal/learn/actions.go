// Package learn implements the correction-learning CLI commands: inspect
// the learning log, run retraining, and move learned state between
// machines.
package learn

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/corrections"
	"github.com/formsense/formsense/pkg/db"
	"github.com/formsense/formsense/pkg/patterns"
)

// LogAction prints the learning log, newest last.
func LogAction(c *cli.Context) error {
	store, database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	entries := store.Log()
	if len(entries) == 0 {
		fmt.Println("Learning log is empty.")
		return nil
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// RetrainAction runs pattern induction over the learning log and reports
// what it added. Induced patterns only live for the process; they are
// re-derived from the log at every startup, so there is nothing extra to
// persist here.
func RetrainAction(c *cli.Context) error {
	store, database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	lib := patterns.Default()
	induced := store.Retrain(lib)
	if len(induced) == 0 {
		fmt.Println("No transitions repeated often enough to induce patterns.")
		return nil
	}
	data, err := yaml.Marshal(induced)
	if err != nil {
		return fmt.Errorf("failed to marshal induced patterns: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// ExportAction writes corrections and the learning log to a YAML file.
func ExportAction(c *cli.Context) error {
	path := c.String("out")
	if path == "" {
		return fmt.Errorf("no output path provided via --out flag")
	}

	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	state, err := database.LoadCorrections()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(exportFile{
		Corrections: state.Corrections,
		LearningLog: state.LearningLog,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal corrections: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported %d corrections and %d log entries to %s\n",
		len(state.Corrections), len(state.LearningLog), path)
	return nil
}

// ImportAction loads corrections from a YAML export, replacing current
// state.
func ImportAction(c *cli.Context) error {
	path := c.String("in")
	if path == "" {
		return fmt.Errorf("no input path provided via --in flag")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}
	var file exportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse import: %w", err)
	}

	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	state := corrections.State{
		Corrections: file.Corrections,
		LearningLog: file.LearningLog,
	}
	if err := database.SaveCorrections(state); err != nil {
		return err
	}
	fmt.Printf("Imported %d corrections and %d log entries\n",
		len(state.Corrections), len(state.LearningLog))
	return nil
}

type exportFile struct {
	Corrections []models.Correction `yaml:"corrections"`
	LearningLog []models.Correction `yaml:"learning_log"`
}

func openStore(c *cli.Context) (*corrections.Store, *db.DB, error) {
	database, err := openDatabase(c)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return corrections.NewStore(database, logger), database, nil
}

func openDatabase(c *cli.Context) (*db.DB, error) {
	if path := c.String("db"); path != "" {
		return db.OpenAt(path)
	}
	return db.Open()
}
