// Command seeds inspects and edits the level archive that seeds new runs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/siege/archive"
	"github.com/pthm-cable/siege/level"
)

// listRow is one archived level as printed by -list.
type listRow struct {
	ID         uint    `csv:"id"`
	RunID      string  `csv:"run_id"`
	Generation int     `csv:"generation"`
	Rank       int     `csv:"rank"`
	Fitness    float64 `csv:"fitness"`
	Budget     int     `csv:"budget"`
	Columns    int     `csv:"columns"`
	Targets    int     `csv:"targets"`
}

// importRunID groups levels added by hand.
const importRunID = "import"

func main() {
	archivePath := flag.String("archive", "levels.db", "Level archive database")
	list := flag.Int("list", 0, "Print the N best levels as CSV")
	runs := flag.Bool("runs", false, "Print recorded runs")
	export := flag.Uint("export", 0, "Level ID to export")
	out := flag.String("out", "", "Output file for -export (empty = stdout)")
	importPath := flag.String("import", "", "Level YAML file to add to the archive")
	fitness := flag.Float64("fitness", 0, "Fitness recorded for an imported level")
	flag.Parse()

	a, err := archive.Open(*archivePath)
	if err != nil {
		log.Fatalf("opening archive: %v", err)
	}
	defer a.Close()

	switch {
	case *list > 0:
		err = listLevels(a, *list)
	case *runs:
		err = listRuns(a)
	case *export > 0:
		err = exportLevel(a, uint(*export), *out)
	case *importPath != "":
		err = importLevel(a, *importPath, *fitness)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func listLevels(a *archive.Archive, n int) error {
	records, err := a.BestLevels(n)
	if err != nil {
		return err
	}
	rows := make([]listRow, len(records))
	for i, r := range records {
		rows[i] = listRow{
			ID:         r.ID,
			RunID:      r.RunID,
			Generation: r.Generation,
			Rank:       r.Rank,
			Fitness:    r.Fitness,
			Budget:     r.Budget,
			Columns:    r.Columns,
			Targets:    r.Targets,
		}
	}
	return gocsv.Marshal(rows, os.Stdout)
}

func listRuns(a *archive.Archive) error {
	runs, err := a.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  seed=%d  %s\n", r.ID, r.Seed, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func exportLevel(a *archive.Archive, id uint, out string) error {
	rec, err := a.Level(id)
	if errors.Is(err, archive.ErrNotFound) {
		return fmt.Errorf("no level with id %d", id)
	}
	if err != nil {
		return err
	}
	g, err := rec.Level()
	if err != nil {
		return err
	}
	if out != "" {
		return level.WriteFile(out, g)
	}
	data, err := level.Marshal(g)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func importLevel(a *archive.Archive, path string, fitness float64) error {
	g, err := level.ReadFile(path)
	if err != nil {
		return err
	}
	id, err := a.SaveLevel(importRunID, 0, fitness, g)
	if err != nil {
		return err
	}
	fmt.Printf("imported %s as level %d\n", path, id)
	return nil
}
