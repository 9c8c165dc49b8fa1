// Command latticekmc runs, lists, resumes, and plots kinetic Monte Carlo
// crystal growth/dissolution ensembles on a cubic lattice.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmclab/latticekmc/internal/ensemble"
	"github.com/kmclab/latticekmc/internal/kmc"
	"github.com/kmclab/latticekmc/internal/lattice"
	"github.com/kmclab/latticekmc/internal/plot"
	"github.com/kmclab/latticekmc/internal/runcfg"
	"github.com/kmclab/latticekmc/internal/storage"
	"github.com/kmclab/latticekmc/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	live       bool
	replicaW   int
	plotHeight int
	plotWidth  int
)

// main registers the root command and its run/list/plot/resume
// subcommands and executes it, exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "latticekmc",
		Short: "kinetic Monte Carlo lattice crystal growth/dissolution simulator",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".latticekmc", "run data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an ensemble from a config file or preset",
		RunE:  runEnsemble,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (key:value format)")
	runCmd.Flags().StringVar(&preset, "preset", "default-anisotropic", "built-in preset to start from")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live bubbletea progress monitor")
	runCmd.Flags().IntVar(&replicaW, "replica-digits", 3, "zero-padding width for replica directory names")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list run directories",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an ensemble's recorded history",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "graph height in rows")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "graph width in columns")

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "resume an ensemble from a prior run's last recorded states",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().BoolVar(&live, "live", false, "show a live bubbletea progress monitor")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, resumeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "latticekmc:", err)
		os.Exit(1)
	}
}

func loadSettings() (runcfg.Settings, string, error) {
	base, ok := runcfg.Presets()[preset]
	if !ok {
		return runcfg.Settings{}, "", fmt.Errorf("unknown preset %q", preset)
	}

	if configFile == "" {
		return base, "", nil
	}
	body, err := os.ReadFile(configFile)
	if err != nil {
		return runcfg.Settings{}, "", fmt.Errorf("reading config %q: %w", configFile, err)
	}
	s, warnings, err := runcfg.Parse(string(body), base)
	if err != nil {
		return runcfg.Settings{}, "", err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "latticekmc:", w)
	}
	return s, string(body), nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	s, body, err := loadSettings()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	return execute(s, body, nil)
}

func resumeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	prevDir := filepath.Join(dataDir, runID)
	cfgBody, err := os.ReadFile(filepath.Join(prevDir, "InitSettings.ini"))
	if err != nil {
		return fmt.Errorf("reading prior config: %w", err)
	}
	s, _, err := runcfg.Parse(string(cfgBody), runcfg.Default())
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	states, err := loadResumeStates(prevDir, s)
	if err != nil {
		return err
	}

	return execute(s, string(cfgBody), states)
}

func loadResumeStates(prevDir string, s runcfg.Settings) ([][]kmc.Phase, error) {
	entries, err := os.ReadDir(prevDir)
	if err != nil {
		return nil, err
	}

	expectedLen := s.Sx * s.Sy * s.Sz
	var states [][]kmc.Phase
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(prevDir, e.Name(), "TimeStates.txt")
		body, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		lines := lastNonEmptyLine(string(body))
		if lines == "" {
			continue
		}
		st, err := storage.LoadStates(lines+"\n", -1, expectedLen)
		if err != nil {
			return nil, fmt.Errorf("resuming from %q: %w", path, err)
		}
		if len(st) > 0 {
			states = append(states, st[len(st)-1])
		}
	}
	return states, nil
}

func lastNonEmptyLine(body string) string {
	last := ""
	start := 0
	for i := 0; i <= len(body); i++ {
		if i == len(body) || body[i] == '\n' {
			line := body[start:i]
			if line != "" {
				last = line
			}
			start = i + 1
		}
	}
	return last
}

func execute(s runcfg.Settings, configBody string, resumeStates [][]kmc.Phase) error {
	lat := lattice.New(s.Sx, s.Sy, s.Sz, s.Px, s.Py, s.Pz)

	mode, err := kmc.ParseMode(s.Mode)
	if err != nil {
		return err
	}

	states := resumeStates
	if states == nil {
		body := configBody
		initPath := ""
		if configFile != "" {
			initPath = filepath.Join(filepath.Dir(configFile), "InitStates.ini")
		}
		if initPath != "" {
			if data, err := os.ReadFile(initPath); err == nil {
				body = string(data)
			}
		}
		states, err = storage.LoadStates(body, s.LoadOption, lat.Size)
		if err != nil {
			return err
		}
	}

	store := storage.New(dataDir)
	dirName := storage.RunDirName(s, len(states), resumeTimestamp())
	runDir, err := store.PrepareRun(dirName, configBody)
	if err != nil {
		return err
	}

	history := storage.NewFileHistory(runDir, replicaW)

	var monitor *tui.Monitor
	var progress ensemble.ProgressSink
	if live {
		monitor = tui.NewMonitor(dirName)
		progress = monitor
	}

	sinkFactory := func(id int) (kmc.SnapshotSink, error) {
		dir, err := runDir.ReplicaDir(id, replicaW)
		if err != nil {
			return nil, err
		}
		return storage.OpenSnapshotFile(dir)
	}

	cfg := ensemble.Config{
		Seed: s.Seed, KT: boltzmannKT(s.Temperature), Mode: mode,
		Dg: s.Dg, ConcEq: s.CEq, Conc0: s.C0, NTotal: s.NTot, N0Cr: s.N0Cr,
		PB: s.PB, PPow: s.PPow,
		G100: s.G100, G010: s.G010, G001: s.G001,
		Ax: s.Ax, Ay: s.Ay, Az: s.Az,
		AddI: s.AddI, AddFrom: s.AddFrom, RemI: s.RemI, RemFrom: s.RemFrom,
		StepLim: s.StepLim, PrintI: s.PrintI, WriteI: s.WriteI,
	}

	e, err := ensemble.New(cfg, lat, states, sinkFactory, history, progress)
	if err != nil {
		return err
	}

	if monitor != nil {
		errCh := make(chan error, 1)
		go func() { errCh <- e.Run(); monitor.Close() }()
		if err := monitor.Run(); err != nil {
			return err
		}
		return <-errCh
	}

	fmt.Printf("latticekmc: running %q (%s, mode %s)\n", dirName, runDir.Path(), mode)
	return e.Run()
}

const kBoltzmann = 1.380649e-23

func boltzmannKT(temperatureKelvin float64) float64 {
	return kBoltzmann * temperatureKelvin
}

func resumeTimestamp() int64 {
	return time.Now().UnixMicro()
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found under", dataDir)
		return nil
	}
	for _, r := range runs {
		fmt.Println(r)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	path := filepath.Join(dataDir, runID, "EnsembleLog.txt")
	series, err := storage.LoadHistory(path)
	if err != nil {
		return err
	}
	order := []plot.Series{plot.NCrystal, plot.Conc, plot.Dg}
	fmt.Print(plot.RenderAll(series, order, plotHeight, plotWidth))
	return nil
}
