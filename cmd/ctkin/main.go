package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/ischoegl/cantera/internal/kinetics"
	"github.com/ischoegl/cantera/internal/mech"
	"github.com/ischoegl/cantera/internal/rates"
	"github.com/ischoegl/cantera/internal/report"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	// State overrides for evaluation
	temp float64
	pres float64
	// Temperature sweep parameters
	tMin    float64
	tMax    float64
	nPoints int
	species string
	// Duplicate check options
	strict   bool
	fixDups  bool
	tbPolicy string
)

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ctkin",
		Short: "chemical kinetics workbench",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ctkin", "data directory")

	ratesCmd := &cobra.Command{
		Use:   "rates [mechanism.yaml]",
		Short: "evaluate reaction rates and save the run",
		Args:  cobra.ExactArgs(1),
		RunE:  evalRates,
	}
	ratesCmd.Flags().Float64Var(&temp, "T", 0, "temperature override [K]")
	ratesCmd.Flags().Float64Var(&pres, "P", 0, "pressure override [Pa]")

	sweepCmd := &cobra.Command{
		Use:   "sweep [mechanism.yaml]",
		Short: "plot net production rate over a temperature range",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepTemperature,
	}
	sweepCmd.Flags().Float64Var(&tMin, "tmin", 300, "lower temperature [K]")
	sweepCmd.Flags().Float64Var(&tMax, "tmax", 2500, "upper temperature [K]")
	sweepCmd.Flags().IntVar(&nPoints, "points", 80, "number of samples")
	sweepCmd.Flags().StringVar(&species, "species", "", "species to track (default: first)")

	checkCmd := &cobra.Command{
		Use:   "check [mechanism.yaml]",
		Short: "check the mechanism for undeclared duplicate reactions",
		Args:  cobra.ExactArgs(1),
		RunE:  checkMechanism,
	}
	checkCmd.Flags().BoolVar(&strict, "strict", false, "fail on the first offense")
	checkCmd.Flags().BoolVar(&fixDups, "fix", false, "mark unmarked duplicate pairs")
	checkCmd.Flags().StringVar(&tbPolicy, "third-body", "", "third-body duplicate policy (warn|error|mark-duplicate|modify-efficiency)")

	jacCmd := &cobra.Command{
		Use:   "jac [mechanism.yaml]",
		Short: "print the net production rate Jacobian",
		Args:  cobra.ExactArgs(1),
		RunE:  printJacobian,
	}
	jacCmd.Flags().Float64Var(&temp, "T", 0, "temperature override [K]")
	jacCmd.Flags().Float64Var(&pres, "P", 0, "pressure override [Pa]")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(ratesCmd, sweepCmd, checkCmd, jacCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildMechanism(path string) (*mech.Mechanism, *kinetics.Kinetics, error) {
	m, err := mech.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mechanism: %w", err)
	}
	k, phases, err := mech.Build(m, rates.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	if len(phases) > 0 && (temp > 0 || pres > 0) {
		p := phases[0]
		if temp > 0 {
			if err := p.SetTemperature(temp); err != nil {
				return nil, nil, err
			}
		}
		if pres > 0 {
			if err := p.SetPressure(pres); err != nil {
				return nil, nil, err
			}
		}
	}
	return m, k, nil
}

func evalRates(cmd *cobra.Command, args []string) error {
	m, k, err := buildMechanism(args[0])
	if err != nil {
		return err
	}

	st := report.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	runID, err := st.Save(m.Name, k)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("evaluated %d reactions, %d species in %v\n", k.NReactions(), k.NTotalSpecies(), elapsed)
	fmt.Printf("run id: %s\n\n", runID)

	nr := k.NReactions()
	kf := make([]float64, nr)
	net := make([]float64, nr)
	if err := k.GetFwdRateConstants(kf); err != nil {
		return err
	}
	if err := k.GetNetRatesOfProgress(net); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEQUATION\tKF\tROP_NET")
	for i := 0; i < nr; i++ {
		r, err := k.Reaction(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%.4e\t%.4e\n", i, r.Equation(), kf[i], net[i])
	}
	return w.Flush()
}

func sweepTemperature(cmd *cobra.Command, args []string) error {
	m, k, err := buildMechanism(args[0])
	if err != nil {
		return err
	}
	if nPoints < 2 {
		return fmt.Errorf("need at least 2 sample points")
	}

	spc := 0
	if species != "" {
		spc = k.SpeciesIndex(species)
		if spc < 0 {
			return fmt.Errorf("unknown species: %s", species)
		}
	}

	phase, err := k.Phase(0)
	if err != nil {
		return err
	}
	gas, ok := phase.(interface{ SetTemperature(float64) error })
	if !ok {
		return fmt.Errorf("phase does not support temperature changes")
	}

	wdot := make([]float64, k.NTotalSpecies())
	data := make([]float64, nPoints)
	for n := 0; n < nPoints; n++ {
		t := tMin + (tMax-tMin)*float64(n)/float64(nPoints-1)
		if err := gas.SetTemperature(t); err != nil {
			return err
		}
		if err := k.GetNetProductionRates(wdot); err != nil {
			return err
		}
		data[n] = wdot[spc]
	}

	caption := fmt.Sprintf("%s: net production of %s, %g-%g K",
		m.Name, k.SpeciesName(spc), tMin, tMax)
	graph := asciigraph.Plot(data,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}

func checkMechanism(cmd *cobra.Command, args []string) error {
	_, k, err := buildMechanism(args[0])
	if err != nil {
		return err
	}
	if tbPolicy != "" {
		if err := k.SetThirdBodyDuplicateHandling(tbPolicy); err != nil {
			return err
		}
	}

	i, j, err := k.CheckDuplicates(strict, fixDups)
	if err != nil {
		fmt.Println(red.Render("FAIL"), err)
		os.Exit(1)
	}
	switch {
	case i < 0:
		fmt.Println(green.Render("OK"), "no undeclared duplicates")
	case i == j:
		r, rerr := k.Reaction(i)
		if rerr != nil {
			return rerr
		}
		fmt.Println(yellow.Render("WARN"),
			fmt.Sprintf("reaction %d marked duplicate but has no partner: %s", i, r.Equation()))
	default:
		r1, rerr := k.Reaction(i)
		if rerr != nil {
			return rerr
		}
		fmt.Println(yellow.Render("WARN"),
			fmt.Sprintf("reactions %d and %d are unmarked duplicates: %s", i, j, r1.Equation()))
	}
	return nil
}

func printJacobian(cmd *cobra.Command, args []string) error {
	_, k, err := buildMechanism(args[0])
	if err != nil {
		return err
	}

	jac, err := k.NetProductionRatesDdX()
	if err != nil {
		return err
	}

	kk := k.NTotalSpecies()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tWRT\tD(WDOT)/DX")
	for idx, v := range jac.Elements {
		if v == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.4e\n", k.SpeciesName(idx/kk), k.SpeciesName(idx%kk), v)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := report.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMECHANISM\tTIME\tT\tP\tRXNS\tSPECIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fK\t%.0fPa\t%d\t%d\n",
			run.ID,
			run.Mechanism,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Temperature,
			run.Pressure,
			run.NReactions,
			run.NSpecies,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := report.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
